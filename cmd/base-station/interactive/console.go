// Package interactive provides the interactive console of the base station.
// Every command that touches the node runs on the stack loop.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/backkem/basestation/pkg/basestation"
	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/backkem/basestation/pkg/thread/sim"
	"github.com/chzyer/readline"
)

// Console handles interactive mode.
type Console struct {
	rl *readline.Instance
	h  *basestation.SimHarness
}

// New creates a console. Its Stdout should be used for all other output so
// that logs do not garble the prompt.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "base-station> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"),
			readline.PcItem("status"),
			readline.PcItem("press"),
			readline.PcItem("release"),
			readline.PcItem("click"),
			readline.PcItem("get"),
			readline.PcItem("post", readline.PcItem("--non")),
			readline.PcItem("join"),
			readline.PcItem("expire"),
			readline.PcItem("role",
				readline.PcItem("detached"),
				readline.PcItem("child"),
				readline.PcItem("router"),
				readline.PcItem("leader"),
			),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done. cancel is called on
// exit so the rest of the program shuts down too.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc, h *basestation.SimHarness) {
	c.h = h
	var closeOnce sync.Once
	closeRL := func() { closeOnce.Do(func() { c.rl.Close() }) }
	defer closeRL()

	go func() {
		<-ctx.Done()
		closeRL()
	}()

	h.Stack.CoAP().OnResponse(c.printResponse)
	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) && len(line) > 0 {
			continue
		}
		if err != nil {
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if quit := c.dispatch(strings.ToLower(parts[0]), parts[1:]); quit {
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}
	}
}

func (c *Console) dispatch(cmd string, args []string) bool {
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "status", "s":
		c.cmdStatus()
	case "press":
		c.cmdButton(args, true, false)
	case "release":
		c.cmdButton(args, false, true)
	case "click":
		c.cmdButton(args, true, true)
	case "get":
		c.cmdRequest(coap.CodeGet, coap.TypeConfirmable, nil)
	case "post":
		c.cmdPost(args)
	case "join":
		c.cmdJoin(args)
	case "expire":
		c.h.Stack.Post(func() {
			n := c.h.Stack.ExpireJoiners()
			fmt.Fprintf(c.rl.Stdout(), "%d joiner entr(ies) expired\n", n)
		})
	case "role":
		c.cmdRole(args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Base Station Commands:
  Node:
    status               - Show network status
    press <n>            - Press button n (button 0 opens a joiner window)
    release <n>          - Release button n
    click <n>            - Press and release button n

  question/answer:
    get                  - GET the stored value
    post [--non] <text>  - POST a new value (--non: non-confirmable)

  Simulation:
    join <eui64> <pskd>  - Run a joiner session against the commissioner
    expire               - Drop joiner entries whose timeout elapsed
    role <role>          - Force a role (detached, child, router, leader)

  help, quit`)
}

func (c *Console) cmdStatus() {
	out := c.rl.Stdout()
	fmt.Fprintln(out, c.h.Terminal.RenderStatus())
	fmt.Fprintf(out, "node:         %s\n", c.h.Node.State())
	fmt.Fprintf(out, "commissioner: %s\n", c.h.Stack.CommissionerState())
	fmt.Fprintf(out, "joiners:      %d\n", c.h.Stack.Joiners())
	fmt.Fprintf(out, "led:          %t (%d toggles)\n", c.h.LED.On(), c.h.LED.Toggles())
	if adv := c.h.Node.Advertiser(); adv != nil && adv.IsAdvertising() {
		fmt.Fprintf(out, "border agent: %s\n", adv.InstanceName())
	}
}

func (c *Console) cmdButton(args []string, press, release bool) {
	id := hal.Button0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || c.h.Button(hal.ButtonID(n)) == nil {
			fmt.Fprintf(c.rl.Stdout(), "Unknown button: %s\n", args[0])
			return
		}
		id = hal.ButtonID(n)
	}
	c.h.Stack.Post(func() {
		if press {
			c.h.Press(id)
		}
		if release {
			c.h.Release(id)
		}
	})
}

func (c *Console) cmdPost(args []string) {
	typ := coap.TypeConfirmable
	if len(args) > 0 && args[0] == "--non" {
		typ = coap.TypeNonConfirmable
		args = args[1:]
	}
	c.cmdRequest(coap.CodePost, typ, []byte(strings.Join(args, " ")))
}

func (c *Console) cmdRequest(code coap.Code, typ coap.Type, payload []byte) {
	c.h.Stack.Post(func() {
		if err := c.h.Request(code, typ, payload); err != nil {
			fmt.Fprintf(c.rl.Stdout(), "%s %s: %s\n", typ, code, thread.ErrorString(err))
		}
	})
}

func (c *Console) printResponse(r sim.SentResponse) {
	fmt.Fprintf(c.rl.Stdout(), "[coap] %s %s -> %s %q\n", r.Type, r.Code, r.Peer.Peer(), r.Payload)
}

func (c *Console) cmdJoin(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: join <eui64> <pskd>")
		return
	}
	id, err := thread.ParseExtAddress(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid joiner id: %v\n", err)
		return
	}
	if err := c.h.Stack.SimulateJoiner(id, args[1]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "join %s: %s\n", id, thread.ErrorString(err))
	}
}

var roles = map[string]thread.DeviceRole{
	"detached": thread.RoleDetached,
	"child":    thread.RoleChild,
	"router":   thread.RoleRouter,
	"leader":   thread.RoleLeader,
}

func (c *Console) cmdRole(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: role <detached|child|router|leader>")
		return
	}
	role, ok := roles[strings.ToLower(args[0])]
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Unknown role: %s\n", args[0])
		return
	}
	if err := c.h.Stack.SetRole(role); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "role %s: %s\n", role, thread.ErrorString(err))
	}
}
