package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/backkem/basestation/pkg/hal"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#8BE9FD")
	successColor = lipgloss.Color("#50FA7B")
	warningColor = lipgloss.Color("#FFB86C")
	mutedColor   = lipgloss.Color("#6272A4")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(10)

	valueStyle = lipgloss.NewStyle().Bold(true)

	leaderStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	joinerStyle = lipgloss.NewStyle().
			Foreground(warningColor)
)

// Status is the information shown in the status panel.
type Status struct {
	NetworkName string
	Channel     int
	Role        string
}

// TerminalConfig configures a Terminal.
type TerminalConfig struct {
	// Writer receives rendered output. Defaults to os.Stdout.
	Writer io.Writer

	// QueueCapacity sizes the event ring. Defaults to DefaultQueueCapacity.
	QueueCapacity int
}

// Terminal renders the base station display to a text console. It implements
// Sink directly and drains its RingBuffer from Run.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	queue  *RingBuffer
	status Status
}

// NewTerminal creates a Terminal.
func NewTerminal(config TerminalConfig) *Terminal {
	out := config.Writer
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{
		out:   out,
		queue: NewRingBuffer(config.QueueCapacity),
	}
}

// Queue returns the event ring the core enqueues into.
func (t *Terminal) Queue() *RingBuffer {
	return t.queue
}

// Status returns a snapshot of the status panel.
func (t *Terminal) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// PrintNetworkChannel implements Sink.
func (t *Terminal) PrintNetworkChannel(channel int) {
	t.mu.Lock()
	t.status.Channel = channel
	t.mu.Unlock()
	t.line(tagStyle.Render("[net]") + " channel " + valueStyle.Render(strconv.Itoa(channel)))
}

// PrintNetworkName implements Sink.
func (t *Terminal) PrintNetworkName(name string) {
	t.mu.Lock()
	t.status.NetworkName = name
	t.mu.Unlock()
	t.line(tagStyle.Render("[net]") + " name " + valueStyle.Render(name))
}

// PrintDeviceRole implements Sink.
func (t *Terminal) PrintDeviceRole(role string) {
	t.mu.Lock()
	t.status.Role = role
	t.mu.Unlock()
	t.line(tagStyle.Render("[net]") + " role " + roleStyle(role).Render(role))
}

// PrintLog implements Sink.
func (t *Terminal) PrintLog(msg string) {
	t.line(msg)
}

// ButtonChanged implements Sink.
func (t *Terminal) ButtonChanged(id hal.ButtonID, state hal.ButtonState) {
	t.line(fmt.Sprintf("%s button %d %s", tagStyle.Render("[btn]"), id, state))
}

// RenderStatus returns the status panel.
func (t *Terminal) RenderStatus() string {
	s := t.Status()

	channel := "-"
	if s.Channel != 0 {
		channel = strconv.Itoa(s.Channel)
	}
	rows := []string{
		labelStyle.Render("network") + valueStyle.Render(orDash(s.NetworkName)),
		labelStyle.Render("channel") + valueStyle.Render(channel),
		labelStyle.Render("role") + roleStyle(s.Role).Render(orDash(s.Role)),
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Flush renders every queued event and returns how many were drained.
func (t *Terminal) Flush() int {
	n := 0
	for {
		ev, ok := t.queue.Pop()
		if !ok {
			return n
		}
		n++
		switch ev.Flag {
		case EventFlagJoiner:
			t.line(joinerStyle.Render(ev.Msg))
		default:
			t.line(ev.Msg)
		}
	}
}

// Run drains the queue every interval until ctx is done, then flushes once more.
func (t *Terminal) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Flush()
			return
		case <-ticker.C:
			t.Flush()
		}
	}
}

func (t *Terminal) line(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, s)
}

func roleStyle(role string) lipgloss.Style {
	if role == "leader" {
		return leaderStyle
	}
	return valueStyle
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
