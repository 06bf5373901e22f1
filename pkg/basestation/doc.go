// Package basestation wires the base station node together: the Thread stack,
// the network event router, the commissioner, the question/answer CoAP
// resource and the display.
//
// # Starting a node
//
//	stack := sim.New(sim.Config{})
//	node, err := basestation.NewNode(basestation.NodeConfig{
//	    Config:  basestation.DefaultConfig(),
//	    Stack:   stack,
//	    CoAP:    stack.CoAP(),
//	    Display: terminal,
//	    Queue:   terminal.Queue(),
//	    LED:     hal.NewSimLED(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stack.Post(func() { node.Start() })
//	go stack.Run(ctx)
//
// Start runs the bootstrap sequence once. Each stack call is logged with its
// result and a failing step never prevents the following ones; the node then
// becomes leader of its own partition, starts the commissioner and serves
// question/answer. All node methods except State must be called on the stack
// loop.
//
// # Testing
//
// NewSimHarness builds a node on the simulated stack with in-memory display
// and LED, which is what the end to end tests and the CLI use.
package basestation
