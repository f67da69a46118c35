// Package ipc implements the in-process control channel between plugins.
//
// A provider owns a Channel: a bounded set of endpoint pairs, a command
// handler, and opaque private state. Consumers obtain the far end of a pair
// during the single-threaded registration phase and send newline-terminated
// commands over it with Run. One dispatch goroutine per channel services
// framed requests strictly one at a time; distinct channels are fully
// concurrent with respect to each other.
//
// Lifecycle:
//
//	ch := ipc.NewChannel("vadmin", ipc.Options{})
//	ch.SetHandler(handler, priv)
//	ep, err := ch.Register()       // once per consumer, before Start
//	err = ch.Start(ctx)            // registration phase ends here
//	reply, err := ipc.Run(ep, "status.get")
//	ch.Stop()
//
// Wire format (textual, newline-delimited):
//   - Single-line request: "<command>\n"
//   - Multi-line request:  "<command> << <marker>\n<body...>\n<marker>\n"
//   - Reply: status + length-delimited answer, see the protocol package.
//
// Each physical request line is bounded at MaxLineBytes; the number of heredoc
// body lines is not. Framing faults (oversized line, empty command, stalled
// heredoc body) close the offending endpoint only; the channel keeps serving
// its other endpoints. A channel cannot be restarted after Stop.
package ipc
