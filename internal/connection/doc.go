// Package connection implements the dashboard connection engine.
//
// The engine:
//   - Owns the TCP socket to the robot dashboard server (port 29999)
//   - Runs one worker goroutine that reads replies and drives all
//     state transitions
//   - Reconnects after transient failures within a bounded budget
//   - Correlates one outbound command with the next inbound reply
//     through a sequence-numbered publish gate
package connection
