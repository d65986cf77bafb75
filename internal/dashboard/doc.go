// Package dashboard exposes the robot dashboard command catalog.
//
// Every operation formats a fixed command string, sends it through the
// connection engine, and returns the next reply line. Replies are returned
// as received; correlating the text with the documented expectation (for
// example "Starting program" after play) is the caller's job.
package dashboard
