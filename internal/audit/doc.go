// Package audit records every dashboard command/reply pair to PostgreSQL.
//
// The Tap wraps the connection transport and captures traffic without
// changing its behavior; the Recorder batches captured entries and flushes
// them on size or interval. Inserts are append-only.
package audit
