package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertEntrySQL = `
INSERT INTO dashboard_commands (session_id, seq, command, reply, sent_at, received_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Entry is one command/reply exchange.
type Entry struct {
	SessionID  uuid.UUID
	Seq        uint64
	Command    string
	Reply      string
	SentAt     time.Time
	ReceivedAt time.Time
}

// RecorderConfig holds batching parameters.
type RecorderConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// DefaultRecorderConfig returns sensible defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
		BufferSize:    1000,
	}
}

// RecorderMetrics counts recorder activity.
type RecorderMetrics struct {
	Inserts int64
	Flushes int64
	Errors  int64
	Dropped int64
}

// Recorder consumes entries and writes them to the audit table in batches.
type Recorder struct {
	cfg    RecorderConfig
	logger *slog.Logger

	db *pgxpool.Pool

	input chan Entry

	// Batching
	batch       []Entry
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics RecorderMetrics
}

// NewRecorder creates a command audit recorder.
func NewRecorder(cfg RecorderConfig, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan Entry, cfg.BufferSize),
		batch:  make([]Entry, 0, cfg.BatchSize),
	}
}

// Start begins consuming entries and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("audit recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping audit recorder")

	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("audit recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("audit recorder stop timed out")
	}

	// Final flush
	r.flush()

	return nil
}

// Record queues an entry without blocking. Entries are dropped, counted, and
// logged under backpressure; losing an audit row must never stall a command.
func (r *Recorder) Record(e Entry) {
	select {
	case r.input <- e:
	default:
		r.batchMu.Lock()
		r.metrics.Dropped++
		r.batchMu.Unlock()
		r.logger.Warn("audit buffer full, dropping entry", "seq", e.Seq)
	}
}

// Stats returns current metrics.
func (r *Recorder) Stats() RecorderMetrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// consumeLoop reads from the input channel and accumulates batches.
func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case e := <-r.input:
			r.handleEntry(e)
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush()
		}
	}
}

// handleEntry adds an entry to the batch.
func (r *Recorder) handleEntry(e Entry) {
	r.batchMu.Lock()
	r.batch = append(r.batch, e)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush()
	}
}

// flush writes the current batch to the database.
func (r *Recorder) flush() {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]Entry, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	if err := r.batchInsert(batch); err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch))
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed audit entries",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert writes entries in a single round trip.
func (r *Recorder) batchInsert(entries []Entry) error {
	b := &pgx.Batch{}
	for _, e := range entries {
		b.Queue(insertEntrySQL,
			e.SessionID,
			int64(e.Seq),
			e.Command,
			e.Reply,
			e.SentAt,
			e.ReceivedAt,
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.db.SendBatch(ctx, b).Close()
}
