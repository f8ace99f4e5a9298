// Package audit records catalog mutations (book/author/library writes) to the
// audit_log table off the request path. Events are batched; a full buffer
// drops rather than blocks, since an audit gap beats a stalled write endpoint.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type Event struct {
	ActorID    string
	Action     string // e.g. "book.create", "library.books"
	TargetType string // "book" | "author" | "library" | "user"
	TargetID   string
	Detail     any
	At         time.Time
}

var (
	std  *queue
	once sync.Once
)

// Start spins up N workers with a buffered channel.
// Suggested: buf=4096, workers=2
func Start(db *sql.DB, buf, workers int) {
	once.Do(func() {
		std = newQueue(db, buf, workers)
	})
}

// Record tries to queue an audit event without blocking.
// If the buffer is full, the event is dropped.
func Record(ev Event) {
	if std == nil {
		return
	}
	std.record(ev)
}

// Shutdown signals workers to stop, flushes remaining events, and waits.
func Shutdown() {
	if std == nil {
		return
	}
	std.shutdown()
}

// --- internal ---

const (
	batchSize  = 100
	flushEvery = 250 * time.Millisecond
	writeTO    = 500 * time.Millisecond
	insertTmpl = `INSERT INTO audit_log (actor_id, action, target_type, target_id, detail, created_at) VALUES %s`
)

type queue struct {
	db   *sql.DB
	ch   chan Event
	done chan struct{}
	wg   sync.WaitGroup
}

func newQueue(db *sql.DB, buf, workers int) *queue {
	q := &queue{
		db:   db,
		ch:   make(chan Event, buf),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *queue) record(ev Event) {
	if ev.Action == "" {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case q.ch <- ev:
	default:
		// buffer full; drop
	}
}

func (q *queue) shutdown() {
	close(q.done)
	q.wg.Wait()
}

func (q *queue) worker() {
	defer q.wg.Done()
	tk := time.NewTicker(flushEvery)
	defer tk.Stop()

	batch := make([]Event, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		_ = q.insertBatch(batch) // best-effort
		batch = batch[:0]
	}

	for {
		select {
		case <-q.done:
			// drain quickly then flush
			for {
				select {
				case ev := <-q.ch:
					batch = append(batch, ev)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case ev := <-q.ch:
			batch = append(batch, ev)
			if len(batch) >= batchSize {
				flush()
			}
		case <-tk.C:
			flush()
		}
	}
}

func (q *queue) insertBatch(batch []Event) error {
	if len(batch) == 0 {
		return nil
	}
	// VALUES (NULLIF($1,'')::uuid,$2,$3,NULLIF($4,''),$5,$6),...
	args := make([]any, 0, len(batch)*6)
	vals := make([]byte, 0, len(batch)*48)
	for i, ev := range batch {
		if i > 0 {
			vals = append(vals, ',')
		}
		p := 6 * i
		vals = append(vals, fmt.Sprintf(
			"(NULLIF($%d,'')::uuid,$%d,$%d,NULLIF($%d,''),$%d,$%d)",
			p+1, p+2, p+3, p+4, p+5, p+6)...)

		var detail []byte
		if ev.Detail != nil {
			detail, _ = json.Marshal(ev.Detail)
		}
		args = append(args, ev.ActorID, ev.Action, ev.TargetType, ev.TargetID, detail, ev.At)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTO)
	defer cancel()
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(insertTmpl, string(vals)), args...)
	return err
}
