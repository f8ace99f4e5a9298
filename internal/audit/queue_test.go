package audit

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRecord_BeforeStartIsNoop(t *testing.T) {
	// package-level Record with no queue must not panic or block
	Record(Event{Action: "book.create", TargetType: "book", TargetID: "x"})
}

func TestQueue_ShutdownFlushesBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO audit_log \(actor_id, action, target_type, target_id, detail, created_at\) VALUES \(NULLIF\(\$1,''\)::uuid,\$2,\$3,NULLIF\(\$4,''\),\$5,\$6\),\(NULLIF\(\$7,''\)::uuid,\$8,\$9,NULLIF\(\$10,''\),\$11,\$12\)`).
		WithArgs(
			"", "book.create", "book", "b1", []byte(nil), at,
			"", "book.delete", "book", "b2", []byte(nil), at,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	q := newQueue(db, 8, 1)
	q.record(Event{Action: "book.create", TargetType: "book", TargetID: "b1", At: at})
	q.record(Event{Action: "book.delete", TargetType: "book", TargetID: "b2", At: at})
	q.shutdown()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestQueue_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// no workers: nothing drains the buffer, so the second record must
	// return immediately instead of blocking
	q := newQueue(db, 1, 0)
	done := make(chan struct{})
	go func() {
		q.record(Event{Action: "book.create", TargetType: "book", TargetID: "b1"})
		q.record(Event{Action: "book.create", TargetType: "book", TargetID: "b2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("record blocked on a full buffer")
	}
	if got := len(q.ch); got != 1 {
		t.Fatalf("buffered events = %d, want 1 (overflow dropped)", got)
	}
}

func TestQueue_EmptyActionIgnored(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	q := newQueue(db, 4, 0)
	q.record(Event{TargetType: "book", TargetID: "b1"})
	if got := len(q.ch); got != 0 {
		t.Fatalf("buffered events = %d, want 0", got)
	}
}
