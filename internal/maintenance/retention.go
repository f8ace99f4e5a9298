package maintenance

import (
	"context"
	"database/sql"
	"log"
	"strconv"
	"strings"
	"time"
)

// StartAuditRetention runs a daily job at localTime ("HH:MM") in tzName that
// deletes audit_log rows older than keepDays.
// Call once at startup: go is not needed, it spawns its own goroutine.
func StartAuditRetention(ctx context.Context, db *sql.DB, keepDays int, localTime string, tzName string) {
	if keepDays <= 0 {
		keepDays = 90
	}
	go func() {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			loc = time.Local
		}
		h, m := 3, 0
		if parts := strings.Split(localTime, ":"); len(parts) == 2 {
			if v, err := strconv.Atoi(parts[0]); err == nil {
				h = v
			}
			if v, err := strconv.Atoi(parts[1]); err == nil {
				m = v
			}
		}

		for {
			now := time.Now().In(loc)
			next := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, loc)
			if !next.After(now) {
				next = next.Add(24 * time.Hour)
			}
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				pruneAudit(ctx, db, keepDays)
			}
		}
	}()
}

// pruneAudit deletes audit_log rows older than keepDays. make_interval takes
// an integer parameter; a `($1 || ' days')::interval` parameter describes as
// text, which the pgx driver cannot encode an int into.
func pruneAudit(ctx context.Context, db *sql.DB, keepDays int) {
	const q = `DELETE FROM audit_log WHERE created_at < now() - make_interval(days => $1);`
	res, err := db.ExecContext(ctx, q, keepDays)
	if err != nil {
		log.Printf("[retention] prune audit_log failed: %v", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Printf("[retention] audit_log pruned: %d rows older than %d days", n, keepDays)
	}
}
