package middlewares

import (
	"log"
	"net/http"
	"time"
)

// slowThreshold marks requests worth flagging in the log; catalog reads are
// cached and should stay well under it.
const slowThreshold = 500 * time.Millisecond

type timedWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
	status      int
}

func (w *timedWriter) stamp() {
	if !w.wroteHeader {
		w.Header().Set("X-Response-Time", time.Since(w.start).String())
		w.wroteHeader = true
	}
}

func (w *timedWriter) WriteHeader(code int) {
	w.status = code
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

// ResponseTimeMiddleware stamps X-Response-Time on every response and logs
// requests that run past slowThreshold.
func ResponseTimeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timedWriter{
			ResponseWriter: w,
			start:          time.Now(),
			status:         http.StatusOK,
		}
		next.ServeHTTP(tw, r)

		// 204 and HEAD responses may never call Write.
		if !tw.wroteHeader {
			tw.Header().Set("X-Response-Time", time.Since(tw.start).String())
		}
		if d := time.Since(tw.start); d > slowThreshold {
			log.Printf("[WARN] slow request: %s %s %d took %s rid=%s",
				r.Method, r.URL.Path, tw.status, d, GetRequestID(r))
		}
	})
}
