package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
)

// statusWriter remembers the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	code int
	size int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.size += int64(n)
	return n, err
}

// Flush keeps the event stream working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// requestNotes collects navigation fields handlers want on the access log
// line, such as the active tab of a served snapshot.
type requestNotes struct {
	mu     sync.Mutex
	fields []any
}

type notesKey struct{}

func noteFields(ctx context.Context, kv ...any) {
	notes, ok := ctx.Value(notesKey{}).(*requestNotes)
	if !ok {
		return
	}
	notes.mu.Lock()
	notes.fields = append(notes.fields, kv...)
	notes.mu.Unlock()
}

// withAccessLog logs one line per request with the matched route and the
// notes handlers attached.
func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		notes := &requestNotes{}
		r = r.WithContext(context.WithValue(r.Context(), notesKey{}, notes))
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		code := sw.code
		if code == 0 {
			code = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"route", r.Pattern,
			"path", r.URL.Path,
			"status", code,
			"bytes", sw.size,
			"duration_ms", time.Since(started).Milliseconds(),
			"remote", clientIP(r),
		}
		notes.mu.Lock()
		fields = append(fields, notes.fields...)
		notes.mu.Unlock()
		log := pslog.Ctx(r.Context())
		switch {
		case code >= http.StatusInternalServerError:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
