package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Middleware times every request, sets X-Response-Time and records the
// request under its chi route pattern.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tw := &timedWriter{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
		next.ServeHTTP(tw, req)

		route := "unmatched"
		if rc := chi.RouteContext(req.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		r.ObserveRequest(req.Method, route, tw.status, time.Since(tw.start))
	})
}

// timedWriter stamps X-Response-Time just before the header is sent.
type timedWriter struct {
	http.ResponseWriter
	start  time.Time
	status int
	wrote  bool
}

func (w *timedWriter) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		w.status = code
		ms := float64(time.Since(w.start).Microseconds()) / 1000
		w.Header().Set("X-Response-Time", fmt.Sprintf("%.3fms", ms))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *timedWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.wrote {
			w.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// Hijack lets the WebSocket upgrader take over the connection.
func (w *timedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.wrote = true
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *timedWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
