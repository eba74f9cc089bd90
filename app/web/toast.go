package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jtrack/app/notify"
	"github.com/umputun/jtrack/app/records"
)

// toastMiddleware attaches a toast box to the request context. Notifications collected while
// the request is handled are sent to the browser as HX-Trigger "toast" event with the response headers.
func (s *Server) toastMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/") {
			next.ServeHTTP(w, r) // json clients get errors in the response body
			return
		}
		ctx, box := notify.WithBox(r.Context())
		tw := &toastWriter{ResponseWriter: w, box: box}
		next.ServeHTTP(tw, r.WithContext(ctx))
		if !tw.wroteHeader {
			tw.WriteHeader(http.StatusOK)
		}
	})
}

// toastWriter sets HX-Trigger header from the box right before the headers are sent
type toastWriter struct {
	http.ResponseWriter
	box         *notify.Box
	wroteHeader bool
}

func (tw *toastWriter) WriteHeader(code int) {
	if tw.wroteHeader {
		return
	}
	tw.wroteHeader = true
	if items := tw.box.Drain(); len(items) > 0 {
		trigger, err := json.Marshal(map[string]any{"toast": map[string]any{"items": items}})
		if err != nil {
			log.Printf("[WARN] failed to encode toasts: %v", err)
		} else {
			tw.Header().Set("HX-Trigger", string(trigger))
		}
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *toastWriter) Write(b []byte) (int, error) {
	if !tw.wroteHeader {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}

// Unwrap returns the original writer for http.ResponseController
func (tw *toastWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}

// toast adds a notification produced by the web layer itself
func toast(ctx context.Context, level notify.Level, op, msg string) {
	notify.Toasts{}.Notify(ctx, notify.Notification{Level: level, Op: op, Message: msg})
}

// errMessage returns user-facing message of the error, store errors show the underlying cause
func errMessage(err error) string {
	var serr *records.StoreError
	if errors.As(err, &serr) {
		return serr.Err.Error()
	}
	return err.Error()
}
