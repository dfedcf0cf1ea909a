package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go-storefront-admin/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

const requestInfoContextKey contextKey = "request_info"

// requestInfo is shared by pointer so RequireAuth, which runs deeper in the
// chain on a derived context, can report the actor back to the request log.
type requestInfo struct {
	id    string
	actor string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestInfoContextKey).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

// failureBody picks the fields worth logging out of an error envelope.
type failureBody struct {
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details string         `json:"details"`
		Context map[string]any `json:"context"`
	} `json:"error"`
}

// RequestLog assigns a request id, logs one line per request and feeds the
// HTTP collectors. Blocked restores are logged with the keys that blocked them.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &requestInfo{id: r.Header.Get(requestIDHeader)}
		if info.id == "" {
			info.id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, info.id)

		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(context.WithValue(r.Context(), requestInfoContextKey, info))

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(started)
		route := routePattern(r)
		if route != "" {
			metrics.ObserveHTTP(r.Method, route, strconv.Itoa(recorder.status), elapsed)
		}

		attrs := []any{
			"request_id", info.id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", elapsed.Milliseconds(),
			"client_ip", r.RemoteAddr,
		}
		if info.actor != "" {
			attrs = append(attrs, "actor", info.actor)
		}
		if recorder.status >= 400 {
			attrs = append(attrs, failureAttrs(r, recorder.body.Bytes())...)
		}

		switch {
		case recorder.status >= 500:
			slog.Error("request", attrs...)
		case recorder.status >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	})
}

func failureAttrs(r *http.Request, body []byte) []any {
	var attrs []any
	if r.URL.RawQuery != "" {
		attrs = append(attrs, "query", r.URL.RawQuery)
	}

	var parsed failureBody
	if len(body) == 0 || json.Unmarshal(body, &parsed) != nil || parsed.Error == nil {
		return attrs
	}

	attrs = append(attrs, "error_code", parsed.Error.Code, "error_message", parsed.Error.Message)
	if parsed.Error.Details != "" {
		attrs = append(attrs, "error_details", parsed.Error.Details)
	}
	if blockers, ok := parsed.Error.Context["blocked_by"]; ok {
		attrs = append(attrs, "blocked_by", blockers)
	}
	return attrs
}

// routePattern keeps metric labels bounded; unmatched paths report nothing.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.status = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.status >= 400 {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.status = http.StatusSwitchingProtocols
	rw.wroteHeader = true
	return hijacker.Hijack()
}
