package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// sensitiveFields are field names that must never reach the logs. Webhook
// payloads and login bodies both pass through here.
var sensitiveFields = []string{
	"password",
	"password_hash",
	"token",
	"access_token",
	"refresh_token",
	"authorization",
	"secret",
	"api_key",
	"checksum",
	"credential",
}

// maxLoggedBody caps how much of a request body is copied into the log line.
const maxLoggedBody = 4096

func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			logger.Info("incoming request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"body", requestBodyForLog(r),
			)

			ww := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			statusCode := ww.statusCode
			if statusCode == 0 {
				statusCode = http.StatusOK
			}

			logLevel := slog.LevelInfo
			if statusCode >= 500 {
				logLevel = slog.LevelError
			} else if statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			logger.Log(r.Context(), logLevel, "response",
				"request_id", reqID,
				"status_code", statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.written,
			)
		})
	}
}

// responseWriter records the status code and byte count without buffering the
// response itself.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// requestBodyForLog reads the body, restores it for the handler and returns a
// redacted, size-capped representation.
func requestBodyForLog(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	bodyBytes, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if len(bodyBytes) == 0 {
		return ""
	}
	if len(bodyBytes) > maxLoggedBody {
		return "[TRUNCATED - body exceeds log cap]"
	}

	var jsonData interface{}
	if err := json.Unmarshal(bodyBytes, &jsonData); err != nil {
		if containsSensitiveField(strings.ToLower(string(bodyBytes))) {
			return "[FILTERED - contains sensitive data]"
		}
		return string(bodyBytes)
	}

	filteredBytes, err := json.Marshal(redactJSON(jsonData))
	if err != nil {
		return "[FILTERED]"
	}
	return string(filteredBytes)
}

func containsSensitiveField(lower string) bool {
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// redactJSON walks parsed JSON and masks values under sensitive keys.
func redactJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		filtered := make(map[string]interface{}, len(v))
		for key, value := range v {
			if containsSensitiveField(strings.ToLower(key)) {
				filtered[key] = "[FILTERED]"
				continue
			}
			filtered[key] = redactJSON(value)
		}
		return filtered
	case []interface{}:
		filtered := make([]interface{}, len(v))
		for i, item := range v {
			filtered[i] = redactJSON(item)
		}
		return filtered
	default:
		return v
	}
}
