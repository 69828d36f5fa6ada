package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"browser-guide/internal/application/port/output"

	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

const serviceName = "guide"

// requestLogger logs every request through httplog. httplog also assigns the
// request id and recovers panics.
func requestLogger(logger output.LoggerPort) func(http.Handler) http.Handler {
	zl := zerolog.New(accessLog{logger: logger}).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	return httplog.RequestLogger(zl)
}

// accessLog feeds httplog's zerolog records into the application logger, so
// HTTP lines land in the same sink as everything else.
type accessLog struct {
	logger output.LoggerPort
}

func (a accessLog) Write(p []byte) (int, error) {
	var rec map[string]any
	if err := json.Unmarshal(p, &rec); err != nil {
		a.logger.Info(strings.TrimSpace(string(p)))
		return len(p), nil
	}

	msg, _ := rec[zerolog.MessageFieldName].(string)
	level, _ := rec[zerolog.LevelFieldName].(string)
	delete(rec, zerolog.MessageFieldName)
	delete(rec, zerolog.LevelFieldName)
	delete(rec, zerolog.TimestampFieldName)

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, rec[k])
	}

	switch level {
	case "trace", "debug":
		a.logger.Debug(msg, args...)
	case "warn":
		a.logger.Warn(msg, args...)
	case "error", "fatal", "panic":
		a.logger.Error(msg, args...)
	default:
		a.logger.Info(msg, args...)
	}
	return len(p), nil
}

// corsMiddleware lets the in-page widget call the relay from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Referer")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
