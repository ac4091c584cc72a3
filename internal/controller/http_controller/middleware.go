package http_controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/horockey/go-toolbox/http_helpers"
)

const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (ctrl *HttpController[V]) requestIDMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (ctrl *HttpController[V]) accessLogMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ts := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, req)

		ctrl.metrics.requestsCnt.Inc()
		ctrl.metrics.handleTimeHist.Observe(float64(time.Since(ts)))
		if rec.status < http.StatusBadRequest {
			ctrl.metrics.successProcessCnt.Inc()
		} else {
			ctrl.metrics.errProcessCnt.WithLabelValues(strconv.Itoa(rec.status)).Inc()
		}

		ctrl.logger.Debug().
			Str("request_id", RequestID(req.Context())).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(ts)).
			Msg("handled request")
	})
}

func (ctrl *HttpController[V]) authMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if ctrl.params.apiKey != "" && req.Header.Get(apiKeyHeader) != ctrl.params.apiKey {
			_ = http_helpers.RespondWithErr(w, http.StatusForbidden, errors.New("invalid api key"))
			return
		}
		next.ServeHTTP(w, req)
	})
}
