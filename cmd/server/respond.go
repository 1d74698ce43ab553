package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/advance/internal/pricing"
	"github.com/Simplici0/advance/internal/store"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request: bad JSON, a missing field or an
// unparseable path or query value.
type requestError struct {
	field string
	msg   string
}

func (e *requestError) Error() string {
	if e.field == "" {
		return e.msg
	}
	return e.field + ": " + e.msg
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		valErr *pricing.ValidationError
		domErr *pricing.DomainError
	)

	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: reqErr.msg, Field: reqErr.field})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: valErr.Error(), Field: valErr.Field})
	case errors.As(err, &domErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: domErr.Error(), Field: domErr.Field})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, store.ErrScheduleInactive):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: "fee_schedule_id"})
	case errors.Is(err, store.ErrAlreadySettled),
		errors.Is(err, store.ErrDuplicateReference),
		errors.Is(err, store.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &requestError{msg: "invalid JSON body: " + err.Error()}
	}
	return nil
}

// requestLogger logs one line per request with zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
