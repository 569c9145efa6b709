// Package api exposes the chat service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/chat"
)

const maxBodyBytes = 1 << 20

// Service is the part of chat.Service the handlers use.
type Service interface {
	Context(ctx context.Context) (internal.DataContext, error)
	Execute(ctx context.Context, q internal.Query) (internal.Table, error)
	Ask(ctx context.Context, question string) (chat.Answer, error)
	Rate(ctx context.Context, questionID string, rating int) error
}

type handlers struct {
	logger  *slog.Logger
	service Service
}

func NewRouter(logger *slog.Logger, service Service) http.Handler {
	h := handlers{
		logger:  logger,
		service: service,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/context", h.getContext)
		r.Post("/query", h.executeQuery)
		r.Post("/ask", h.ask)
		r.Post("/questions/{id}/rating", h.rate)
	})

	return r
}

type TableResponse struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	ElapsedMs int64            `json:"elapsed_ms"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	QuestionID string         `json:"question_id"`
	Answer     string         `json:"answer"`
	Query      internal.Query `json:"query"`
	RawPlan    string         `json:"raw_plan"`
	Result     TableResponse  `json:"result"`
}

type RatingRequest struct {
	Rating int `json:"rating"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code  string         `json:"code"`
	Title string         `json:"title"`
	Data  map[string]any `json:"data,omitempty"`
}

func (h handlers) getContext(w http.ResponseWriter, r *http.Request) {
	dc, err := h.service.Context(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dc)
}

func (h handlers) executeQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, maiko.QueryErr("could not read request body", map[string]any{
			"error": err,
		}))
		return
	}

	q, err := internal.ParseQuery(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	start := time.Now()
	result, err := h.service.Execute(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tableResponse(result, time.Since(start)))
}

func (h handlers) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil {
		h.writeError(w, r, maiko.QueryErr("invalid request body", map[string]any{
			"error": err,
		}))
		return
	}

	start := time.Now()
	answer, err := h.service.Ask(r.Context(), req.Question)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		QuestionID: answer.QuestionID,
		Answer:     answer.Narration,
		Query:      answer.Query,
		RawPlan:    answer.RawPlan,
		Result:     tableResponse(answer.Result, time.Since(start)),
	})
}

func (h handlers) rate(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil {
		h.writeError(w, r, maiko.QueryErr("invalid request body", map[string]any{
			"error": err,
		}))
		return
	}

	err = h.service.Rate(r.Context(), chi.URLParam(r, "id"), req.Rating)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func tableResponse(t internal.Table, elapsed time.Duration) TableResponse {
	return TableResponse{
		Columns:   t.Columns,
		Rows:      t.Records(),
		RowCount:  t.Len(),
		ElapsedMs: elapsed.Milliseconds(),
	}
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e maiko.Err
	switch {
	case errors.As(err, &e) && e.Code != maiko.CodeInternal:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Code:  e.Code,
			Title: e.Title,
			Data:  renderData(e.Data),
		}})

	case errors.Is(err, chat.ErrQuestionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorBody{
			Code:  "NotFound",
			Title: err.Error(),
		}})

	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
			Code:  maiko.CodeInternal,
			Title: "internal error",
		}})
	}
}

func renderData(data map[string]any) map[string]any {
	if len(data) == 0 {
		return nil
	}

	out := make(map[string]any, len(data))
	for k, v := range data {
		switch v := v.(type) {
		case error:
			out[k] = v.Error()
		case time.Time:
			out[k] = internal.PromptSafe(v)
		default:
			out[k] = v
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
