// Package chat answers natural language questions about the
// revenue dataset: it plans a query, executes it, narrates the
// result and keeps a usage log of questions and ratings.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/engine"
	"github.com/AmirejibiIlia/maiko/internal/metrics"
	"github.com/AmirejibiIlia/maiko/internal/planner"
	"github.com/AmirejibiIlia/maiko/internal/schema"
	"github.com/AmirejibiIlia/maiko/internal/usagelog"
)

// ErrQuestionNotFound is returned when rating a question
// that was never asked.
var ErrQuestionNotFound = errors.New("question not found")

type Planner interface {
	Plan(ctx context.Context, question string, dc internal.DataContext) (planner.Plan, error)
	Replan(ctx context.Context, question string, dc internal.DataContext, failed planner.Plan, cause error) (planner.Plan, error)
}

type Narrator interface {
	Narrate(ctx context.Context, question string, result internal.Table) (string, error)
}

type UsageLog interface {
	Record(ctx context.Context, e usagelog.Entry) error
	Find(ctx context.Context, questionID string) (usagelog.Entry, bool, error)
}

type Config struct {
	Logger   *slog.Logger
	Source   internal.DatasetSource
	Executor engine.Executor
	Planner  Planner
	Narrator Narrator
	UsageLog UsageLog

	SampleSize int
	Now        func() time.Time
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Source == nil {
		return errors.New("dataset source is required")
	}
	if c.Planner == nil {
		return errors.New("planner is required")
	}
	if c.Narrator == nil {
		return errors.New("narrator is required")
	}
	if c.UsageLog == nil {
		return errors.New("usage log is required")
	}
	if c.SampleSize == 0 {
		c.SampleSize = schema.DefaultSampleSize
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

type Service struct {
	cfg Config
}

func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Service{
		cfg: cfg,
	}, nil
}

// Answer is everything produced while answering one question.
type Answer struct {
	QuestionID string
	Query      internal.Query
	RawPlan    string
	Result     internal.Table
	Narration  string
}

// Context describes the current dataset.
func (s *Service) Context(ctx context.Context) (internal.DataContext, error) {
	table, err := s.cfg.Source.Dataset(ctx)
	if err != nil {
		return internal.DataContext{}, err
	}
	return schema.Describe(table, s.cfg.SampleSize)
}

// Execute runs a query object against the current dataset.
func (s *Service) Execute(ctx context.Context, q internal.Query) (internal.Table, error) {
	table, err := s.cfg.Source.Dataset(ctx)
	if err != nil {
		return internal.Table{}, err
	}
	return s.execute(table, q)
}

func (s *Service) execute(table internal.Table, q internal.Query) (internal.Table, error) {
	start := time.Now()
	result, err := s.cfg.Executor.Execute(table, q)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueriesExecuted.WithLabelValues("error").Inc()
		return internal.Table{}, err
	}

	metrics.QueriesExecuted.WithLabelValues("ok").Inc()
	return result, nil
}

// Ask answers the question. A plan that fails to execute because
// of a query, schema or parse error is regenerated once with the
// error fed back to the planner.
func (s *Service) Ask(ctx context.Context, question string) (Answer, error) {
	answer, err := s.ask(ctx, question)
	if err != nil {
		metrics.QuestionsAnswered.WithLabelValues("error").Inc()
		return Answer{}, err
	}

	metrics.QuestionsAnswered.WithLabelValues("ok").Inc()
	return answer, nil
}

func (s *Service) ask(ctx context.Context, question string) (Answer, error) {
	if question == "" {
		return Answer{}, maiko.QueryErr("question must not be empty", nil)
	}

	id := uuid.NewString()
	logger := s.cfg.Logger.With("question_id", id)

	table, err := s.cfg.Source.Dataset(ctx)
	if err != nil {
		return Answer{}, err
	}

	dc, err := schema.Describe(table, s.cfg.SampleSize)
	if err != nil {
		return Answer{}, err
	}

	plan, err := s.cfg.Planner.Plan(ctx, question, dc)
	if err != nil {
		return Answer{}, err
	}
	logger.Debug("query planned", "raw", plan.Raw)

	result, err := s.execute(table, plan.Query)
	if isQueryFault(err) {
		logger.Warn("planned query failed, replanning", "error", err)
		metrics.Replans.Inc()

		plan, err = s.cfg.Planner.Replan(ctx, question, dc, plan, err)
		if err != nil {
			return Answer{}, err
		}
		result, err = s.execute(table, plan.Query)
	}
	if err != nil {
		return Answer{}, err
	}

	narration, err := s.cfg.Narrator.Narrate(ctx, question, result)
	if err != nil {
		return Answer{}, err
	}

	err = s.cfg.UsageLog.Record(ctx, usagelog.Entry{
		Timestamp:   s.cfg.Now(),
		FileName:    s.cfg.Source.Name(),
		Question:    question,
		QuestionID:  id,
		RawResponse: plan.Raw,
	})
	if err != nil {
		logger.Error("failed to record question in usage log", "error", err)
	}

	return Answer{
		QuestionID: id,
		Query:      plan.Query,
		RawPlan:    plan.Raw,
		Result:     result,
		Narration:  narration,
	}, nil
}

// Rate stores a rating from 1 to 5 for a previously asked question.
func (s *Service) Rate(ctx context.Context, questionID string, rating int) error {
	if rating < 1 || rating > 5 {
		return maiko.QueryErr("rating must be between 1 and 5", map[string]any{
			"rating": rating,
		})
	}

	_, found, err := s.cfg.UsageLog.Find(ctx, questionID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", questionID, ErrQuestionNotFound)
	}

	err = s.cfg.UsageLog.Record(ctx, usagelog.Entry{
		QuestionID: questionID,
		Rating:     strconv.Itoa(rating),
	})
	if err != nil {
		return err
	}

	metrics.Ratings.Observe(float64(rating))
	return nil
}

func isQueryFault(err error) bool {
	return maiko.ErrIs(err, maiko.CodeQuery) ||
		maiko.ErrIs(err, maiko.CodeSchema) ||
		maiko.ErrIs(err, maiko.CodeParse)
}
