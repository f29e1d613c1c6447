package search

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relenghq/releng/internal/log"
	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// Executor submits built queries to the search engine. Every execution
// validates first: warnings are logged with the acting user and never
// block; any validation error is fatal and raised before the search runs.
// All engine failures surface as SearchEngineError, never raw.
type Executor struct {
	engine application.SearchEngine
	tracer trace.Tracer
}

// NewExecutor creates an executor over the given engine.
func NewExecutor(engine application.SearchEngine) *Executor {
	return &Executor{engine: engine, tracer: otel.Tracer("releng/search")}
}

// Execute validates and runs the query, returning every matching issue in
// canonical order (unlimited fetch, no pagination).
func (e *Executor) Execute(ctx context.Context, user domain.User, query domain.Query) ([]domain.Issue, error) {
	_, span := e.tracer.Start(ctx, "search.execute",
		trace.WithAttributes(attribute.String("query", query.String())))
	defer span.End()
	start := time.Now()
	defer log.Elapsed(log.CatSearch, "Search", start, "user", user.Name)

	messages, err := e.engine.ValidateQuery(user, query)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.SearchEngineError{Message: "query validation failed", Err: err}
	}
	if messages.HasWarnings() {
		for _, warning := range messages.Warnings {
			log.Warn(log.CatSearch, "query validation warning",
				"warning", warning, "query", query.String(), "user", user.Name)
		}
	}
	if messages.HasErrors() {
		log.Error(log.CatSearch, "query validation failed",
			"errors", messages.JoinedErrors(), "query", query.String(), "user", user.Name)
		serr := &domain.SearchEngineError{Message: "invalid query: " + messages.JoinedErrors()}
		span.RecordError(serr)
		return nil, serr
	}

	log.Debug(log.CatSearch, "executing query", "query", query.String(), "user", user.Name)
	issues, err := e.engine.Search(user, query)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.SearchEngineError{Message: "search failed", Err: err}
	}
	return issues, nil
}
