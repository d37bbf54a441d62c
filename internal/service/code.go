package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"codeapi/internal/freshness"
	"codeapi/internal/model"
	"codeapi/internal/paging"
	"codeapi/internal/repository"
)

var ErrUnknownCodeType = errors.New("unknown code type")

// Status is the outcome of a lookup. Not-found and not-modified are normal
// outcomes, not errors.
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
	StatusNotModified
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusNotModified:
		return "not_modified"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// CodeResult is the outcome of a single-code lookup. Code is only set when
// Status is StatusFound. LastModified is the data load time at HTTP (whole
// second) resolution, zero when no load has been recorded.
type CodeResult struct {
	Status       Status
	Code         model.Code
	LastModified time.Time
}

// ListResult is the outcome of a list lookup. List is only set when Status
// is StatusFound.
type ListResult struct {
	Status       Status
	List         model.CodeList
	LastModified time.Time
}

// CodeService defines the reference code lookups.
type CodeService interface {
	// Get looks up one code by exact value.
	Get(ctx context.Context, ct model.CodeType, value string, ifModifiedSince *time.Time) (CodeResult, error)

	// List returns one page of the codes matching q.Text together with the
	// total number of matches.
	List(ctx context.Context, ct model.CodeType, q paging.Query, ifModifiedSince *time.Time) (ListResult, error)
}

// codeService is a concrete implementation of CodeService.
type codeService struct {
	repo    repository.CodeRepository
	clock   repository.LastUpdateRepository
	tracer  trace.Tracer
	metrics *Metrics
}

// Option customizes a service.
type Option func(*codeService)

// WithMetrics records lookup outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(s *codeService) { s.metrics = m }
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *codeService) { s.tracer = t }
}

// NewCodeService constructs a new CodeService.
func NewCodeService(repo repository.CodeRepository, clock repository.LastUpdateRepository, opts ...Option) CodeService {
	s := &codeService{
		repo:   repo,
		clock:  clock,
		tracer: otel.Tracer("codeapi/internal/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lastModified reads the data load time and reports whether the client copy
// is still current.
func (s *codeService) lastModified(ctx context.Context, ifModifiedSince *time.Time) (time.Time, bool, error) {
	last, err := s.clock.LastETL(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read last etl: %w", err)
	}
	if last.IsZero() {
		return time.Time{}, false, nil
	}
	last = freshness.HTTPResolution(last)
	return last, freshness.IsFresh(ifModifiedSince, last), nil
}

func (s *codeService) Get(ctx context.Context, ct model.CodeType, value string, ifModifiedSince *time.Time) (res CodeResult, err error) {
	ctx, span := s.tracer.Start(ctx, "CodeService.Get", trace.WithAttributes(
		attribute.String("code.type", ct.String()),
		attribute.String("code.value", value),
	))
	defer func() { s.finish(span, ct, res.Status, err) }()

	if !ct.Valid() {
		return CodeResult{}, fmt.Errorf("%w: %q", ErrUnknownCodeType, string(ct))
	}

	last, fresh, err := s.lastModified(ctx, ifModifiedSince)
	if err != nil {
		return CodeResult{}, err
	}
	if fresh {
		return CodeResult{Status: StatusNotModified, LastModified: last}, nil
	}
	if value == "" {
		return CodeResult{Status: StatusNotFound, LastModified: last}, nil
	}

	code, err := s.repo.FindOne(ctx, ct, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CodeResult{Status: StatusNotFound, LastModified: last}, nil
		}
		return CodeResult{}, err
	}
	return CodeResult{Status: StatusFound, Code: *code, LastModified: last}, nil
}

// List counts and fetches with the same type and filter. The two reads are
// not atomic; a reload between them can make the count disagree with the page.
func (s *codeService) List(ctx context.Context, ct model.CodeType, q paging.Query, ifModifiedSince *time.Time) (res ListResult, err error) {
	ctx, span := s.tracer.Start(ctx, "CodeService.List", trace.WithAttributes(
		attribute.String("code.type", ct.String()),
		attribute.String("code.text", q.Text),
		attribute.Int("page.offset", q.Page.Offset),
		attribute.Int("page.limit", q.Page.Limit),
	))
	defer func() { s.finish(span, ct, res.Status, err) }()

	if !ct.Valid() {
		return ListResult{}, fmt.Errorf("%w: %q", ErrUnknownCodeType, string(ct))
	}

	last, fresh, err := s.lastModified(ctx, ifModifiedSince)
	if err != nil {
		return ListResult{}, err
	}
	if fresh {
		return ListResult{Status: StatusNotModified, LastModified: last}, nil
	}

	total, err := s.repo.Count(ctx, ct, q.Text)
	if err != nil {
		return ListResult{}, err
	}
	page, err := s.repo.FindPage(ctx, ct, q.Text, repository.PageQuery{
		Limit:  q.Page.Limit,
		Offset: q.Page.Offset,
	})
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Status:       StatusFound,
		List:         model.CodeList{Codes: page, RecordCount: total},
		LastModified: last,
	}, nil
}

func (s *codeService) finish(span trace.Span, ct model.CodeType, status Status, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.observe(ct, "error")
		return
	}
	span.SetAttributes(attribute.String("lookup.status", status.String()))
	s.metrics.observe(ct, status.String())
}
