package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"codeapi/internal/model"
	"codeapi/internal/paging"
	"codeapi/internal/repository"
	repoMocks "codeapi/internal/repository/mocks"
)

var loadedAt = time.Date(2024, 3, 1, 8, 30, 15, 500_000_000, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestCodeService_Get(t *testing.T) {
	ctx := context.Background()
	truncated := loadedAt.Truncate(time.Second)

	t.Run("found", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		code := &model.Code{Value: "US", Desc: "UNITED STATES OF AMERICA"}
		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("FindOne", mock.Anything, model.CountryCode, "US").Return(code, nil).Once()

		res, err := svc.Get(ctx, model.CountryCode, "US", nil)
		require.NoError(t, err)
		assert.Equal(t, StatusFound, res.Status)
		assert.Equal(t, *code, res.Code)
		assert.Equal(t, truncated, res.LastModified)
		repo.AssertExpectations(t)
		clock.AssertExpectations(t)
	})

	t.Run("not modified skips the repository", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		// the header carries whole seconds only
		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()

		res, err := svc.Get(ctx, model.CountryCode, "US", ptr(truncated))
		require.NoError(t, err)
		assert.Equal(t, StatusNotModified, res.Status)
		assert.Equal(t, truncated, res.LastModified)
		repo.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stale client copy", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("FindOne", mock.Anything, model.CountryCode, "US").Return(&model.Code{Value: "US"}, nil).Once()

		res, err := svc.Get(ctx, model.CountryCode, "US", ptr(truncated.Add(-time.Second)))
		require.NoError(t, err)
		assert.Equal(t, StatusFound, res.Status)
	})

	t.Run("missing row", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("FindOne", mock.Anything, model.CountryCode, "ZZ").
			Return(nil, fmt.Errorf("find code: %w", sql.ErrNoRows)).Once()

		res, err := svc.Get(ctx, model.CountryCode, "ZZ", nil)
		require.NoError(t, err)
		assert.Equal(t, StatusNotFound, res.Status)
		assert.Equal(t, model.Code{}, res.Code)
	})

	t.Run("empty value is not found", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()

		res, err := svc.Get(ctx, model.CountryCode, "", nil)
		require.NoError(t, err)
		assert.Equal(t, StatusNotFound, res.Status)
		repo.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no load recorded is never fresh", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		clock.On("LastETL", mock.Anything).Return(time.Time{}, nil).Once()
		repo.On("FindOne", mock.Anything, model.SiteType, "ST").Return(&model.Code{Value: "ST"}, nil).Once()

		res, err := svc.Get(ctx, model.SiteType, "ST", ptr(time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		assert.Equal(t, StatusFound, res.Status)
		assert.True(t, res.LastModified.IsZero())
	})

	t.Run("unknown code type", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		_, err := svc.Get(ctx, model.CodeType("bogus"), "x", nil)
		assert.ErrorIs(t, err, ErrUnknownCodeType)
		clock.AssertNotCalled(t, "LastETL", mock.Anything)
	})

	t.Run("clock error", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		boom := errors.New("db down")
		clock.On("LastETL", mock.Anything).Return(time.Time{}, boom).Once()

		_, err := svc.Get(ctx, model.CountryCode, "US", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		boom := errors.New("db down")
		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("FindOne", mock.Anything, model.CountryCode, "US").Return(nil, boom).Once()

		_, err := svc.Get(ctx, model.CountryCode, "US", nil)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCodeService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("count and page use the same filter", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		page := []model.Code{{Value: "US"}, {Value: "UY"}}
		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("Count", mock.Anything, model.CountryCode, "u").Return(42, nil).Once()
		repo.On("FindPage", mock.Anything, model.CountryCode, "u", repository.PageQuery{Limit: 15, Offset: 4}).
			Return(page, nil).Once()

		q := paging.Query{Text: "u", Page: paging.PageRequest{Offset: 4, Limit: 15}}
		res, err := svc.List(ctx, model.CountryCode, q, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusFound, res.Status)
		assert.Equal(t, 42, res.List.RecordCount)
		assert.Equal(t, page, res.List.Codes)
		repo.AssertExpectations(t)
	})

	t.Run("empty page keeps the total", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("Count", mock.Anything, model.StateCode, "").Return(3, nil).Once()
		repo.On("FindPage", mock.Anything, model.StateCode, "", repository.PageQuery{Limit: 100, Offset: 50}).
			Return([]model.Code{}, nil).Once()

		q := paging.Query{Page: paging.PageRequest{Offset: 50, Limit: 100}}
		res, err := svc.List(ctx, model.StateCode, q, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, res.List.RecordCount)
		assert.Empty(t, res.List.Codes)
	})

	t.Run("not modified skips the repository", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()

		res, err := svc.List(ctx, model.CountryCode, paging.Query{}, ptr(loadedAt.Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, StatusNotModified, res.Status)
		repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "FindPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("count error", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		boom := errors.New("count failed")
		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("Count", mock.Anything, model.CountryCode, "").Return(0, boom).Once()

		_, err := svc.List(ctx, model.CountryCode, paging.Query{Page: paging.PageRequest{Limit: 10}}, nil)
		assert.ErrorIs(t, err, boom)
		repo.AssertNotCalled(t, "FindPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("page error", func(t *testing.T) {
		repo := new(repoMocks.MockCodeRepository)
		clock := new(repoMocks.MockLastUpdateRepository)
		svc := NewCodeService(repo, clock)

		boom := errors.New("page failed")
		clock.On("LastETL", mock.Anything).Return(loadedAt, nil).Once()
		repo.On("Count", mock.Anything, model.CountryCode, "").Return(5, nil).Once()
		repo.On("FindPage", mock.Anything, model.CountryCode, "", mock.Anything).Return(nil, boom).Once()

		_, err := svc.List(ctx, model.CountryCode, paging.Query{Page: paging.PageRequest{Limit: 10}}, nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unknown code type", func(t *testing.T) {
		svc := NewCodeService(new(repoMocks.MockCodeRepository), new(repoMocks.MockLastUpdateRepository))
		_, err := svc.List(ctx, model.CodeType(""), paging.Query{}, nil)
		assert.ErrorIs(t, err, ErrUnknownCodeType)
	})
}

func TestCodeService_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	repo := new(repoMocks.MockCodeRepository)
	clock := new(repoMocks.MockLastUpdateRepository)
	svc := NewCodeService(repo, clock, WithMetrics(m))

	clock.On("LastETL", mock.Anything).Return(loadedAt, nil)
	repo.On("FindOne", mock.Anything, model.CountryCode, "US").Return(&model.Code{Value: "US"}, nil)
	repo.On("FindOne", mock.Anything, model.CountryCode, "ZZ").Return(nil, sql.ErrNoRows)

	_, _ = svc.Get(context.Background(), model.CountryCode, "US", nil)
	_, _ = svc.Get(context.Background(), model.CountryCode, "US", nil)
	_, _ = svc.Get(context.Background(), model.CountryCode, "ZZ", nil)
	_, _ = svc.Get(context.Background(), model.CountryCode, "US", ptr(loadedAt))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookups.WithLabelValues("countrycode", "found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("countrycode", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("countrycode", "not_modified")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "duplicate registration must fail")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "found", StatusFound.String())
	assert.Equal(t, "not_found", StatusNotFound.String())
	assert.Equal(t, "not_modified", StatusNotModified.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
