package mocks

import (
	"context"
	"iter"
	"time"

	"codeapi/internal/model"
	"codeapi/internal/repository"
	"codeapi/internal/tabular"

	"github.com/stretchr/testify/mock"
)

type MockCodeRepository struct {
	mock.Mock
}

func (m *MockCodeRepository) Count(ctx context.Context, ct model.CodeType, text string) (int, error) {
	args := m.Called(ctx, ct, text)
	return args.Int(0), args.Error(1)
}

func (m *MockCodeRepository) FindPage(ctx context.Context, ct model.CodeType, text string, pq repository.PageQuery) ([]model.Code, error) {
	args := m.Called(ctx, ct, text, pq)
	if f, ok := args.Get(0).(func(context.Context, model.CodeType, string, repository.PageQuery) []model.Code); ok {
		return f(ctx, ct, text, pq), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Code), args.Error(1)
}

func (m *MockCodeRepository) FindOne(ctx context.Context, ct model.CodeType, value string) (*model.Code, error) {
	args := m.Called(ctx, ct, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Code), args.Error(1)
}

type MockLastUpdateRepository struct {
	mock.Mock
}

func (m *MockLastUpdateRepository) LastETL(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

type MockSrsnamesRepository struct {
	mock.Mock
}

func (m *MockSrsnamesRepository) MaxLastRevDate(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockSrsnamesRepository) Stream(ctx context.Context) iter.Seq2[tabular.Record, error] {
	args := m.Called(ctx)
	return args.Get(0).(iter.Seq2[tabular.Record, error])
}
