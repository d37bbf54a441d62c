package mocks

import (
	"context"
	"io"
	"time"

	"codeapi/internal/model"
	"codeapi/internal/paging"
	"codeapi/internal/service"
	"codeapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockCodeService struct {
	mock.Mock
}

func (m *MockCodeService) Get(ctx context.Context, ct model.CodeType, value string, ifModifiedSince *time.Time) (service.CodeResult, error) {
	args := m.Called(ctx, ct, value, ifModifiedSince)
	return args.Get(0).(service.CodeResult), args.Error(1)
}

func (m *MockCodeService) List(ctx context.Context, ct model.CodeType, q paging.Query, ifModifiedSince *time.Time) (service.ListResult, error) {
	args := m.Called(ctx, ct, q, ifModifiedSince)
	return args.Get(0).(service.ListResult), args.Error(1)
}

type MockSrsnamesService struct {
	mock.Mock
}

func (m *MockSrsnamesService) LastRevision(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

// WriteJSON writes the string returned as the first value, if any.
func (m *MockSrsnamesService) WriteJSON(ctx context.Context, w io.Writer, rev time.Time) error {
	args := m.Called(ctx, w, rev)
	if s, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, s)
	}
	return args.Error(1)
}

// WriteArchive writes the bytes returned as the first value, if any.
func (m *MockSrsnamesService) WriteArchive(ctx context.Context, w io.Writer, rev time.Time) error {
	args := m.Called(ctx, w, rev)
	if b, ok := args.Get(0).([]byte); ok {
		_, _ = w.Write(b)
	}
	return args.Error(1)
}

func (m *MockSrsnamesService) OpenPublished(ctx context.Context, rev time.Time) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, rev)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockSrsnamesService) Publish(ctx context.Context, force bool) (storage.ObjectInfo, error) {
	args := m.Called(ctx, force)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}
