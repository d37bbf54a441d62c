package service

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"codeapi/internal/logging"
	"codeapi/internal/repository"
	"codeapi/internal/storage"
	"codeapi/internal/tabular"
)

var ErrMimeTypeRequired = errors.New("mimeType is required: json or csv")

const archiveContentType = "application/zip"

// ArchiveName is the base name of the export for a revision date, without
// extension.
func ArchiveName(rev time.Time) string {
	return "public_srsnames_" + rev.Format("20060102")
}

// ArchiveKey is the object key a published archive is stored under.
func ArchiveKey(rev time.Time) string {
	return "srsnames/" + ArchiveName(rev) + ".zip"
}

// SrsnamesService exports the public SRS names table.
type SrsnamesService interface {
	// LastRevision returns the newest revision date in the table.
	LastRevision(ctx context.Context) (time.Time, error)

	// WriteJSON streams {"maxLastRevDate":..., "pcodes":[...]} to w.
	WriteJSON(ctx context.Context, w io.Writer, rev time.Time) error

	// WriteArchive streams a zip holding one csv entry to w.
	WriteArchive(ctx context.Context, w io.Writer, rev time.Time) error

	// OpenPublished returns the published archive for rev. It returns
	// storage.ErrObjectNotFound when nothing was published or no store is
	// configured.
	OpenPublished(ctx context.Context, rev time.Time) (io.ReadCloser, storage.ObjectInfo, error)

	// Publish renders the archive for the current revision and uploads it.
	// An archive already published for that revision is kept unless force
	// is set.
	Publish(ctx context.Context, force bool) (storage.ObjectInfo, error)
}

type srsnamesService struct {
	repo   repository.SrsnamesRepository
	store  storage.Storage
	tracer trace.Tracer
}

// NewSrsnamesService constructs a new SrsnamesService. store may be nil.
func NewSrsnamesService(repo repository.SrsnamesRepository, store storage.Storage) SrsnamesService {
	return &srsnamesService{
		repo:   repo,
		store:  store,
		tracer: otel.Tracer("codeapi/internal/service"),
	}
}

func (s *srsnamesService) LastRevision(ctx context.Context) (time.Time, error) {
	rev, err := s.repo.MaxLastRevDate(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("read last revision: %w", err)
	}
	return rev, nil
}

func (s *srsnamesService) WriteJSON(ctx context.Context, w io.Writer, rev time.Time) (err error) {
	ctx, span := s.tracer.Start(ctx, "SrsnamesService.WriteJSON")
	defer func() { endSpan(span, err) }()

	bw := bufio.NewWriter(w)
	head, err := json.Marshal(rev.Format(time.DateOnly))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, `{"maxLastRevDate":%s,"pcodes":[`, head); err != nil {
		return err
	}

	n := 0
	for rec, err := range s.repo.Stream(ctx) {
		if err != nil {
			return err
		}
		if n > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", n, err)
		}
		if _, err := bw.Write(b); err != nil {
			return err
		}
		n++
	}
	if _, err := bw.WriteString("]}"); err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("srsnames.records", n))
	return bw.Flush()
}

func (s *srsnamesService) WriteArchive(ctx context.Context, w io.Writer, rev time.Time) (err error) {
	ctx, span := s.tracer.Start(ctx, "SrsnamesService.WriteArchive")
	defer func() { endSpan(span, err) }()

	zw := zip.NewWriter(w)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ArchiveName(rev) + ".csv",
		Method:   zip.Deflate,
		Modified: rev,
	})
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}
	if err := tabular.Render(entry, s.repo.Stream(ctx)); err != nil {
		return fmt.Errorf("render srsnames: %w", err)
	}
	return zw.Close()
}

func (s *srsnamesService) OpenPublished(ctx context.Context, rev time.Time) (io.ReadCloser, storage.ObjectInfo, error) {
	if s.store == nil {
		return nil, storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return s.store.Get(ctx, ArchiveKey(rev))
}

// Publish pipes the rendered archive straight into the upload so nothing
// touches local disk.
func (s *srsnamesService) Publish(ctx context.Context, force bool) (info storage.ObjectInfo, err error) {
	ctx, span := s.tracer.Start(ctx, "SrsnamesService.Publish")
	defer func() { endSpan(span, err) }()

	if s.store == nil {
		return storage.ObjectInfo{}, errors.New("object storage is not configured")
	}
	rev, err := s.LastRevision(ctx)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if rev.IsZero() {
		return storage.ObjectInfo{}, errors.New("public_srsnames is empty")
	}

	key := ArchiveKey(rev)
	if !force {
		existing, err := s.store.Stat(ctx, key)
		if err == nil {
			logging.FromContext(ctx).Info().Str("key", key).Msg("srsnames archive already published")
			return existing, nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return storage.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
		}
	}

	pr, pw := io.Pipe()
	rendered := make(chan error, 1)
	go func() {
		err := s.WriteArchive(ctx, pw, rev)
		pw.CloseWithError(err)
		rendered <- err
	}()

	info, err = s.store.Put(ctx, key, pr, storage.PutObjectOptions{
		Size:        -1,
		ContentType: archiveContentType,
		Metadata:    map[string]string{"last-rev-date": rev.Format(time.DateOnly)},
	})
	// unblocks the writer if the upload stopped reading early
	pr.Close()
	renderErr := <-rendered
	if renderErr != nil && err == nil {
		err = renderErr
	}
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload %s: %w", key, err)
	}

	logging.FromContext(ctx).Info().
		Str("key", key).
		Int64("size", info.Size).
		Msg("srsnames archive published")
	return info, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
