package handler

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"codeapi/internal/logging"
	"codeapi/internal/service"
	"codeapi/internal/storage"
)

const exportChunk = 32 << 10

// PublicSrsnames serves GET /publicsrsnames?mimeType=json|csv. The export is
// streamed. A failure before the first chunk is ready still maps to 500; a
// later one cuts the body short.
func PublicSrsnames(svc service.SrsnamesService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mt := mimeTypeParam(c)
		if mt != "json" && mt != "csv" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_MIME_TYPE", service.ErrMimeTypeRequired.Error())
		}

		rev, err := svc.LastRevision(c.UserContext())
		if err != nil {
			return internalError(c, err, "srsnames revision failed")
		}

		// the body is written after the handler returns
		ctx, cancel := detach(c.UserContext())

		if mt == "json" {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return streamExport(ctx, cancel, c, func(ctx context.Context, w io.Writer) error {
				return svc.WriteJSON(ctx, w, rev)
			})
		}

		c.Attachment(service.ArchiveName(rev) + ".zip")
		if rc, info, ok := openPublished(ctx, svc, rev); ok {
			size := -1
			if info.Size > 0 {
				size = int(info.Size)
			}
			return c.SendStream(&exportStream{
				Reader: rc,
				log:    logging.FromContext(ctx),
				close: func() error {
					defer cancel()
					return rc.Close()
				},
			}, size)
		}
		return streamExport(ctx, cancel, c, func(ctx context.Context, w io.Writer) error {
			return svc.WriteArchive(ctx, w, rev)
		})
	}
}

// detach keeps ctx's values and deadline but not its cancellation.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if dl, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, dl)
	}
	return context.WithCancel(base)
}

// openPublished opens the published archive for rev. Any failure falls back
// to rendering.
func openPublished(ctx context.Context, svc service.SrsnamesService, rev time.Time) (io.ReadCloser, storage.ObjectInfo, bool) {
	rc, info, err := svc.OpenPublished(ctx, rev)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			logging.FromContext(ctx).Warn().Err(err).Msg("published srsnames archive unavailable")
		}
		return nil, storage.ObjectInfo{}, false
	}
	return rc, info, true
}

// streamExport runs render in the background and sends its output as the
// body. It waits for the first chunk so an early error is returned to the
// caller instead of being streamed.
func streamExport(ctx context.Context, cancel context.CancelFunc, c *fiber.Ctx, render func(context.Context, io.Writer) error) error {
	pr, pw := io.Pipe()
	go func() {
		bw := bufio.NewWriterSize(pw, exportChunk)
		err := render(ctx, bw)
		if err == nil {
			err = bw.Flush()
		}
		pw.CloseWithError(err)
	}()

	br := bufio.NewReaderSize(pr, exportChunk)
	if _, err := br.Peek(1); err != nil && !errors.Is(err, io.EOF) {
		pr.CloseWithError(err)
		cancel()
		c.Response().Header.Del(fiber.HeaderContentDisposition)
		return internalError(c, err, "srsnames export failed")
	}
	return c.SendStream(&exportStream{
		Reader: br,
		log:    logging.FromContext(ctx),
		close: func() error {
			defer cancel()
			return pr.Close()
		},
	})
}

// exportStream is handed to fasthttp, which closes it once the body is
// written or the client goes away.
type exportStream struct {
	io.Reader
	log    *zerolog.Logger
	close  func() error
	failed bool
}

func (s *exportStream) Read(p []byte) (int, error) {
	n, err := s.Reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && !s.failed {
		s.failed = true
		s.log.Error().Err(err).Msg("srsnames export interrupted")
	}
	return n, err
}

func (s *exportStream) Close() error {
	return s.close()
}
