package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
	"github.com/kailas-cloud/kgclient/internal/logger"
)

const (
	// DefaultPattern selects template files below an upload directory.
	DefaultPattern = "**/*.json"

	checksumPattern = "**/*.chksum"
	clearPageSize   = 999999
)

// DirectoryOptions control UploadDirectory.
type DirectoryOptions struct {
	// Pattern is a doublestar glob relative to the directory. Empty means DefaultPattern.
	Pattern string
	// Schema applies to schema and context uploads.
	Schema SchemaOptions
	// FailIfMissing aborts an instance file whose references cannot be resolved.
	FailIfMissing bool
}

// FileOutcome reports the upload of one file. Err is set when the file was aborted.
type FileOutcome struct {
	Path     string
	Action   Action
	Entity   *entity.Entity
	Revision int
	Err      error
}

// UploadDirectory uploads every matching file below dir in lexical order. A failing file is
// recorded in its outcome and the walk goes on; only an unreadable directory fails the call.
func (s *Service) UploadDirectory(
	ctx context.Context, kind entity.Kind, dir string, opts DirectoryOptions,
) ([]FileOutcome, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("pattern %q: %w", pattern, domain.ErrInvalidArgument)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(matches)

	ctx = logger.WithBatch(ctx, s.logger, uuid.NewString())
	s.log(ctx).Info("Uploading directory", zap.String("dir", dir), zap.Stringer("kind", kind), zap.Int("files", len(matches)))

	outcomes := make([]FileOutcome, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		path := filepath.Join(dir, filepath.FromSlash(m))
		outcome := s.uploadFile(ctx, kind, path, opts)
		if outcome.Err != nil {
			s.log(ctx).Error("Upload failed", zap.String("file", path), zap.Error(outcome.Err))
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *Service) uploadFile(ctx context.Context, kind entity.Kind, path string, opts DirectoryOptions) FileOutcome {
	out := FileOutcome{Path: path}
	switch kind {
	case entity.KindSchema, entity.KindContext:
		data, action, err := s.createVersionedByFile(ctx, kind, path, opts.Schema)
		if err != nil {
			out.Err = err
			return out
		}
		out.Action, out.Revision = action, data.Revision
	case entity.KindInstance:
		res, err := s.CreateInstanceByFile(ctx, path, opts.FailIfMissing)
		if err != nil {
			out.Err = err
			return out
		}
		out.Action, out.Entity = res.Action, res.Entity
		if res.Entity != nil {
			out.Revision, _ = res.Entity.Revision()
		}
	default:
		out.Err = fmt.Errorf("%s files can not be uploaded: %w", kind, domain.ErrInvalidArgument)
	}
	return out
}

// Failed returns the outcomes that carry an error, joined.
func Failed(outcomes []FileOutcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Path, o.Err))
		}
	}
	return errors.Join(errs...)
}

// ClearAllChecksums removes every checksum marker below dir and returns how many were removed.
func ClearAllChecksums(dir string) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), checksumPattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	for i, m := range matches {
		if err := os.Remove(filepath.Join(dir, filepath.FromSlash(m))); err != nil {
			return i, fmt.Errorf("remove checksum marker: %w", err)
		}
	}
	return len(matches), nil
}

func (s *Service) markerFor(path string, doc map[string]any) (string, error) {
	sum := entity.ChecksumOf(doc)
	if sum == "" {
		return "", fmt.Errorf("checksum %s: %w", path, domain.ErrInvalidArgument)
	}
	return fmt.Sprintf("%s.%s.chksum", path, sum), nil
}

func listAll(subpath string) request.List {
	return request.List{Subpath: subpath, Size: clearPageSize}
}
