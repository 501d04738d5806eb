package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

// RecordingSource fetches from upstream and keeps a copy of every document
// in dir, in the layout ReplaySource reads.
type RecordingSource struct {
	upstream repository.FeedSource
	dir      string
	log      *applogger.Logger
}

// NewRecordingSource decorates upstream.
func NewRecordingSource(upstream repository.FeedSource, dir string, l *applogger.Logger) *RecordingSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &RecordingSource{upstream: upstream, dir: dir, log: l}
}

// Fetch returns the upstream document. A failed write is logged and does not
// fail the fetch.
func (s *RecordingSource) Fetch(ctx context.Context, req repository.FeedRequest) ([]byte, error) {
	b, err := s.upstream.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.record(req.Kind, b); err != nil {
		s.log.Warn("recording feed document failed",
			applogger.String("kind", string(req.Kind)),
			applogger.Error(err),
		)
	} else {
		s.log.Debug("feed document recorded",
			applogger.String("kind", string(req.Kind)),
			applogger.Int("bytes", len(b)),
		)
	}
	return b, nil
}

// record writes through a temp file so a reader never sees a partial document.
func (s *RecordingSource) record(kind repository.FeedKind, b []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create replay dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+string(kind)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(tmp.Name()), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), DocumentPath(s.dir, kind))
}

var _ repository.FeedSource = (*RecordingSource)(nil)
