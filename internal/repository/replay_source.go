package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"FinSignal/internal/domain/repository"
)

// DocumentPath is where the document of kind is recorded under dir.
func DocumentPath(dir string, kind repository.FeedKind) string {
	return filepath.Join(dir, string(kind)+".json")
}

// ReplaySource serves previously recorded documents from a directory. It
// ignores the requested tickers; a ticker missing from the recording is absent.
type ReplaySource struct {
	dir string
}

// NewReplaySource creates a replay source rooted at dir.
func NewReplaySource(dir string) *ReplaySource {
	return &ReplaySource{dir: dir}
}

func (s *ReplaySource) Fetch(ctx context.Context, req repository.FeedRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := DocumentPath(s.dir, req.Kind)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", req.Kind, err)
	}
	return b, nil
}

var _ repository.FeedSource = (*ReplaySource)(nil)
