package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spec-kit/tokenchain/internal/domain"
)

// Fixed output file names, one per persisted stage.
const (
	TicketFile   = "level_0_token_aka_ticket.txt"
	CoreFile     = "core_api_token.txt"
	AudienceFile = "live_api_tokens.txt"
)

var stageFiles = map[domain.Stage]string{
	domain.StageTicket: TicketFile,
	domain.StageCore:   CoreFile,
	domain.StageLive:   AudienceFile,
}

// FileStore dumps stage payloads to fixed files under a directory,
// overwriting on every run.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore builds a store rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	return &FileStore{dir: dir, logger: logger}
}

// Path returns where the payload of stage is written.
func (f *FileStore) Path(stage domain.Stage) string {
	name, ok := stageFiles[stage]
	if !ok {
		return ""
	}
	return filepath.Join(f.dir, name)
}

// Save writes the payload indented with four spaces.
func (f *FileStore) Save(_ context.Context, payload domain.StagePayload) error {
	path := f.Path(payload.Stage)
	if path == "" {
		return fmt.Errorf("no output file for stage %q", payload.Stage)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, payload.Body, "", "    "); err != nil {
		return fmt.Errorf("indent payload: %w", err)
	}

	f.logger.Info("saving payload", zap.String("stage", string(payload.Stage)), zap.String("file", path))
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	f.logger.Info("saved payload", zap.String("stage", string(payload.Stage)), zap.String("file", path))
	return nil
}
