package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps the history as a JSON document on disk.
type FileStore struct {
	path   string
	policy Policy
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewFileStore creates a file-backed store. loc decides calendar days for
// retention pruning.
func NewFileStore(path string, policy Policy, loc *time.Location, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &FileStore{
		path:   path,
		policy: policy,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// Path returns the file location.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the history file. A missing, empty or corrupt file yields an
// empty record.
func (fs *FileStore) Load(ctx context.Context) Record {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.logger.InfoContext(ctx, "no history file, starting fresh", "path", fs.path)
		} else {
			fs.logger.WarnContext(ctx, "failed to read history file", "path", fs.path, "error", err)
		}
		return Empty()
	}
	if len(data) == 0 {
		return Empty()
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		fs.logger.WarnContext(ctx, "history file is corrupt, ignoring it", "path", fs.path, "error", err)
		return Empty()
	}

	rec = Normalize(rec)
	fs.logger.DebugContext(ctx, "history loaded", "posts", len(rec.Posts), "days", len(rec.DailyCount))
	return rec
}

// Save prunes rec and replaces the file atomically through a temp file in
// the same directory.
func (fs *FileStore) Save(ctx context.Context, rec Record) error {
	rec = Prune(rec, fs.now(), fs.loc, fs.policy)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	fs.logger.DebugContext(ctx, "history saved", "path", fs.path, "posts", len(rec.Posts))
	return nil
}
