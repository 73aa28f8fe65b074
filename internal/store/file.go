package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobalert-engine/internal/domain"
)

// FileBackend stores the seen set as a JSON object of key -> first-seen
// timestamp. A JSON array of keys (the legacy format) is accepted on load.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (f *FileBackend) String() string { return f.Path }

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) Load(ctx context.Context) (Snapshot, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(b)
}

func decodeSnapshot(b []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorrupt)
	}

	switch trimmed[0] {
	case '[':
		var keys []string
		if err := json.Unmarshal(trimmed, &keys); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		snap := make(Snapshot, len(keys))
		for _, k := range keys {
			snap[domain.JobKey(k)] = time.Time{}
		}
		return snap, nil
	case '{':
		snap := Snapshot{}
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return snap, nil
	default:
		return nil, fmt.Errorf("%w: unexpected leading byte %q", ErrCorrupt, trimmed[0])
	}
}

// Save writes to a temp file in the same directory, syncs it, keeps the
// previous snapshot as <path>.bak and renames the temp file over <path>.
// The target path always holds either the old or the new complete snapshot.
func (f *FileBackend) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}

	// Hard-link the current snapshot to .bak; never move it away, so there is
	// no moment without a file at Path.
	bak := f.Path + ".bak"
	if _, err := os.Stat(f.Path); err == nil {
		_ = os.Remove(bak)
		_ = os.Link(f.Path, bak)
	}

	if err := os.Rename(tmpName, f.Path); err != nil {
		cleanup()
		return err
	}
	syncDir(dir)
	return nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
