package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"jobalert-engine/internal/domain"
)

var (
	// ErrCorrupt marks stored content that exists but cannot be decoded.
	ErrCorrupt   = errors.New("seen store content is corrupt")
	ErrNotLoaded = errors.New("seen store has not been loaded")
)

// Snapshot maps each key to the time it was first seen. A zero time means
// unknown (keys migrated from the legacy list format).
type Snapshot map[domain.JobKey]time.Time

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Backend is the durable side of the seen set.
type Backend interface {
	// Load returns an empty snapshot and no error when nothing is stored yet,
	// and an error wrapping ErrCorrupt when content exists but is unreadable.
	Load(ctx context.Context) (Snapshot, error)
	// Save atomically replaces the stored content with snap.
	Save(ctx context.Context, snap Snapshot) error
	Close() error
	String() string
}

type LoadInfo struct {
	Keys     int
	FirstRun bool // nothing stored yet
	Corrupt  bool // stored content was unreadable and ignored
}

// Seen is the in-memory seen set plus its backend. Load, Merge and Persist
// are its only mutation surface.
type Seen struct {
	backend Backend

	mu     sync.Mutex
	set    Snapshot
	loaded bool
}

func NewSeen(b Backend) *Seen {
	return &Seen{backend: b, set: Snapshot{}}
}

// Load replaces the in-memory set with the persisted one. Missing or corrupt
// storage yields an empty set; only other read failures are returned.
func (s *Seen) Load(ctx context.Context) (LoadInfo, error) {
	snap, err := s.backend.Load(ctx)
	var info LoadInfo
	switch {
	case err == nil:
		info.FirstRun = len(snap) == 0
	case errors.Is(err, ErrCorrupt):
		log.Printf("[store] WARNING %s unreadable, starting from an empty seen set; duplicate alerts are possible: %v", s.backend, err)
		snap = Snapshot{}
		info.Corrupt = true
	default:
		return LoadInfo{}, fmt.Errorf("load seen store %s: %w", s.backend, err)
	}
	if info.FirstRun {
		log.Printf("[store] no prior state in %s; treating as first run", s.backend)
	}

	s.mu.Lock()
	s.set = snap
	s.loaded = true
	info.Keys = len(snap)
	s.mu.Unlock()
	return info, nil
}

func (s *Seen) Contains(k domain.JobKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[k]
	return ok
}

// Merge adds keys in memory and returns how many were new.
func (s *Seen) Merge(keys []domain.JobKey, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, k := range keys {
		if _, ok := s.set[k]; ok {
			continue
		}
		s.set[k] = at.UTC()
		added++
	}
	return added
}

func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}

// Persist writes the union of the stored snapshot and the in-memory set, so
// keys written by anyone since Load are never dropped.
func (s *Seen) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}

	onDisk, err := s.backend.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCorrupt):
		onDisk = nil
	default:
		return fmt.Errorf("persist: re-read %s: %w", s.backend, err)
	}

	merged := s.set.clone()
	for k, t := range onDisk {
		if cur, ok := merged[k]; !ok || (!t.IsZero() && t.Before(cur)) {
			merged[k] = t
		}
	}

	if err := s.backend.Save(ctx, merged); err != nil {
		return fmt.Errorf("persist %s: %w", s.backend, err)
	}
	s.set = merged
	return nil
}

// Prune removes keys first seen before cutoff and saves immediately. It is a
// maintenance operation; normal runs only ever grow the set. Keys with an
// unknown first-seen time are kept.
func (s *Seen) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	kept := make(Snapshot, len(s.set))
	removed := 0
	for k, t := range s.set {
		if !t.IsZero() && t.Before(cutoff) {
			removed++
			continue
		}
		kept[k] = t
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.backend.Save(ctx, kept); err != nil {
		return 0, fmt.Errorf("prune %s: %w", s.backend, err)
	}
	s.set = kept
	return removed, nil
}

func (s *Seen) Close() error {
	return s.backend.Close()
}
