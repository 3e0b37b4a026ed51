// Package catalog maintains the ordered, persisted collection of puzzle
// records and its merge-update semantics. All mutations are serialized
// through a single Catalog owner so a background crawl cannot race a
// foreground merge.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/liamcryan/ieuler/internal/models"
)

// ErrNotFound reports a puzzle id beyond the catalog length.
var ErrNotFound = errors.New("puzzle not found in catalog")

// Persister is the subset of the store the catalog needs.
type Persister interface {
	Problems() ([]models.PuzzleRecord, error)
	SaveProblems([]models.PuzzleRecord) error
}

// Catalog is the in-memory catalog backed by a persister. The slice is
// dense: records[i].ID == i+1 for every slot.
type Catalog struct {
	mu      sync.Mutex
	store   Persister
	records []models.PuzzleRecord
}

// New returns an empty catalog backed by the given persister.
func New(store Persister) *Catalog {
	return &Catalog{store: store}
}

// Load populates the catalog from the persister. A missing or corrupt
// catalog file yields an empty catalog.
func (c *Catalog) Load() error {
	records, err := c.store.Problems()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Get returns the stored record for id, or ErrNotFound when id exceeds
// the catalog length.
func (c *Catalog) Get(id int) (models.PuzzleRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 1 || id > len(c.records) {
		return models.PuzzleRecord{}, fmt.Errorf("puzzle %d: %w", id, ErrNotFound)
	}
	return c.records[id-1].Clone(), nil
}

// MergeUpdate merges the incoming records into the catalog in increasing
// id order and persists the whole sequence exactly once. Existing slots
// are field-merged; ids just past the end are appended; a gap beyond the
// end is padded with id-only placeholders so the dense-index invariant
// holds, letting a later crawl fill them in. If persisting fails the
// in-memory state is rolled back and the previously persisted catalog
// remains authoritative.
func (c *Catalog) MergeUpdate(records []models.PuzzleRecord) error {
	if len(records) == 0 {
		return nil
	}
	incoming := make([]models.PuzzleRecord, len(records))
	copy(incoming, records)
	sort.SliceStable(incoming, func(i, j int) bool { return incoming[i].ID < incoming[j].ID })

	c.mu.Lock()
	defer c.mu.Unlock()

	// Deep-copy the committed records: Merge writes into Code maps, and a
	// shared map would let an abandoned update leak into the committed
	// state when the save below fails.
	prior := c.records
	next := make([]models.PuzzleRecord, len(prior))
	for i, r := range prior {
		next[i] = r.Clone()
	}

	for _, r := range incoming {
		if r.ID < 1 {
			return fmt.Errorf("merge update: invalid puzzle id %d", r.ID)
		}
		for r.ID > len(next)+1 {
			next = append(next, models.PuzzleRecord{ID: len(next) + 1})
		}
		if r.ID <= len(next) {
			models.Merge(&next[r.ID-1], r)
		} else {
			var stored models.PuzzleRecord
			models.Merge(&stored, r)
			next = append(next, stored)
		}
	}

	if err := c.store.SaveProblems(next); err != nil {
		return fmt.Errorf("merge update not persisted: %w", err)
	}
	c.records = next
	return nil
}

// Snapshot returns a copy of all stored records. Code maps are copied
// too, so callers cannot mutate catalog state through the result.
func (c *Catalog) Snapshot() []models.PuzzleRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.PuzzleRecord, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	return out
}

// SyncRecords returns the sync projection of every record that carries
// progress or code, in id order.
func (c *Catalog) SyncRecords() []models.SyncRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.SyncRecord
	for _, r := range c.records {
		if s, ok := models.ProjectSync(r); ok {
			out = append(out, s)
		}
	}
	return out
}
