// Package store keeps the in-memory record collection and mirrors it to a
// persistent backend after every mutation. The collection preserves insertion
// order and assigns each record a unique monotonic id used as the deletion
// key.
package store

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	agility "agility-analyzer"
)

// Store is the persistence backend. Load must tolerate an empty or missing
// store by returning an empty slice, never an error for absence.
type Store interface {
	Load() ([]agility.PerformanceRecord, error)
	Save([]agility.PerformanceRecord) error
}

// Collection is the ordered in-memory record set. It is not safe for
// concurrent use; callers run single-threaded.
type Collection struct {
	backend Store
	log     logrus.FieldLogger
	records []agility.PerformanceRecord
	lastID  int64
}

// Open builds a Collection over backend and loads whatever it holds. A nil
// log falls back to the standard logrus logger.
func Open(backend Store, log logrus.FieldLogger) (*Collection, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Collection{backend: backend, log: log}

	records, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	c.records = records
	for _, r := range records {
		if r.ID > c.lastID {
			c.lastID = r.ID
		}
	}
	return c, nil
}

// nextID assigns creation-timestamp ids, bumped past the last issued id so
// two records created in the same millisecond stay distinct.
func (c *Collection) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

// Add assigns rec an id, appends it, and mirrors to the backend. The
// assigned id is returned.
func (c *Collection) Add(rec agility.PerformanceRecord) int64 {
	rec.ID = c.nextID()
	c.records = append(c.records, rec)
	c.mirror()
	return rec.ID
}

// AddAll appends a batch in order, assigning ids, and mirrors once at the
// end. From the caller's perspective the batch is one atomic operation.
func (c *Collection) AddAll(recs []agility.PerformanceRecord) {
	for _, rec := range recs {
		rec.ID = c.nextID()
		c.records = append(c.records, rec)
	}
	c.mirror()
}

// DeleteByID removes the record with the given id and reports whether it
// existed.
func (c *Collection) DeleteByID(id int64) bool {
	for i, r := range c.records {
		if r.ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			c.mirror()
			return true
		}
	}
	return false
}

// DeleteBySubject removes every record of one subject and returns the count.
func (c *Collection) DeleteBySubject(subjectID string) int {
	return c.deleteWhere(func(r agility.PerformanceRecord) bool { return r.SubjectID == subjectID })
}

// DeleteByDate removes every record with the given date string.
func (c *Collection) DeleteByDate(date string) int {
	return c.deleteWhere(func(r agility.PerformanceRecord) bool { return r.Date == date })
}

// DeleteByStage removes every record at the given stage.
func (c *Collection) DeleteByStage(stage int) int {
	return c.deleteWhere(func(r agility.PerformanceRecord) bool { return r.Stage == stage })
}

func (c *Collection) deleteWhere(match func(agility.PerformanceRecord) bool) int {
	kept := c.records[:0]
	removed := 0
	for _, r := range c.records {
		if match(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	c.records = kept
	if removed > 0 {
		c.mirror()
	}
	return removed
}

// Clear empties the collection.
func (c *Collection) Clear() {
	c.records = c.records[:0]
	c.mirror()
}

// Records returns the collection in insertion order. The slice is a copy;
// mutating it does not affect the collection.
func (c *Collection) Records() []agility.PerformanceRecord {
	out := make([]agility.PerformanceRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Subjects returns the distinct subject ids in first-seen order.
func (c *Collection) Subjects() []string {
	return agility.Subjects(c.records)
}

// Len returns the record count.
func (c *Collection) Len() int { return len(c.records) }

// mirror pushes the current state to the backend. A save failure is logged
// and does not corrupt the in-memory state.
func (c *Collection) mirror() {
	if err := c.backend.Save(c.records); err != nil {
		c.log.WithError(err).Warn("failed to mirror records to store")
	}
}
