package runner

import (
	"sync"

	"facerate-go/internal/timeline"
)

// Data is the ordered history of finished steps.
type Data struct {
	mu      sync.RWMutex
	records []Record
}

func (d *Data) add(rec Record) {
	d.mu.Lock()
	d.records = append(d.records, rec)
	d.mu.Unlock()
}

// All returns every record in completion order.
func (d *Data) All() []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Filter returns the records of one step kind in completion order.
func (d *Data) Filter(kind timeline.Kind) []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Record
	for _, rec := range d.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// Count returns the number of records.
func (d *Data) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}
