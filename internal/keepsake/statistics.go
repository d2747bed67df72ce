package keepsake

import (
	"math"
	"slices"
	"time"
)

// Statistics is the per-collection summary returned by Statistics.
type Statistics struct {
	Total        int            `json:"total"`
	ByMonth      map[string]int `json:"byMonth"`
	ByStatus     map[string]int `json:"byStatus"`
	Recent       []Document     `json:"recent"`
	FirstRecord  *time.Time     `json:"firstRecord,omitempty"`
	LastRecord   *time.Time     `json:"lastRecord,omitempty"`
	TimeSpanDays int            `json:"timeSpanDays"`
}

// DefaultRecent is the number of recent records Statistics reports when the
// caller does not ask for a specific count.
const DefaultRecent = 5

// computeStatistics builds a Statistics value from parallel slices of record
// metadata and documents, both in insertion order.
func computeStatistics(metas []Record, docs []Document, recent int) Statistics {
	st := Statistics{
		Total:    len(metas),
		ByMonth:  map[string]int{},
		ByStatus: map[string]int{},
		Recent:   []Document{},
	}

	var times []time.Time
	for i, m := range metas {
		t := m.CreatedAt
		if t.IsZero() {
			t = m.UpdatedAt
		}
		if !t.IsZero() {
			st.ByMonth[t.UTC().Format("2006-01")]++
			times = append(times, t)
		}
		if docs[i] == nil {
			continue
		}
		if s, ok := docs[i]["status"].(string); ok && s != "" {
			st.ByStatus[s]++
		}
	}

	if recent < 0 {
		recent = 0
	}
	// Newest first.
	for i := len(docs) - 1; i >= 0 && len(st.Recent) < recent; i-- {
		if docs[i] != nil {
			st.Recent = append(st.Recent, docs[i])
		}
	}

	if len(times) > 0 {
		first := slices.MinFunc(times, time.Time.Compare)
		last := slices.MaxFunc(times, time.Time.Compare)
		st.FirstRecord = &first
		st.LastRecord = &last
		st.TimeSpanDays = int(math.Ceil(last.Sub(first).Hours() / 24))
	}
	return st
}
