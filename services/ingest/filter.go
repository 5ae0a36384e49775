package ingest

import (
	"sort"

	"github.com/upb/ami-parentage/models"
)

// EventNames is the set of CloudTrail event names the pipeline records
type EventNames map[string]struct{}

// NewEventNames builds a set from names, ignoring duplicates
func NewEventNames(names ...string) EventNames {
	set := make(EventNames, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether name is of interest
func (s EventNames) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// List returns the names in sorted order
func (s EventNames) List() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Filter returns the records whose eventName is in names, keeping their order
func Filter(records []models.Record, names EventNames) []models.Record {
	var out []models.Record
	for _, r := range records {
		if names.Contains(r.EventName) {
			out = append(out, r)
		}
	}
	return out
}
