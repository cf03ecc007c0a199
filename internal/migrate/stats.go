package migrate

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type EntityStats struct {
	Scanned  int64 `json:"scanned"`
	Inserted int64 `json:"inserted"`
	Merged   int64 `json:"merged"`
	Failed   int64 `json:"failed"`
}

// Stats accumulates per-entity counters and row-level errors across the
// whole run. Safe for the bounded concurrency of a migration stage.
type Stats struct {
	RunID string `json:"run_id"`

	mu           sync.Mutex
	PerEntity    map[string]*EntityStats `json:"per_entity"`
	RowErrors    []RowError              `json:"row_errors,omitempty"`
	FailedTables []TableError            `json:"failed_tables,omitempty"`
}

func NewStats(runID string) *Stats {
	return &Stats{RunID: runID, PerEntity: make(map[string]*EntityStats)}
}

func (s *Stats) entity(name string) *EntityStats {
	es, ok := s.PerEntity[name]
	if !ok {
		es = &EntityStats{}
		s.PerEntity[name] = es
	}
	return es
}

func (s *Stats) addScanned(entity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entity(entity).Scanned++
}

func (s *Stats) addInserted(entity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entity(entity).Inserted++
}

func (s *Stats) addMerged(entity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entity(entity).Merged++
}

func (s *Stats) addRowError(e RowError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entity(e.Entity).Failed++
	s.RowErrors = append(s.RowErrors, e)
}

func (s *Stats) addFailedTable(e TableError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailedTables = append(s.FailedTables, e)
}

// Entity returns a copy of the counters for one entity type.
func (s *Stats) Entity(name string) EntityStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if es, ok := s.PerEntity[name]; ok {
		return *es
	}
	return EntityStats{}
}

// CountRanges derives the validator's expected per-table row count
// ranges from what this run scanned: at most every scanned row survives,
// at least a fifth do (heavier shrink than that is suspicious drift).
func (s *Stats) CountRanges() map[string][2]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := map[string]string{
		"company":     "companies",
		"job":         "jobs",
		"application": "applications",
		"contact":     "contacts",
		"email":       "emails",
		"metric":      "metrics",
	}

	out := make(map[string][2]int64)
	for entity, table := range tables {
		es, ok := s.PerEntity[entity]
		if !ok || es.Scanned == 0 {
			continue
		}
		lo := es.Scanned / 5
		if lo < 1 {
			lo = 1
		}
		out[table] = [2]int64{lo, es.Scanned}
	}
	if es, ok := s.PerEntity["profile"]; ok && es.Scanned > 0 {
		out["profile"] = [2]int64{1, 1}
	}
	return out
}

// Summary renders one line per entity, alphabetical, for the run log.
func (s *Stats) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.PerEntity))
	for n := range s.PerEntity {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		es := s.PerEntity[n]
		fmt.Fprintf(&b, "%s: scanned=%d inserted=%d merged=%d failed=%d\n",
			n, es.Scanned, es.Inserted, es.Merged, es.Failed)
	}
	fmt.Fprintf(&b, "row errors: %d, failed tables: %d", len(s.RowErrors), len(s.FailedTables))
	return b.String()
}
