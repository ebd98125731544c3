// Package analytics computes the manager-dashboard summary over the full
// record set. Everything is recomputed per call; data volumes are small
// enough that caching would only add staleness.
package analytics

import (
	"context"
	"errors"
	"sort"
	"time"

	"callreview/auth"
	"callreview/call"
)

// ErrForbidden signals the caller is not a manager.
var ErrForbidden = errors.New("analytics: manager access required")

const (
	topObjections = 5
	recentWindow  = 7 * 24 * time.Hour
)

// RecordReader supplies the full record set for aggregation.
type RecordReader interface {
	All(ctx context.Context) ([]call.CallAnalysis, error)
}

// ObjectionCount is one entry of the most-frequent-objections ranking.
type ObjectionCount struct {
	Objection string `json:"objection"`
	Count     int    `json:"count"`
}

// Summary is the manager-dashboard aggregate.
type Summary struct {
	TotalCalls       int              `json:"total_calls"`
	TotalReps        int              `json:"total_reps"`
	RepNames         []string         `json:"rep_names"`
	CommonObjections []ObjectionCount `json:"common_objections"`
	RecentCalls      int              `json:"recent_calls"`
}

// Service aggregates call analytics for the manager role.
type Service struct {
	reader RecordReader
	now    func() time.Time
}

// NewService builds a Service over the given record reader.
func NewService(reader RecordReader) *Service {
	return &Service{reader: reader, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Summary computes the dashboard aggregate. Only managers may call it.
func (s *Service) Summary(ctx context.Context, identity auth.User) (Summary, error) {
	if identity.Role != auth.RoleManager {
		return Summary{}, ErrForbidden
	}

	records, err := s.reader.All(ctx)
	if err != nil {
		return Summary{}, err
	}

	repNames := distinctRepNames(records)

	return Summary{
		TotalCalls:       len(records),
		TotalReps:        len(repNames),
		RepNames:         repNames,
		CommonObjections: commonObjections(records, topObjections),
		RecentCalls:      s.recentCalls(records),
	}, nil
}

// distinctRepNames always returns a non-nil slice so an empty dashboard
// serializes as an empty list.
func distinctRepNames(records []call.CallAnalysis) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, r := range records {
		if r.RepName == "" || seen[r.RepName] {
			continue
		}
		seen[r.RepName] = true
		names = append(names, r.RepName)
	}
	return names
}

// commonObjections ranks objection strings by frequency. Ties keep
// first-seen order so the ranking is stable across calls.
func commonObjections(records []call.CallAnalysis, top int) []ObjectionCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, r := range records {
		for _, obj := range r.Analysis.KeyObjections() {
			if _, ok := counts[obj]; !ok {
				firstSeen[obj] = order
				order++
			}
			counts[obj]++
		}
	}

	ranked := make([]ObjectionCount, 0, len(counts))
	for obj, n := range counts {
		ranked = append(ranked, ObjectionCount{Objection: obj, Count: n})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Objection] < firstSeen[ranked[j].Objection]
	})

	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}

// recentCalls counts records whose call date falls within the trailing
// seven days. Dates are RFC 3339 strings; unparsable ones are skipped
// rather than guessed at.
func (s *Service) recentCalls(records []call.CallAnalysis) int {
	cutoff := s.now().UTC().Add(-recentWindow)

	count := 0
	for _, r := range records {
		when, err := time.Parse(time.RFC3339, r.CallDate)
		if err != nil {
			continue
		}
		if when.UTC().After(cutoff) {
			count++
		}
	}
	return count
}
