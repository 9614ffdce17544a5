package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/iudanet/scholardesk/pkg/api"
)

// Status selects scholarships by deadline
type Status string

const (
	StatusAll     Status = "all"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// ScholarshipFilter: empty fields match everything
type ScholarshipFilter struct {
	Now         time.Time
	Search      string
	Country     string
	DegreeLevel string
	Status      Status
}

// FilterScholarships keeps scholarships matching every set criterion.
// Search looks into name, country and degree level; country and degree level
// match by substring, all case-insensitive
func FilterScholarships(list []api.Scholarship, f ScholarshipFilter) []api.Scholarship {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	country := strings.ToLower(f.Country)
	degree := strings.ToLower(f.DegreeLevel)
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := make([]api.Scholarship, 0, len(list))
	for _, s := range list {
		name := strings.ToLower(s.Name)
		sc := strings.ToLower(s.HostCountry)
		sd := strings.ToLower(s.DegreeLevel)

		if q != "" && !strings.Contains(name, q) && !strings.Contains(sc, q) && !strings.Contains(sd, q) {
			continue
		}
		if country != "" && !strings.Contains(sc, country) {
			continue
		}
		if degree != "" && !strings.Contains(sd, degree) {
			continue
		}
		switch f.Status {
		case StatusActive:
			if !s.IsActive(now) {
				continue
			}
		case StatusExpired:
			if s.IsActive(now) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// Active returns scholarships whose deadline is after now
func Active(list []api.Scholarship, now time.Time) []api.Scholarship {
	return FilterScholarships(list, ScholarshipFilter{Now: now, Status: StatusActive})
}

// SortByNewest returns a copy ordered by creation time, newest first
func SortByNewest(list []api.Scholarship) []api.Scholarship {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b api.Scholarship) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// UniqueValues drops empty and case-insensitive duplicate values, keeping the
// first spelling seen, and sorts the result
func UniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	slices.SortStableFunc(out, compareText)
	return out
}

// Countries lists distinct host countries
func Countries(list []api.Scholarship) []string {
	values := make([]string, 0, len(list))
	for _, s := range list {
		values = append(values, s.HostCountry)
	}
	return UniqueValues(values)
}

// DegreeLevels lists distinct degree levels
func DegreeLevels(list []api.Scholarship) []string {
	values := make([]string, 0, len(list))
	for _, s := range list {
		values = append(values, s.DegreeLevel)
	}
	return UniqueValues(values)
}
