package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format the API uses for deadlines
const DateLayout = "2006-01-02"

// Date is a calendar date that also accepts full RFC3339 timestamps on input
type Date struct {
	time.Time
}

// ParseDate parses either a bare date or an RFC3339 timestamp
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scholarship представляет запись о стипендии
type Scholarship struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Deadline    Date      `json:"deadline"`
	Name        string    `json:"name"`
	HostCountry string    `json:"host_country"`
	DegreeLevel string    `json:"degree_level"`
	Eligibility string    `json:"eligibility,omitempty"`
	Description string    `json:"description,omitempty"`
	Benefits    string    `json:"benefits,omitempty"`
	Link        string    `json:"link,omitempty"`
	Author      string    `json:"author,omitempty"`
	ID          int64     `json:"id"`
}

// IsActive reports whether the application deadline is still ahead of now
func (s Scholarship) IsActive(now time.Time) bool {
	return !s.Deadline.IsZero() && s.Deadline.After(now)
}

// ScholarshipInput is the create/update payload
type ScholarshipInput struct {
	Deadline    Date   `json:"deadline"`
	Name        string `json:"name" validate:"required,max=255"`
	HostCountry string `json:"host_country" validate:"required"`
	DegreeLevel string `json:"degree_level" validate:"required"`
	Eligibility string `json:"eligibility,omitempty"`
	Description string `json:"description,omitempty"`
	Benefits    string `json:"benefits,omitempty"`
	Link        string `json:"link,omitempty" validate:"omitempty,url"`
	Author      string `json:"author,omitempty"`
}

// ScholarshipPage is a page of search results.
// The API answers either with a paginated object or with a bare array;
// both decode into ScholarshipPage
type ScholarshipPage struct {
	Results    []Scholarship `json:"results"`
	Count      int           `json:"count"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	HasNext    bool          `json:"has_next"`
}

func (p *ScholarshipPage) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Scholarship
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*p = ScholarshipPage{
			Results:    list,
			Count:      len(list),
			Page:       1,
			TotalPages: 1,
		}
		return nil
	}

	// alias без метода UnmarshalJSON, иначе рекурсия
	type page ScholarshipPage
	var raw page
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*p = ScholarshipPage(raw)
	if p.Results == nil {
		p.Results = []Scholarship{}
	}
	if p.Count == 0 {
		p.Count = len(p.Results)
	}
	if p.Page == 0 {
		p.Page = 1
	}
	return nil
}

// ScholarshipQuery holds search and pagination parameters for list endpoints
type ScholarshipQuery struct {
	ApplicationOngoing *bool
	Search             string
	Country            string
	DegreeLevel        string
	Page               int
	PageSize           int
}

// Values encodes the query; empty fields are omitted so that equal logical
// queries produce equal parameter sets
func (q ScholarshipQuery) Values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Country != "" {
		v.Set("country", q.Country)
	}
	if q.DegreeLevel != "" {
		v.Set("degree_level", q.DegreeLevel)
	}
	if q.ApplicationOngoing != nil {
		v.Set("application_ongoing", strconv.FormatBool(*q.ApplicationOngoing))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// Statistics is the admin dashboard summary
type Statistics struct {
	TotalScholarships   int `json:"total_scholarships"`
	ActiveScholarships  int `json:"active_scholarships"`
	ExpiredScholarships int `json:"expired_scholarships"`
	TotalUsers          int `json:"total_users"`
	TotalStudents       int `json:"total_students"`
	TotalAdmins         int `json:"total_admins"`
	WeeklySignups       int `json:"weekly_signups"`
	MonthlySignups      int `json:"monthly_signups"`
	YearlySignups       int `json:"yearly_signups"`
	TotalCountries      int `json:"total_countries"`
}
