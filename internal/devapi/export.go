package devapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/pkg/api"
)

// utf8BOM помогает Excel распознать кодировку
const utf8BOM = "\uFEFF"

// userColumn: колонка выгрузки пользователей
type userColumn struct {
	value  func(u userRecord) string
	header string
}

var userColumns = map[string]userColumn{
	"username":             {header: "Username", value: func(u userRecord) string { return u.Username }},
	"email":                {header: "Email", value: func(u userRecord) string { return u.Email }},
	"first_name":           {header: "First Name", value: func(u userRecord) string { return u.FirstName }},
	"last_name":            {header: "Last Name", value: func(u userRecord) string { return u.LastName }},
	"user_type":            {header: "User Type", value: func(u userRecord) string { return u.UserType }},
	"phone":                {header: "Phone", value: func(u userRecord) string { return u.Phone }},
	"nationality":          {header: "Nationality", value: func(u userRecord) string { return u.Nationality }},
	"country_of_residence": {header: "Country Of Residence", value: func(u userRecord) string { return u.CountryOfResidence }},
	"date_joined":          {header: "Date Joined", value: func(u userRecord) string { return u.joined.Format(time.RFC3339) }},
}

var defaultUserFields = []string{"username", "email", "first_name", "last_name", "user_type", "date_joined"}

// handleExportUsers обрабатывает GET /admin/users/export/?role=&fields=
func (s *Server) handleExportUsers(w http.ResponseWriter, r *http.Request) {
	fields := defaultUserFields
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = strings.Split(raw, ",")
	}
	cols := make([]userColumn, 0, len(fields))
	for _, f := range fields {
		col, ok := userColumns[strings.TrimSpace(f)]
		if !ok {
			s.sendError(w, http.StatusBadRequest, fmt.Sprintf("Unknown field: %s", f))
			return
		}
		cols = append(cols, col)
	}

	users := s.store.Users(r.URL.Query().Get("role"))
	rows := make([][]string, 0, len(users)+1)
	header := make([]string, 0, len(cols))
	for _, c := range cols {
		header = append(header, c.header)
	}
	rows = append(rows, header)
	for _, u := range users {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, c.value(u))
		}
		rows = append(rows, row)
	}
	s.sendCSV(w, "users_export.csv", rows)
}

// handleExportScholarships обрабатывает GET /admin/scholarships/export/
func (s *Server) handleExportScholarships(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	rows := [][]string{{"ID", "Name", "Host Country", "Degree Level", "Deadline", "Status", "Link", "Created At"}}
	for _, sc := range s.store.Scholarships() {
		rows = append(rows, []string{
			fmt.Sprint(sc.ID),
			sc.Name,
			sc.HostCountry,
			sc.DegreeLevel,
			sc.Deadline.String(),
			status(sc, now),
			sc.Link,
			sc.CreatedAt.Format(time.RFC3339),
		})
	}
	s.sendCSV(w, "scholarships_export.csv", rows)
}

func status(sc api.Scholarship, now time.Time) string {
	if sc.IsActive(now) {
		return "Active"
	}
	return "Expired"
}

func (s *Server) sendCSV(w http.ResponseWriter, filename string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(utf8BOM)); err != nil {
		s.log.Warn("failed to write csv", zap.Error(err))
		return
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		s.log.Warn("failed to write csv", zap.Error(err))
	}
}
