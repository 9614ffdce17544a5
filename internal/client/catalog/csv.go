package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iudanet/scholardesk/pkg/api"
)

const bom = "\uFEFF"

var personHeader = []string{"First Name", "Last Name", "Email"}

// WriteAdminsCSV writes First Name, Last Name, Email for every admin
func WriteAdminsCSV(w io.Writer, admins []Admin) error {
	rows := make([][]string, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, []string{a.FirstName, a.LastName, a.Email})
	}
	return writeCSV(w, personHeader, rows)
}

// WriteActiveScholarshipsCSV writes the scholarships open at now
func WriteActiveScholarshipsCSV(w io.Writer, list []api.Scholarship, now time.Time) error {
	active := Active(list, now)
	rows := make([][]string, 0, len(active))
	for _, s := range active {
		rows = append(rows, []string{
			s.Name,
			s.HostCountry,
			s.DegreeLevel,
			strings.Join(strings.Fields(s.Eligibility), " "),
			s.Deadline.String(),
			"Active",
			s.Link,
		})
	}
	header := []string{"Name", "Country", "Degree Level", "Eligibility", "Deadline", "Status", "Link"}
	return writeCSV(w, header, rows)
}

// WriteStudentsCSV reads the server users export from r and writes the rows
// whose role mentions "student" as First Name, Last Name, Email.
// Column names are matched case-insensitively, with or without underscores
func WriteStudentsCSV(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && string(b) == bom {
		_, _ = br.Discard(len(bom))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return writeCSV(w, personHeader, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to read users header: %w", err)
	}

	cols := newColumns(header)
	first := cols.index("first name", "first_name")
	last := cols.index("last name", "last_name")
	email := cols.index("email")
	role := cols.index("user type", "role", "user_type")

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read users row: %w", err)
		}
		if !strings.Contains(strings.ToLower(field(rec, role)), "student") {
			continue
		}
		rows = append(rows, []string{field(rec, first), field(rec, last), field(rec, email)})
	}
	return writeCSV(w, personHeader, rows)
}

type columns map[string]int

func newColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// index returns the position of the first alias present, -1 if none is
func (c columns) index(aliases ...string) int {
	for _, a := range aliases {
		if i, ok := c[a]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}
