package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/iudanet/scholardesk/internal/client/catalog"
	"github.com/iudanet/scholardesk/pkg/api"
)

// table печатает выровненные колонки в терминал
func (c *Cli) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (c *Cli) printScholarships(list []api.Scholarship) error {
	if len(list) == 0 {
		c.io.Println("No scholarships found.")
		return nil
	}
	now := c.now()
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		status := "expired"
		if s.IsActive(now) {
			status = "active"
		}
		rows = append(rows, []string{
			fmt.Sprint(s.ID), s.Name, s.HostCountry, s.DegreeLevel, s.Deadline.String(), status,
		})
	}
	return c.table([]string{"ID", "NAME", "COUNTRY", "DEGREE", "DEADLINE", "STATUS"}, rows)
}

func (c *Cli) printScholarship(s api.Scholarship) {
	status := "Expired"
	if s.IsActive(c.now()) {
		status = "Active"
	}
	c.io.Printf("ID:          %d\n", s.ID)
	c.io.Printf("Name:        %s\n", s.Name)
	c.io.Printf("Country:     %s\n", s.HostCountry)
	c.io.Printf("Degree:      %s\n", s.DegreeLevel)
	c.io.Printf("Deadline:    %s (%s)\n", s.Deadline, status)
	printOptional(c, "Eligibility", s.Eligibility)
	printOptional(c, "Benefits", s.Benefits)
	printOptional(c, "Description", s.Description)
	printOptional(c, "Link", s.Link)
	printOptional(c, "Author", s.Author)
}

func printOptional(c *Cli, label, value string) {
	if value == "" {
		return
	}
	c.io.Printf("%-12s %s\n", label+":", value)
}

func (c *Cli) printAdmins(admins []catalog.Admin) error {
	rows := make([][]string, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, []string{
			fmt.Sprint(a.ID), a.FullName, a.Email, a.Username, string(a.Role),
		})
	}
	return c.table([]string{"ID", "NAME", "EMAIL", "USERNAME", "ROLE"}, rows)
}

func (c *Cli) printUser(u api.User) {
	c.io.Printf("Name:     %s\n", u.FullName())
	c.io.Printf("Username: %s\n", u.Username)
	c.io.Printf("Email:    %s\n", u.Email)
	c.io.Printf("Role:     %s\n", roleName(u))
	if u.Phone != "" {
		c.io.Printf("Phone:    %s\n", u.Phone)
	}
	if u.Nationality != "" {
		c.io.Printf("Nationality: %s\n", u.Nationality)
	}
	if u.CountryOfResidence != "" {
		c.io.Printf("Residence:   %s\n", u.CountryOfResidence)
	}
}

func roleName(u api.User) string {
	switch {
	case u.IsAdmin() && u.IsSuper():
		return "super admin"
	case u.IsAdmin():
		return "admin"
	case u.IsStudent():
		return "student"
	}
	return "user"
}
