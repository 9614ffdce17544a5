package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/client/catalog"
	"github.com/iudanet/scholardesk/pkg/api"
)

// listFlags: параметры поиска и пагинации списков стипендий
type listFlags struct {
	search   string
	country  string
	degree   string
	status   string
	page     int
	pageSize int
}

func (f *listFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.search, "search", "", "search text (name, country, degree level)")
	fs.StringVar(&f.country, "country", "", "host country")
	fs.StringVar(&f.degree, "degree", "", "degree level")
	fs.StringVar(&f.status, "status", string(catalog.StatusAll), "all, active or expired")
	fs.IntVar(&f.page, "page", 0, "page number")
	fs.IntVar(&f.pageSize, "page-size", 0, "page size")
}

func (f *listFlags) query() (api.ScholarshipQuery, error) {
	q := api.ScholarshipQuery{
		Search:      f.search,
		Country:     f.country,
		DegreeLevel: f.degree,
		Page:        f.page,
		PageSize:    f.pageSize,
	}
	switch catalog.Status(f.status) {
	case catalog.StatusAll, "":
	case catalog.StatusActive:
		ongoing := true
		q.ApplicationOngoing = &ongoing
	case catalog.StatusExpired:
		ongoing := false
		q.ApplicationOngoing = &ongoing
	default:
		return q, fmt.Errorf("invalid status %q: expected all, active or expired", f.status)
	}
	return q, nil
}

// filter повторяет фильтрацию на стороне клиента: сервер может игнорировать параметры
func (f *listFlags) filter(c *Cli, list []api.Scholarship) []api.Scholarship {
	return catalog.SortByNewest(catalog.FilterScholarships(list, catalog.ScholarshipFilter{
		Now:         c.now(),
		Search:      f.search,
		Country:     f.country,
		DegreeLevel: f.degree,
		Status:      catalog.Status(f.status),
	}))
}

// scholarshipFlags: поля стипендии для create/update
type scholarshipFlags struct {
	name        string
	country     string
	degree      string
	deadline    string
	eligibility string
	description string
	benefits    string
	link        string
	author      string
}

func (f *scholarshipFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "scholarship name")
	fs.StringVar(&f.country, "country", "", "host country")
	fs.StringVar(&f.degree, "degree", "", "degree level")
	fs.StringVar(&f.deadline, "deadline", "", "application deadline (YYYY-MM-DD)")
	fs.StringVar(&f.eligibility, "eligibility", "", "eligibility criteria")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.benefits, "benefits", "", "benefits")
	fs.StringVar(&f.link, "link", "", "official link")
	fs.StringVar(&f.author, "author", "", "author")
}

// apply накладывает только явно заданные флаги на in
func (f *scholarshipFlags) apply(fs *pflag.FlagSet, in *api.ScholarshipInput) error {
	set := func(flag, value string, dst *string) {
		if fs.Changed(flag) {
			*dst = strings.TrimSpace(value)
		}
	}
	set("name", f.name, &in.Name)
	set("country", f.country, &in.HostCountry)
	set("degree", f.degree, &in.DegreeLevel)
	set("eligibility", f.eligibility, &in.Eligibility)
	set("description", f.description, &in.Description)
	set("benefits", f.benefits, &in.Benefits)
	set("link", f.link, &in.Link)
	set("author", f.author, &in.Author)

	if fs.Changed("deadline") {
		d, err := api.ParseDate(f.deadline)
		if err != nil {
			return err
		}
		in.Deadline = d
	}
	return nil
}

func inputFrom(s api.Scholarship) api.ScholarshipInput {
	return api.ScholarshipInput{
		Deadline:    s.Deadline,
		Name:        s.Name,
		HostCountry: s.HostCountry,
		DegreeLevel: s.DegreeLevel,
		Eligibility: s.Eligibility,
		Description: s.Description,
		Benefits:    s.Benefits,
		Link:        s.Link,
		Author:      s.Author,
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newScholarshipsCommand(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scholarships",
		Aliases: []string{"s"},
		Short:   "Browse and edit scholarships",
	}
	cmd.AddCommand(
		newScholarshipsListCommand(r),
		newScholarshipsFiltersCommand(r),
		newScholarshipShowCommand(r),
		newScholarshipCreateCommand(r),
		newScholarshipUpdateCommand(r),
	)
	return cmd
}

func newScholarshipsListCommand(r *root) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search scholarships",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			q, err := lf.query()
			if err != nil {
				return err
			}
			res := c.client.Scholarships(cmd.Context(), q)
			if res.Error != nil {
				return res.Error
			}
			return c.printPage(res.Data, lf.filter(c, res.Data.Results))
		}),
	}
	lf.bind(cmd.Flags())
	return cmd
}

func (c *Cli) printPage(page *api.ScholarshipPage, list []api.Scholarship) error {
	if err := c.printScholarships(list); err != nil {
		return err
	}
	if page.TotalPages > 1 {
		c.io.Printf("\nPage %d of %d (%d total)\n", page.Page, page.TotalPages, page.Count)
	}
	return nil
}

func newScholarshipsFiltersCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List countries and degree levels present in the listing",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			res := c.client.Scholarships(cmd.Context(), api.ScholarshipQuery{})
			if res.Error != nil {
				return res.Error
			}
			c.io.Printf("Countries:     %s\n", strings.Join(catalog.Countries(res.Data.Results), ", "))
			c.io.Printf("Degree levels: %s\n", strings.Join(catalog.DegreeLevels(res.Data.Results), ", "))
			return nil
		}),
	}
}

func newScholarshipShowCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show scholarship details",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, c *Cli, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res := c.client.Scholarship(cmd.Context(), id)
			if res.Error != nil {
				return res.Error
			}
			c.printScholarship(*res.Data)
			return nil
		}),
	}
}

func newScholarshipCreateCommand(r *root) *cobra.Command {
	var sf scholarshipFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a scholarship",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			return c.runCreateScholarship(cmd.Context(), cmd.Flags(), &sf)
		}),
	}
	sf.bind(cmd.Flags())
	return cmd
}

func (c *Cli) runCreateScholarship(ctx context.Context, fs *pflag.FlagSet, sf *scholarshipFlags) error {
	if err := c.require(ctx, auth.RoleAdmin); err != nil {
		return err
	}

	var in api.ScholarshipInput
	if err := sf.apply(fs, &in); err != nil {
		return err
	}
	// Обязательные поля спрашиваем интерактивно
	for _, f := range []struct {
		dst    *string
		prompt string
	}{
		{&in.Name, "Name: "},
		{&in.HostCountry, "Host country: "},
		{&in.DegreeLevel, "Degree level: "},
	} {
		v, err := c.ask(*f.dst, f.prompt)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if in.Deadline.IsZero() {
		raw, err := c.ask("", "Deadline (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		if in.Deadline, err = api.ParseDate(raw); err != nil {
			return err
		}
	}

	res := c.client.CreateScholarship(ctx, in)
	if res.Error != nil {
		return fmt.Errorf("failed to create scholarship: %w", res.Error)
	}
	c.io.Printf("✓ Scholarship created (ID: %d)\n", res.Data.ID)
	return nil
}

func newScholarshipUpdateCommand(r *root) *cobra.Command {
	var sf scholarshipFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace scholarship fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, c *Cli, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAdmin); err != nil {
				return err
			}
			cur := c.client.Scholarship(ctx, id)
			if cur.Error != nil {
				return cur.Error
			}
			in := inputFrom(*cur.Data)
			if err := sf.apply(cmd.Flags(), &in); err != nil {
				return err
			}
			res := c.client.UpdateScholarship(ctx, id, in)
			if res.Error != nil {
				return fmt.Errorf("failed to update scholarship: %w", res.Error)
			}
			c.io.Printf("✓ Scholarship %d updated\n", id)
			return nil
		}),
	}
	sf.bind(cmd.Flags())
	return cmd
}
