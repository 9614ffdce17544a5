package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/client/catalog"
	"github.com/iudanet/scholardesk/pkg/api"
)

func newAdminCommand(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin dashboard: statistics, scholarships and users",
	}
	cmd.AddCommand(
		newAdminStatsCommand(r),
		newAdminScholarshipsCommand(r),
		newAdminScholarshipCommand(r),
		newAdminUpdateScholarshipCommand(r),
		newAdminDeleteScholarshipCommand(r),
		newAdminExportScholarshipsCommand(r),
		newUsersCommand(r),
	)
	return cmd
}

func newAdminStatsCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAdmin); err != nil {
				return err
			}
			res := c.client.Statistics(ctx)
			if res.Error != nil {
				return res.Error
			}
			s := res.Data
			return c.table([]string{"METRIC", "VALUE"}, [][]string{
				{"Total scholarships", fmt.Sprint(s.TotalScholarships)},
				{"Active scholarships", fmt.Sprint(s.ActiveScholarships)},
				{"Expired scholarships", fmt.Sprint(s.ExpiredScholarships)},
				{"Total users", fmt.Sprint(s.TotalUsers)},
				{"Students", fmt.Sprint(s.TotalStudents)},
				{"Admins", fmt.Sprint(s.TotalAdmins)},
				{"Signups this week", fmt.Sprint(s.WeeklySignups)},
				{"Signups this month", fmt.Sprint(s.MonthlySignups)},
				{"Signups this year", fmt.Sprint(s.YearlySignups)},
				{"Countries", fmt.Sprint(s.TotalCountries)},
			})
		}),
	}
}

func newAdminScholarshipsCommand(r *root) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "scholarships",
		Short: "List scholarships with admin fields",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAdmin); err != nil {
				return err
			}
			q, err := lf.query()
			if err != nil {
				return err
			}
			res := c.client.AdminScholarships(ctx, q)
			if res.Error != nil {
				return res.Error
			}
			return c.printPage(res.Data, lf.filter(c, res.Data.Results))
		}),
	}
	lf.bind(cmd.Flags())
	return cmd
}

func newAdminScholarshipCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "scholarship ID",
		Short: "Show a scholarship through the admin endpoint",
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
			res := c.client.AdminScholarship(ctx, id)
			if res.Error != nil {
				return res.Error
			}
			c.printScholarship(*res.Data)
			return nil
		}),
	}
}

func newAdminUpdateScholarshipCommand(r *root) *cobra.Command {
	var sf scholarshipFlags
	cmd := &cobra.Command{
		Use:   "update-scholarship ID",
		Short: "Update scholarship fields given as flags",
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
			cur := c.client.AdminScholarship(ctx, id)
			if cur.Error != nil {
				return cur.Error
			}
			in := inputFrom(*cur.Data)
			if err := sf.apply(cmd.Flags(), &in); err != nil {
				return err
			}
			res := c.client.UpdateAdminScholarship(ctx, id, in)
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

func newAdminDeleteScholarshipCommand(r *root) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-scholarship ID",
		Short: "Delete a scholarship",
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
			ok, err := c.confirm(yes, fmt.Sprintf("Delete scholarship %d?", id))
			if err != nil {
				return err
			}
			if !ok {
				c.io.Println("Cancelled.")
				return nil
			}
			res := c.client.DeleteAdminScholarship(ctx, id)
			if res.Error != nil {
				return fmt.Errorf("failed to delete scholarship: %w", res.Error)
			}
			c.io.Printf("✓ Scholarship %d deleted\n", id)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newAdminExportScholarshipsCommand(r *root) *cobra.Command {
	var (
		output     string
		activeOnly bool
	)
	cmd := &cobra.Command{
		Use:   "export-scholarships",
		Short: "Export scholarships as CSV",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAdmin); err != nil {
				return err
			}
			if activeOnly {
				return c.exportActiveScholarships(ctx, output)
			}
			res := c.client.ExportScholarshipsCSV(ctx)
			if res.Error != nil {
				return fmt.Errorf("failed to export scholarships: %w", res.Error)
			}
			if output == "" {
				output = c.exportName("scholarships_export")
			}
			return c.writeOutput(output, func(w io.Writer) error {
				_, err := w.Write(*res.Data)
				return err
			})
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, '-' for stdout")
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "export only scholarships with a future deadline")
	return cmd
}

// exportActiveScholarships строит CSV на клиенте из списка администратора
func (c *Cli) exportActiveScholarships(ctx context.Context, output string) error {
	res := c.client.AdminScholarships(ctx, api.ScholarshipQuery{})
	if res.Error != nil {
		return res.Error
	}
	if output == "" {
		output = c.exportName("active_scholarships")
	}
	// Сначала собираем в память, чтобы не оставить пустой файл при ошибке
	var buf bytes.Buffer
	if err := catalog.WriteActiveScholarshipsCSV(&buf, res.Data.Results, c.now()); err != nil {
		return fmt.Errorf("failed to build CSV: %w", err)
	}
	return c.writeOutput(output, func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	})
}
