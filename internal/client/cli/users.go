package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/client/catalog"
	"github.com/iudanet/scholardesk/pkg/api"
)

// ErrSuperAdminProtected: super admins нельзя менять или удалять из CLI
var ErrSuperAdminProtected = errors.New("super admins cannot be edited or deleted")

func newUsersCommand(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage admin users and export user lists",
	}
	cmd.AddCommand(
		newUsersListCommand(r),
		newUsersCreateCommand(r),
		newUsersUpdateCommand(r),
		newUsersDeleteCommand(r),
		newUsersExportAdminsCommand(r),
		newUsersExportStudentsCommand(r),
	)
	return cmd
}

// admins загружает и нормализует каталог администраторов
func (c *Cli) admins(ctx context.Context) ([]catalog.Admin, []api.AdminUser, error) {
	res := c.client.Admins(ctx)
	if res.Error != nil {
		return nil, nil, res.Error
	}
	var users []api.AdminUser
	if res.Data != nil {
		users = *res.Data
	}
	return catalog.NormalizeAdmins(users), users, nil
}

func newUsersListCommand(r *root) *cobra.Command {
	var (
		role     string
		search   string
		sortBy   string
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List admin users",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAdmin); err != nil {
				return err
			}
			switch catalog.AdminRole(role) {
			case catalog.RoleAll, catalog.RoleSuper, catalog.RoleStaff:
			default:
				return fmt.Errorf("invalid role %q: expected all, super or staff", role)
			}

			admins, users, err := c.admins(ctx)
			if err != nil {
				return err
			}
			counts := catalog.CountAdmins(users)
			c.io.Printf("Total: %d  Super admins: %d  Staff: %d\n\n", counts.Total, counts.Super, counts.Staff)

			filtered := catalog.FilterAdmins(admins, catalog.AdminFilter{Role: catalog.AdminRole(role), Query: search})
			p := catalog.Paginate(catalog.SortAdmins(filtered, catalog.AdminSort(sortBy)), page, pageSize)
			if p.Total == 0 {
				c.io.Println("No admins found.")
				return nil
			}
			if err := c.printAdmins(p.Items); err != nil {
				return err
			}
			if p.TotalPages > 1 {
				c.io.Printf("\nPage %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&role, "role", string(catalog.RoleAll), "all, super or staff")
	f.StringVar(&search, "search", "", "search name, email or username")
	f.StringVar(&sortBy, "sort", string(catalog.SortByName), "name, email or role")
	f.IntVar(&page, "page", 1, "page number")
	f.IntVar(&pageSize, "page-size", 10, "page size")
	return cmd
}

type adminInput struct {
	email     string
	firstName string
	lastName  string
	username  string
	passwords Passwords
	super     bool
}

func newUsersCreateCommand(r *root) *cobra.Command {
	var in adminInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an admin user",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			return c.runCreateAdmin(cmd.Context(), in)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.email, "email", "", "email")
	f.StringVar(&in.username, "username", "", "username (defaults to email)")
	f.StringVar(&in.firstName, "first-name", "", "first name")
	f.StringVar(&in.lastName, "last-name", "", "last name")
	f.BoolVar(&in.super, "super", false, "grant super admin rights (super admins only)")
	f.StringVar(&in.passwords.FromArgs, "password", "", "password (not recommended, use env var or file)")
	f.StringVar(&in.passwords.FromFile, "password-file", "", "path to file containing the password")
	return cmd
}

func (c *Cli) runCreateAdmin(ctx context.Context, in adminInput) error {
	user, err := c.requireUser(ctx, auth.RoleAdmin)
	if err != nil {
		return err
	}

	if in.email, err = c.ask(in.email, "Email: "); err != nil {
		return err
	}
	if in.firstName, err = c.ask(in.firstName, "First name: "); err != nil {
		return err
	}
	if in.lastName, err = c.ask(in.lastName, "Last name: "); err != nil {
		return err
	}
	password, _, err := c.getPassword(in.passwords, "Password: ")
	if err != nil {
		return err
	}

	// Только super admin может создать super admin; остальным флаг сбрасывается
	isSuper := in.super
	if isSuper && !user.IsSuper() {
		c.io.Println("⚠️  Only super admins can create super admins; creating a staff admin.")
		isSuper = false
	}
	username := in.username
	if username == "" {
		username = in.email
	}

	res := c.client.CreateAdmin(ctx, api.CreateAdminRequest{
		User: api.Account{
			Username:  username,
			Email:     in.email,
			Password:  password,
			FirstName: in.firstName,
			LastName:  in.lastName,
		},
		IsSuperAdmin: isSuper,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to create admin: %w", res.Error)
	}
	c.io.Printf("✓ Admin %s created\n", in.email)
	return nil
}

// target находит изменяемого администратора; super admins защищены
func (c *Cli) target(ctx context.Context, id int64) (*catalog.Admin, error) {
	admins, _, err := c.admins(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if admins[i].TargetID() != id {
			continue
		}
		if admins[i].Role == catalog.RoleSuper {
			return nil, ErrSuperAdminProtected
		}
		return &admins[i], nil
	}
	return nil, fmt.Errorf("admin %d not found", id)
}

func newUsersUpdateCommand(r *root) *cobra.Command {
	var (
		email, firstName, lastName string
		passwords                  Passwords
		super                      bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change admin fields given as flags (super admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, c *Cli, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleSuper); err != nil {
				return err
			}
			if _, err := c.target(ctx, id); err != nil {
				return err
			}

			var req api.UpdateAdminRequest
			f := cmd.Flags()
			if f.Changed("email") {
				req.Email = &email
			}
			if f.Changed("first-name") {
				req.FirstName = &firstName
			}
			if f.Changed("last-name") {
				req.LastName = &lastName
			}
			if f.Changed("super") {
				req.IsSuperAdmin = &super
			}
			pw, err := passwords.read()
			if err != nil {
				return err
			}
			if pw != "" {
				req.Password = &pw
			}
			if req == (api.UpdateAdminRequest{}) {
				return errors.New("nothing to update: pass at least one field flag")
			}

			res := c.client.UpdateAdmin(ctx, id, req)
			if res.Error != nil {
				return fmt.Errorf("failed to update admin: %w", res.Error)
			}
			c.io.Printf("✓ Admin %d updated\n", id)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "new email")
	f.StringVar(&firstName, "first-name", "", "new first name")
	f.StringVar(&lastName, "last-name", "", "new last name")
	f.BoolVar(&super, "super", false, "grant or revoke super admin rights")
	f.StringVar(&passwords.FromArgs, "password", "", "new password")
	f.StringVar(&passwords.FromFile, "password-file", "", "path to file containing the new password")
	return cmd
}

func newUsersDeleteCommand(r *root) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an admin user (super admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, c *Cli, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleSuper); err != nil {
				return err
			}
			admin, err := c.target(ctx, id)
			if err != nil {
				return err
			}
			ok, err := c.confirm(yes, fmt.Sprintf("Delete admin %s?", admin.Email))
			if err != nil {
				return err
			}
			if !ok {
				c.io.Println("Cancelled.")
				return nil
			}
			res := c.client.DeleteAdmin(ctx, id)
			if res.Error != nil {
				return fmt.Errorf("failed to delete admin: %w", res.Error)
			}
			c.io.Printf("✓ Admin %s deleted\n", admin.Email)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newUsersExportAdminsCommand(r *root) *cobra.Command {
	var (
		output string
		role   string
		search string
	)
	cmd := &cobra.Command{
		Use:   "export-admins",
		Short: "Export the admin directory as CSV",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAdmin); err != nil {
				return err
			}
			admins, _, err := c.admins(ctx)
			if err != nil {
				return err
			}
			filtered := catalog.SortAdmins(catalog.FilterAdmins(admins, catalog.AdminFilter{
				Role:  catalog.AdminRole(role),
				Query: search,
			}), catalog.SortByName)
			if output == "" {
				output = "admins_export.csv"
			}
			return c.writeOutput(output, func(w io.Writer) error {
				return catalog.WriteAdminsCSV(w, filtered)
			})
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output file, '-' for stdout")
	f.StringVar(&role, "role", string(catalog.RoleAll), "all, super or staff")
	f.StringVar(&search, "search", "", "search name, email or username")
	return cmd
}

func newUsersExportStudentsCommand(r *root) *cobra.Command {
	var (
		output string
		raw    bool
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "export-students",
		Short: "Export registered students as CSV",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAdmin); err != nil {
				return err
			}
			res := c.client.ExportUsersCSV(ctx, api.UserExportQuery{Role: "student", Fields: fields})
			if res.Error != nil {
				return fmt.Errorf("failed to export students: %w", res.Error)
			}
			if output == "" {
				output = c.exportName("students_export")
			}
			if raw {
				return c.writeOutput(output, func(w io.Writer) error {
					_, err := w.Write(*res.Data)
					return err
				})
			}
			var buf bytes.Buffer
			if err := catalog.WriteStudentsCSV(&buf, bytes.NewReader(*res.Data)); err != nil {
				return fmt.Errorf("failed to convert export: %w", err)
			}
			return c.writeOutput(output, func(w io.Writer) error {
				_, err := buf.WriteTo(w)
				return err
			})
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output file, '-' for stdout")
	f.BoolVar(&raw, "raw", false, "save the server CSV as is")
	f.StringSliceVar(&fields, "fields", nil, "columns requested from the server")
	return cmd
}
