package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/validation"
	"github.com/iudanet/scholardesk/pkg/api"
)

func newLoginCommand(r *root) *cobra.Command {
	var (
		email     string
		passwords Passwords
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			return c.runLogin(cmd.Context(), email, passwords)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&passwords.FromArgs, "password", "", "password (not recommended, use env var or file)")
	cmd.Flags().StringVar(&passwords.FromFile, "password-file", "", "path to file containing the password")
	return cmd
}

func (c *Cli) runLogin(ctx context.Context, email string, passwords Passwords) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.ask(email, "Email: ")
	if err != nil {
		return err
	}
	password, _, err := c.getPassword(passwords, "Password: ")
	if err != nil {
		return err
	}

	res := c.client.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if res.Error != nil {
		return fmt.Errorf("login failed: %w", res.Error)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Welcome, %s (%s)\n", res.Data.User.FullName(), roleName(res.Data.User))
	return nil
}

func newLogoutCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and clear the local session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			res := c.client.Logout(cmd.Context())
			if res.Error != nil {
				return res.Error
			}
			c.io.Printf("✓ %s\n", res.Data.Message)
			return nil
		}),
	}
}

type signupInput struct {
	username    string
	email       string
	fullName    string
	phone       string
	nationality string
	country     string
	passwords   Passwords
}

func newSignupCommand(r *root) *cobra.Command {
	var in signupInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a student account",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			return c.runSignup(cmd.Context(), in)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.username, "username", "", "username")
	f.StringVar(&in.email, "email", "", "email")
	f.StringVar(&in.fullName, "name", "", "full name (first and last)")
	f.StringVar(&in.phone, "phone", "", "phone in international format, e.g. +250788123456")
	f.StringVar(&in.nationality, "nationality", "", "nationality")
	f.StringVar(&in.country, "country", "", "country of residence")
	f.StringVar(&in.passwords.FromArgs, "password", "", "password (not recommended, use env var or file)")
	f.StringVar(&in.passwords.FromFile, "password-file", "", "path to file containing the password")
	return cmd
}

func (c *Cli) runSignup(ctx context.Context, in signupInput) error {
	c.io.Println("=== Student Registration ===")
	c.io.Println()

	fields := []struct {
		dst    *string
		prompt string
	}{
		{&in.fullName, "Full name: "},
		{&in.username, "Username: "},
		{&in.email, "Email: "},
		{&in.phone, "Phone (+country code): "},
		{&in.nationality, "Nationality: "},
		{&in.country, "Country of residence: "},
	}
	for _, f := range fields {
		v, err := c.ask(*f.dst, f.prompt)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	first, last, err := validation.SplitFullName(in.fullName)
	if err != nil {
		return err
	}

	password, interactive, err := c.getPassword(in.passwords, "Password: ")
	if err != nil {
		return err
	}
	confirm := password
	if interactive {
		if confirm, err = c.io.ReadPassword("Confirm password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if err := validation.ValidatePassword(password, confirm); err != nil {
		return err
	}

	res := c.client.RegisterStudent(ctx, api.StudentRegisterRequest{
		User: api.Account{
			Username:  in.username,
			Email:     in.email,
			Password:  password,
			FirstName: first,
			LastName:  last,
		},
		Phone:              validation.NormalizePhone(in.phone),
		Nationality:        in.nationality,
		CountryOfResidence: in.country,
	})
	if res.Error != nil {
		return fmt.Errorf("registration failed: %w", res.Error)
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Println("Run 'scholardesk login' to sign in.")
	return nil
}

func newStatusCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			return c.runStatus(cmd.Context())
		}),
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()
	c.io.Printf("API: %s\n", c.client.BaseURL())

	if !c.session.IsAuthenticated(ctx) {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'scholardesk login' to authenticate.")
		return nil
	}

	c.io.Println("Status: Authenticated")
	user, err := c.session.CurrentUser(ctx)
	switch {
	case err == nil:
		c.printUser(*user)
	case errors.Is(err, auth.ErrNoUser):
		c.io.Println("User: unknown (run 'scholardesk profile')")
	default:
		return fmt.Errorf("failed to read user: %w", err)
	}

	expiresAt, err := c.session.AccessExpiry(ctx)
	if err != nil {
		// Токен без exp или не JWT: показываем статус без срока
		return nil
	}
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	if remaining := expiresAt.Sub(c.now()); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Access token has expired; it will be refreshed on the next request.")
	}
	return nil
}

func newProfileCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Fetch the current user profile",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			ctx := cmd.Context()
			if err := c.require(ctx, auth.RoleAny); err != nil {
				return err
			}
			res := c.client.Profile(ctx)
			if res.Error != nil {
				return res.Error
			}
			if res.Data == nil {
				return errors.New("empty profile response")
			}
			c.printUser(*res.Data)
			return nil
		}),
	}
}
