// Package cli implements the scholardesk terminal commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	apiclient "github.com/iudanet/scholardesk/internal/client/api"
	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/client/iocli"
	"github.com/iudanet/scholardesk/pkg/api"
)

// EnvPassword переменная окружения с паролем для неинтерактивного входа
const EnvPassword = "SCHOLARDESK_PASSWORD"

// Cli runs commands against one API client and session
type Cli struct {
	io      iocli.IO
	client  *apiclient.Client
	session *auth.Store
	now     func() time.Time
}

// New создает Cli
func New(io iocli.IO, client *apiclient.Client, session *auth.Store) *Cli {
	return &Cli{
		io:      io,
		client:  client,
		session: session,
		now:     time.Now,
	}
}

// Passwords lists the non-interactive password sources of a command
type Passwords struct {
	FromFile string
	FromArgs string
}

// getPassword читает пароль из источников по приоритету:
// 1. переменная окружения SCHOLARDESK_PASSWORD
// 2. файл из --password-file
// 3. параметр --password
// 4. интерактивный ввод
// interactive сообщает, что пароль введен с терминала
func (c *Cli) getPassword(passwords Passwords, prompt string) (password string, interactive bool, err error) {
	if envPassword := os.Getenv(EnvPassword); envPassword != "" {
		return envPassword, false, nil
	}

	if password, err = passwords.read(); err != nil || password != "" {
		return password, false, err
	}

	password, err = c.io.ReadPassword(prompt)
	if err != nil {
		return "", true, fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", true, fmt.Errorf("password cannot be empty")
	}
	return password, true, nil
}

// read возвращает пароль из файла или аргумента; "" если ни один не задан
func (p Passwords) read() (string, error) {
	if p.FromFile != "" {
		content, err := os.ReadFile(p.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}
	return p.FromArgs, nil
}

// ask возвращает value, а если оно пустое, спрашивает у пользователя
func (c *Cli) ask(value, prompt string) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	v, err := c.io.ReadInput(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return v, nil
}

// confirm спрашивает подтверждение; yes пропускает вопрос
func (c *Cli) confirm(yes bool, prompt string) (bool, error) {
	if yes {
		return true, nil
	}
	answer, err := c.io.ReadInput(prompt + " [y/N]: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// require проверяет роль текущего пользователя до обращения к API
func (c *Cli) require(ctx context.Context, role auth.Role) error {
	_, err := c.requireUser(ctx, role)
	return err
}

func (c *Cli) requireUser(ctx context.Context, role auth.Role) (*api.User, error) {
	user, err := c.session.RequireRole(ctx, role)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return nil, fmt.Errorf("not authenticated. Please run 'scholardesk login' first")
	}
	return user, err
}

// writeOutput пишет data в файл path или в терминал, если path пустой или "-"
func (c *Cli) writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(c.io)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	c.io.Printf("✓ Saved to %s\n", path)
	return nil
}

// exportName строит имя файла выгрузки по умолчанию
func (c *Cli) exportName(prefix string) string {
	return fmt.Sprintf("%s_%s.csv", prefix, c.now().Format("2006-01-02"))
}
