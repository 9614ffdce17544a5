package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	apiclient "github.com/iudanet/scholardesk/internal/client/api"
	"github.com/iudanet/scholardesk/internal/client/app"
	"github.com/iudanet/scholardesk/internal/client/config"
	"github.com/iudanet/scholardesk/internal/client/iocli"
)

type rootFlags struct {
	configPath string
	apiURL     string
	storage    string
	dbPath     string
	logLevel   string
	logFormat  string
	timeout    time.Duration
	metrics    bool
}

// root держит состояние одного запуска: конфиг, собранное приложение и Cli
type root struct {
	io      iocli.IO
	app     *app.App
	cli     *Cli
	appOpts []app.Option
	flags   rootFlags
}

// NewRootCommand собирает дерево команд. opts передаются в app.New
func NewRootCommand(io iocli.IO, version string, opts ...app.Option) *cobra.Command {
	r := &root{io: io, appOpts: opts}

	cmd := &cobra.Command{
		Use:               "scholardesk",
		Short:             "Scholarship portal client",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.open,
	}
	cmd.SetOut(io)

	f := cmd.PersistentFlags()
	f.StringVar(&r.flags.configPath, "config", "", "path to YAML config (default $SCHOLARDESK_CONFIG or ./scholardesk.yaml)")
	f.StringVar(&r.flags.apiURL, "api-url", "", "API base URL (default $SCHOLARDESK_API_URL or http://localhost:8000/api)")
	f.StringVar(&r.flags.storage, "storage", "", "session storage backend: memory, bolt, sqlite or redis")
	f.StringVar(&r.flags.dbPath, "db", "", "path to local database for the bolt and sqlite backends")
	f.StringVar(&r.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&r.flags.logFormat, "log-format", "", "log format: console or json")
	f.DurationVar(&r.flags.timeout, "timeout", 0, "HTTP timeout")
	f.BoolVar(&r.flags.metrics, "metrics", false, "print client metrics to stderr on exit")

	cmd.AddCommand(
		newLoginCommand(r),
		newLogoutCommand(r),
		newSignupCommand(r),
		newStatusCommand(r),
		newProfileCommand(r),
		newScholarshipsCommand(r),
		newAdminCommand(r),
		newCacheCommand(r),
	)
	return cmd
}

// open загружает конфиг, применяет флаги и открывает хранилище
func (r *root) open(cmd *cobra.Command, _ []string) error {
	if !cmd.Runnable() || cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.Load(r.flags.configPath)
	if err != nil {
		return err
	}
	r.apply(cmd, cfg)

	a, err := app.New(cmd.Context(), cfg, r.appOpts...)
	if err != nil {
		return err
	}
	r.app = a
	r.cli = New(r.io, a.Client, a.Session)
	return nil
}

// apply: флаги командной строки перекрывают конфиг
func (r *root) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("api-url") {
		cfg.API.BaseURL = r.flags.apiURL
	}
	if f.Changed("storage") {
		cfg.Storage.Backend = r.flags.storage
	}
	if f.Changed("db") {
		cfg.Storage.Path = r.flags.dbPath
	}
	if f.Changed("log-level") {
		cfg.Log.Level = r.flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = r.flags.logFormat
	}
	if f.Changed("timeout") && r.flags.timeout > 0 {
		cfg.API.Timeout = r.flags.timeout
	}
}

func (r *root) close(cmd *cobra.Command) error {
	if r.app == nil {
		return nil
	}
	if r.flags.metrics {
		if err := r.dumpMetrics(cmd); err != nil {
			return err
		}
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// dumpMetrics печатает счетчики клиента в текстовом формате Prometheus
func (r *root) dumpMetrics(cmd *cobra.Command) error {
	families, err := r.app.Registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// run оборачивает RunE: команда получает собранный Cli, хранилище
// закрывается и при ошибке команды
func (r *root) run(fn func(cmd *cobra.Command, c *Cli, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, r.cli, args)
		if errors.Is(err, apiclient.ErrAuthFailed) {
			// сессия уже очищена клиентом
			err = fmt.Errorf("%w. Please run 'scholardesk login' again", err)
		}
		return errors.Join(err, r.close(cmd))
	}
}
