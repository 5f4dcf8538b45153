// Package cli wires configuration, logging and storage into the nexus
// command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/nexus/internal/backend"
	"github.com/sadopc/nexus/internal/config"
	"github.com/sadopc/nexus/internal/credentials"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/settings"
	"github.com/sadopc/nexus/internal/store"
	"github.com/sadopc/nexus/internal/tui"
	"github.com/sadopc/nexus/internal/weather"
)

// Env is everything a command runs against.
type Env struct {
	Config *config.Config
	Log    *logger.Logger
	Store  *store.Store
}

func (e *Env) Close() error {
	_ = e.Log.Sync()
	return e.Store.Close()
}

// Weather builds the weather service over the env's store and config. The API
// key falls back to the system keyring.
func (e *Env) Weather() *weather.Service {
	return weather.NewService(e.Store, weather.NewClient(e.Config.Weather),
		weather.WithKeySource(credentials.WeatherKey{}),
		weather.WithLogger(e.Log),
	)
}

// Opener builds an Env for one command invocation.
type Opener func(ctx context.Context) (*Env, error)

// OpenEnv loads configuration, builds the logger and opens the configured
// storage backend.
func OpenEnv(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	b := backend.Open(ctx, cfg, log)
	return &Env{Config: cfg, Log: log, Store: store.New(b, log)}, nil
}

// NewRootCommand returns the nexus command tree. Without a subcommand it runs
// the start page.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "A terminal start page",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			env, err := open(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			env.Log.Infow("starting", "backend", env.Config.Storage.Backend)
			return tui.Run(ctx, tui.Deps{
				Store:   env.Store,
				Weather: env.Weather(),
				Scheme:  settings.TerminalColorScheme{},
				Fonts:   settings.NewGoogleFonts(env.Config.Fonts),
				Logger:  env.Log,
			})
		},
	}

	root.AddCommand(
		newGetCommand(open),
		newSetCommand(open),
		newDumpCommand(open),
		newImportCommand(open),
		newResetCommand(open),
		newExportCommand(open),
		newWeatherCommand(open),
		newSecretCommand(),
		newTodoCommand(open),
	)
	return root
}

// withEnv opens an Env for the duration of fn.
func withEnv(cmd *cobra.Command, open Opener, fn func(ctx context.Context, env *Env) error) error {
	ctx := commandContext(cmd)
	env, err := open(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(OpenEnv).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
