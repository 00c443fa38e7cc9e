package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/conduitplatform/conduit-cli/internal/shell/admin"
	"github.com/conduitplatform/conduit-cli/internal/shell/demo"
	"github.com/conduitplatform/conduit-cli/internal/shell/docker"
	"github.com/conduitplatform/conduit-cli/internal/shell/github"
	"github.com/conduitplatform/conduit-cli/internal/shell/portalloc"
	"github.com/conduitplatform/conduit-cli/internal/shell/prompt"
	"github.com/conduitplatform/conduit-cli/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitRuntimeError = 2
	ExitDockerError  = 3
	ExitStoreError   = 4

	// ExitCanceled is used when the user declines to replace a demo.
	// Declining is a normal outcome.
	ExitCanceled = ExitSuccess
)

// =============================================================================
// App
// =============================================================================

// IO is the terminal the CLI talks to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App holds the collaborators of one CLI invocation.
type App struct {
	config  *Config
	docker  docker.Client
	history *store.SQLiteHistory
	demo    *demo.Service
	io      IO
	logger  *slog.Logger
}

// NewApp connects the collaborators a command needs. Docker is only
// contacted when withDocker is set, so export and history work without a
// running daemon.
func NewApp(ctx context.Context, cfg *Config, logger *slog.Logger, tio IO, withDocker bool) (*App, error) {
	app := &App{config: cfg, io: tio, logger: logger}

	deps := demo.Deps{
		Plans:    store.NewFileStore(cfg.ConfigDir),
		Prompter: prompt.New(tio.In, tio.Out),
		Out:      tio.Out,
	}

	if cfg.History.Enabled {
		h, err := store.NewSQLiteHistory(cfg.History.DSN)
		if err != nil {
			return nil, &AppError{Op: "NewApp", Err: err, ExitCode: ExitStoreError}
		}
		app.history = h
		deps.History = h
	}

	releases, err := github.NewClient(github.Config{
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHub.Timeout,
	}, logger)
	if err != nil {
		app.Close()
		return nil, &AppError{Op: "NewApp", Err: err, ExitCode: ExitConfigError}
	}
	deps.Releases = releases

	var runtime demo.ContainerRuntime
	if withDocker {
		d, err := docker.NewDockerClient(ctx, cfg.Docker.Host)
		if err != nil {
			app.Close()
			return nil, &AppError{Op: "NewApp", Err: err, ExitCode: ExitDockerError}
		}
		app.docker = d

		if err := d.Ping(ctx); err != nil {
			app.Close()
			return nil, &AppError{Op: "NewApp", Err: err, ExitCode: ExitDockerError}
		}

		runtime = docker.NewRuntime(d, logger)
		deps.Deployer = docker.NewOrchestrator(d, logger)
	}

	deps.Synthesizer = demo.NewSynthesizer(portalloc.New(logger), runtime, cfg.SynthesizerConfig(), logger)
	app.demo = demo.NewService(deps, logger)
	return app, nil
}

// Close releases the Docker client and the history database.
func (a *App) Close() {
	if a.docker != nil {
		if err := a.docker.Close(); err != nil {
			a.logger.Warn("failed to close docker client", "error", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close history", "error", err)
		}
	}
}

// AdminClient returns a client for the demo's admin API. Without an
// explicit admin.url, the Core HTTP host port of the stored plan is used.
func (a *App) AdminClient(ctx context.Context) (*admin.Client, error) {
	url := a.config.Admin.URL
	if url == "" {
		plan, err := a.demo.Plan(ctx)
		if err != nil {
			return nil, err
		}
		url, err = coreURL(plan)
		if err != nil {
			return nil, err
		}
	}
	return admin.NewClient(admin.Config{
		BaseURL:   url,
		MasterKey: a.config.Admin.MasterKey,
		Timeout:   a.config.Admin.Timeout,
	}, a.logger), nil
}

// coreURL is the host URL of Core's HTTP port.
func coreURL(plan deployment.Plan) (string, error) {
	core, ok := plan.Package(catalog.Core)
	if !ok {
		return "", errors.New("plan has no Core package")
	}
	cp, err := deployment.NewCorePorts(core.Ports)
	if err != nil {
		return "", err
	}
	return "http://localhost:" + strconv.Itoa(cp.HTTP.HostPort), nil
}

// AppError represents an error while setting up or running a command.
type AppError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *AppError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	var appErr *AppError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, demo.ErrSetupCanceled):
		return ExitCanceled
	case errors.As(err, &appErr):
		return appErr.ExitCode
	case errors.Is(err, errUsage):
		return ExitConfigError
	default:
		return ExitRuntimeError
	}
}

// errUsage marks command line mistakes.
var errUsage = errors.New("usage error")

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
