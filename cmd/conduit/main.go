package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/conduitplatform/conduit-cli/internal/shell/demo"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}))
}

// session carries what the root command prepares for its subcommands.
type session struct {
	io     IO
	config *Config
	logger *slog.Logger
}

func run(args []string, tio IO) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &session{io: tio}
	err := newCLI(s).RunContext(ctx, append([]string{"conduit"}, args...))

	code := exitCode(err)
	switch {
	case err == nil:
	case errors.Is(err, demo.ErrSetupCanceled):
		s.debug("command canceled")
	default:
		s.debug("command failed", "error", err)
		fmt.Fprintf(tio.Err, "error: %v\n", err)
	}
	return code
}

// newCLI builds the command tree. Errors are returned to run, which maps
// them to exit codes; the library never exits the process itself.
func newCLI(s *session) *cli.App {
	return &cli.App{
		Name:      "conduit",
		Usage:     "bootstrap and manage a local Conduit demo deployment",
		Version:   Version,
		Reader:    s.io.In,
		Writer:    s.io.Out,
		ErrWriter: s.io.Err,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config file",
			},
		},
		Before:         s.load,
		Action:         groupAction(""),
		OnUsageError:   usageError,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			demoCmd(s),
			adminCmd(s),
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintf(c.App.Writer, "conduit version %s (built %s)\n", Version, BuildTime)
					return err
				},
			},
		},
	}
}

// load reads the configuration and sets up logging before any command runs.
func (s *session) load(c *cli.Context) error {
	path := c.String("config")
	cfg, err := LoadConfig(path)
	if err != nil {
		return &AppError{Op: "load config", Err: err, ExitCode: ExitConfigError}
	}
	s.config = cfg
	s.logger = SetupLogger(cfg, s.io.Err)
	s.logger.Debug("starting conduit", "version", Version, "config", path, "config_dir", cfg.ConfigDir)
	return nil
}

func (s *session) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// withApp wraps a command action with the collaborators it needs.
func (s *session) withApp(needsDocker bool, fn func(ctx context.Context, c *cli.Context, app *App) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() > 0 {
			return usagef("unexpected arguments: %s", strings.Join(c.Args().Slice(), " "))
		}
		app, err := NewApp(c.Context, s.config, s.logger, s.io, needsDocker)
		if err != nil {
			s.logger.Error("failed to initialize", "error", err)
			return err
		}
		defer app.Close()
		return fn(c.Context, c, app)
	}
}

// groupAction runs when no known subcommand follows group. The root
// command uses an empty group.
func groupAction(group string) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() == 0 {
			if group == "" {
				return usagef("missing command, see `conduit help`")
			}
			return usagef("missing subcommand for %q, see `conduit %s help`", group, group)
		}
		return usagef("unknown command %q", strings.TrimSpace(group+" "+c.Args().First()))
	}
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return usagef("%v", err)
}
