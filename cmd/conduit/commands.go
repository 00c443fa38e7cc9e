package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/compose"
	"github.com/conduitplatform/conduit-cli/internal/core/monitoring"
	"github.com/conduitplatform/conduit-cli/internal/shell/demo"
	"github.com/conduitplatform/conduit-cli/internal/shell/docker"
	"github.com/conduitplatform/conduit-cli/internal/shell/store"
)

// CLI

func demoCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:         "demo",
		Usage:        "Manages the local demo deployment",
		Action:       groupAction("demo"),
		OnUsageError: usageError,
		Subcommands: []*cli.Command{
			{
				Name:     "setup",
				Category: "Deploy",
				Usage:    "Bootstraps a local demo deployment",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "config",
						Usage: "Enables manual deployment configuration",
					},
				},
				OnUsageError: usageError,
				Action:       s.withApp(true, demoSetupAction),
			},
			{
				Name:         "start",
				Category:     "Deploy",
				Usage:        "Starts the demo containers",
				OnUsageError: usageError,
				Action:       s.withApp(true, demoStartAction),
			},
			{
				Name:         "stop",
				Category:     "Deploy",
				Usage:        "Stops the demo containers",
				OnUsageError: usageError,
				Action:       s.withApp(true, demoStopAction),
			},
			{
				Name:         "status",
				Category:     "Inspect",
				Usage:        "Shows the demo containers",
				OnUsageError: usageError,
				Action:       s.withApp(true, demoStatusAction),
			},
			{
				Name:         "cleanup",
				Aliases:      []string{"rm"},
				Category:     "Deploy",
				Usage:        "Removes the demo containers, network and plan",
				OnUsageError: usageError,
				Action:       s.withApp(true, demoCleanupAction),
			},
			{
				Name:     "export",
				Category: "Inspect",
				Usage:    "Writes the demo as a compose file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Writes the compose file here instead of stdout",
					},
					&cli.StringFlag{
						Name:  "project",
						Value: compose.DefaultProjectName,
						Usage: "Compose project name",
					},
				},
				OnUsageError: usageError,
				Action:       s.withApp(false, demoExportAction),
			},
			{
				Name:     "history",
				Category: "Inspect",
				Usage:    "Lists previous setups",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: store.DefaultListOptions().Limit,
						Usage: "Maximum number of setups to list",
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of setups to skip",
					},
				},
				OnUsageError: usageError,
				Action:       s.withApp(false, demoHistoryAction),
			},
		},
	}
}

func adminCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:         "admin",
		Usage:        "Talks to the admin API of the demo",
		Action:       groupAction("admin"),
		OnUsageError: usageError,
		Subcommands: []*cli.Command{
			{
				Name:         "health",
				Usage:        "Checks the admin API",
				OnUsageError: usageError,
				Action:       s.withApp(false, adminHealthAction),
			},
			{
				Name:  "init",
				Usage: "Logs in and bootstraps the CLI security client",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "username",
						Value: "admin",
						Usage: "Admin username",
					},
					&cli.StringFlag{
						Name:  "password",
						Value: "admin",
						Usage: "Admin password",
					},
				},
				OnUsageError: usageError,
				Action:       s.withApp(false, adminInitAction),
			},
		},
	}
}

// =============================================================================
// Demo Commands
// =============================================================================

func demoSetupAction(ctx context.Context, c *cli.Context, app *App) error {
	result, err := app.demo.Setup(ctx, demo.SetupOptions{Configure: c.Bool("config")})
	if err != nil {
		return err
	}

	printContainers(app, result.Containers)
	if ui, ok := result.Plan.Package(catalog.UI); ok && len(ui.Ports) > 0 {
		fmt.Fprintf(app.io.Out, "\nConduit UI is available at http://localhost:%d\n", ui.Ports[0].HostPort)
	}
	return nil
}

func demoStartAction(ctx context.Context, _ *cli.Context, app *App) error {
	states, err := app.demo.Start(ctx)
	if err != nil {
		return err
	}
	printContainers(app, states)
	return nil
}

func demoStopAction(ctx context.Context, _ *cli.Context, app *App) error {
	if err := app.demo.Stop(ctx); err != nil {
		return err
	}
	fmt.Fprintln(app.io.Out, "Demo deployment stopped.")
	return nil
}

func demoStatusAction(ctx context.Context, _ *cli.Context, app *App) error {
	states, err := app.demo.Status(ctx)
	if err != nil {
		return err
	}
	printContainers(app, states)

	statuses := make([]string, len(states))
	for i, s := range states {
		statuses[i] = string(s.Status)
	}
	fmt.Fprintf(app.io.Out, "\nDemo is %s\n", monitoring.Summary(statuses))
	return nil
}

func demoCleanupAction(ctx context.Context, _ *cli.Context, app *App) error {
	if err := app.demo.Cleanup(ctx); err != nil {
		return err
	}
	fmt.Fprintln(app.io.Out, "Demo deployment removed.")
	return nil
}

func demoExportAction(ctx context.Context, c *cli.Context, app *App) error {
	data, err := app.demo.Export(ctx, c.String("project"))
	if err != nil {
		return err
	}
	output := c.String("output")
	if output == "" {
		_, err = app.io.Out.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write compose file: %w", err)
	}
	fmt.Fprintf(app.io.Out, "Compose file written to %s\n", output)
	return nil
}

func demoHistoryAction(ctx context.Context, c *cli.Context, app *App) error {
	records, err := app.demo.History(ctx, store.ListOptions{Limit: c.Int("limit"), Offset: c.Int("offset")})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(app.io.Out, "No setups recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(app.io.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tENGINE\tCONDUIT\tUI\tPACKAGES")
	for _, r := range records {
		pkgs := make([]string, len(r.Packages))
		for i, id := range r.Packages {
			pkgs[i] = string(id)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Engine, r.ConduitTag, r.UITag, strings.Join(pkgs, ","))
	}
	return tw.Flush()
}

func printContainers(app *App, states []docker.ContainerState) {
	tw := tabwriter.NewWriter(app.io.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tCONTAINER\tSTATUS\tPORTS")
	for _, s := range states {
		ports := make([]string, len(s.Ports))
		for i, p := range s.Ports {
			ports[i] = p.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Package, s.Name, s.Status, strings.Join(ports, ","))
	}
	tw.Flush()
}

// =============================================================================
// Admin Commands
// =============================================================================

func adminHealthAction(ctx context.Context, _ *cli.Context, app *App) error {
	client, err := app.AdminClient(ctx)
	if err != nil {
		return err
	}
	if !client.HealthCheck(ctx) {
		return fmt.Errorf("admin API is not reachable")
	}
	fmt.Fprintln(app.io.Out, "Admin API is healthy.")
	return nil
}

func adminInitAction(ctx context.Context, c *cli.Context, app *App) error {

	client, err := app.AdminClient(ctx)
	if err != nil {
		return err
	}
	if err := client.Initialize(ctx, c.String("username"), c.String("password")); err != nil {
		return err
	}

	fmt.Fprintln(app.io.Out, "Logged in.")
	if sc := client.SecurityClient(); sc != nil {
		fmt.Fprintf(app.io.Out, "Client ID:\t%s\nClient Secret:\t%s\n", sc.ClientID, sc.ClientSecret)
	} else {
		fmt.Fprintln(app.io.Out, "Client validation is disabled.")
	}
	return nil
}
