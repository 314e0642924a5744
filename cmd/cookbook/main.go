// Command cookbook is a terminal client for recipehub: it searches Forkify,
// browses and submits community recipes, and keeps a local favorites list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"recipehub/client"
	"recipehub/logging"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cookbook:", err)
		os.Exit(1)
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cookbook-state.json"
	}
	return filepath.Join(home, ".cookbook", "state.json")
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    "cookbook",
		Usage:   "Search, save and share recipes",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:5000",
				Usage:   "recipehub API base URL",
				Sources: cli.EnvVars("RECIPEHUB_API_URL", "API_URL"),
			},
			&cli.StringFlag{
				Name:    "forkify-url",
				Value:   client.DefaultForkifyURL,
				Usage:   "Forkify API base URL",
				Sources: cli.EnvVars("FORKIFY_URL"),
			},
			&cli.StringFlag{
				Name:    "state",
				Value:   defaultStatePath(),
				Usage:   "path of the local state file",
				Sources: cli.EnvVars("COOKBOOK_STATE"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   client.DefaultTimeout,
				Usage:   "HTTP request timeout",
				Sources: cli.EnvVars("HTTP_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "log level (debug, info, warn, error)",
			},
			formatFlag,
		},
		Commands: []*cli.Command{
			searchCmd(),
			showCmd(),
			registerCmd(),
			loginCmd(),
			logoutCmd(),
			communityCmd(),
			submitCmd(),
			reviewCmd(),
			saveCmd(),
			unsaveCmd(),
			savedCmd(),
			favoritesCmd(),
			favCmd(),
			statsCmd(),
			cardCmd(),
		},
	}
}

// app bundles what every command needs. It is built per invocation from
// the root flags.
type app struct {
	state   *client.AppState
	api     *client.API
	forkify *client.Forkify
	out     *printer
	log     *zap.Logger
}

func newApp(cmd *cli.Command) (*app, error) {
	format, err := parseFormat(cmd.String("format"))
	if err != nil {
		return nil, err
	}
	log := logging.New(cmd.String("log-level"), "console")

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = client.DefaultTimeout
	}
	hc := client.NewHTTPClient(timeout)
	fk := client.NewForkify(cmd.String("forkify-url"), hc)

	state, err := client.LoadState(cmd.String("state"),
		client.WithSearcher(fk),
		client.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	api := client.NewAPI(cmd.String("api-url"), hc)
	if sess := state.Session(); sess != nil {
		api.SetToken(sess.Token)
	}
	return &app{
		state:   state,
		api:     api,
		forkify: fk,
		out:     newPrinter(os.Stdout, format),
		log:     log,
	}, nil
}

func (a *app) requireSession() (*client.Session, error) {
	sess := a.state.Session()
	if sess == nil {
		return nil, fmt.Errorf("not logged in; run `cookbook login` first")
	}
	return sess, nil
}

// save persists the state; a failure is reported but does not fail the command.
func (a *app) save() {
	if err := a.state.Save(); err != nil {
		a.log.Warn("could not save local state", zap.Error(err))
	}
}
