package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/app"
	"github.com/five82/seer/internal/config"
	"github.com/five82/seer/internal/logging"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	configPath string
	prefsPath  string
	apiURL     string
	verbose    bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	lines  *bufio.Reader

	cfg     config.Config
	log     *zap.Logger
	client  *api.Client
	closers []func()
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{in: in, out: out, errOut: errOut, log: zap.NewNop()}
}

// rootCmd builds the command tree. Call close once it has executed.
func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seer",
		Short: "Client for the fortune analysis service",
		Long: `seer talks to the fortune analysis backend: manage birth profiles,
order expert-system analyses, follow their jobs and read the reports.

Run "seer login" first; tokens are kept in the configured token store and
refreshed automatically.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ~/.config/seer/config.toml)")
	flags.StringVar(&c.prefsPath, "prefs", "", "preferences file (default ~/.config/seer/prefs.toml)")
	flags.StringVar(&c.apiURL, "api-url", "", "backend base URL, overrides config")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "also log to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.authCmd(),
		c.profilesCmd(),
		c.expertsCmd(),
		c.priceCmd(),
		c.ordersCmd(),
		c.jobsCmd(),
		c.reportsCmd(),
		c.watchCmd(),
		c.logsCmd(),
	)
	return root
}

// setup loads config and logging. The API client is created on first use so
// commands like "logs" work without a reachable token store.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if url := strings.TrimSpace(c.apiURL); url != "" {
		cfg.APIURL = url
	}
	c.cfg = cfg

	log, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: c.verbose,
		Stderr:  c.errOut,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	c.log = log.With(zap.String("cmd", cmd.CommandPath()))
	c.closers = append(c.closers, closeLog)
	return nil
}

func (c *cli) api(ctx context.Context) (*api.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	client, closeClient, err := app.Connect(ctx, c.cfg, c.log, func(err error) {
		c.log.Warn("session expired", zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	c.client = client
	c.closers = append(c.closers, closeClient)
	return client, nil
}

// close runs closers in reverse so the logger outlives the client.
func (c *cli) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
