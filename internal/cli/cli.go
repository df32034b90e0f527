// Package cli implements the treeflow command-line interface.
//
// Commands load dataflow documents from files or a document store, solve
// them, print component outputs and render node-link diagrams. The serve
// command exposes the same operations over HTTP.
//
// Configuration comes from a TOML file (see [Config]); flags override it.
// Logging uses charmbracelet/log on stderr; command output goes to stdout.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treeflow/pkg/buildinfo"
	"github.com/matzehuels/treeflow/pkg/pipeline"
	"github.com/matzehuels/treeflow/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "treeflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	status     io.Writer
	configPath string
	storeURL   string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
		status: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Treeflow solves dataflow graphs of components and data trees",
		Long:          `Treeflow is a CLI tool for solving dataflow documents: components exchange path-addressed data trees along typed connections, and are solved in topological order.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+defaultConfigPath()+")")
	root.PersistentFlags().StringVar(&c.storeURL, "store", "", "document store URL (overrides config)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() error {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.storeURL != "" {
		cfg.Store = c.storeURL
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.SetLogLevel(level)
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner opens the configured stores and creates a pipeline runner. The
// returned close function releases both stores.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, func(), error) {
	docs, err := store.Open(ctx, c.Config.Store)
	if err != nil {
		return nil, nil, err
	}
	cache := c.openCache(ctx, noCache)
	closeAll := func() {
		docs.Close()
		cache.Close()
	}
	return pipeline.NewRunner(nil, docs, cache, c.Logger), closeAll, nil
}

// openCache opens the artifact cache. A cache that cannot be opened is
// logged and replaced by a NullStore, since rendering works without it.
func (c *CLI) openCache(ctx context.Context, noCache bool) store.Store {
	if noCache || c.Config.Cache == "" {
		return store.NewNullStore()
	}
	cache, err := store.Open(ctx, c.Config.Cache)
	if err != nil {
		c.Logger.Warn("artifact cache unavailable", "url", c.Config.Cache, "err", err)
		return store.NewNullStore()
	}
	return cache
}

// execute runs the pipeline with a spinner on the status writer that
// follows the solve pass.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSolveSpinner(c.status, "Solving")
	spinner.Start(ctx)
	defer spinner.Stop()
	return runner.Execute(ctx, opts)
}

// =============================================================================
// Paths
// =============================================================================

// xdgDir returns $env/treeflow, or ~/fallback/treeflow when env is unset.
func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/treeflow/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/treeflow/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// dataDir returns the data directory (~/.local/share/treeflow/).
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// parseSets parses repeated --set flags.
func parseSets(raw []string) ([]pipeline.Set, error) {
	sets := make([]pipeline.Set, 0, len(raw))
	for _, s := range raw {
		set, err := pipeline.ParseSet(s)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// sourceOptions fills the document source of opts from a positional file
// argument or the --key flag.
func sourceOptions(opts *pipeline.Options, args []string, key string) {
	if len(args) > 0 {
		opts.Path = args[0]
	}
	opts.Key = key
}
