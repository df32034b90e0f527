package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/metrics"
	"github.com/matzehuels/treeflow/pkg/server"
	"github.com/matzehuels/treeflow/pkg/session"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr      string
	noMetrics bool
	noCache   bool
}

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solve API over HTTP",
		Long: `Serve exposes solving, rendering, the document store and live editing
sessions over HTTP. Prometheus metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr := c.Config.Addr
			if opts.addr != "" {
				addr = opts.addr
			}
			timeout, err := c.Config.TimeoutDuration()
			if err != nil {
				return err
			}
			ttl, err := c.Config.SessionTTLDuration()
			if err != nil {
				return err
			}

			runner, closeStores, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer closeStores()

			reg := components.Default()
			sessions := session.NewManager(reg, ttl)
			sessions.SetLogger(c.Logger)

			var m *metrics.Metrics
			if !opts.noMetrics {
				promReg := prometheus.NewRegistry()
				promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m = metrics.New(promReg)
				m.Install()
			}

			srv := server.New(server.Config{
				Registry: reg,
				Docs:     runner.Docs,
				Cache:    runner.Cache,
				Sessions: sessions,
				Metrics:  m,
				Logger:   c.Logger,
				Timeout:  timeout,
			})
			c.Logger.Info("serving", "addr", addr, "store", c.Config.Store, "metrics", m != nil)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}
