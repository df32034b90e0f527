package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treeflow/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	solveOpts
	output   string // output file path (or base path for multiple outputs)
	formats  string // comma-separated: dot, svg, png
	detailed bool   // label edges with slot names and nodes with output shapes
	refresh  bool   // bypass the artifact cache
	noCache  bool   // do not read or write the artifact cache
}

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Solve a document and render its node-link diagram",
		Long: `Render solves a document like the solve command, then writes a node-link
diagram of the graph. Solved components are green, unsolved ones red and
disabled ones grey; connections that close a cycle are drawn in red.

Rendered artifacts are cached by document content.`,
		Example: `  treeflow render graph.yaml
  treeflow render graph.yaml -f svg,png -o out/graph
  treeflow render --key demo -f dot --detailed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pOpts, err := opts.options(c, args)
			if err != nil {
				return err
			}
			pOpts.Formats = parseFormats(opts.formats)
			pOpts.Detailed = opts.detailed
			pOpts.Refresh = opts.refresh
			if err := pipeline.ValidateFormats(pOpts.Formats); err != nil {
				return err
			}

			input := opts.key
			if len(args) > 0 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), pOpts, basePath(opts.output, input), opts.noCache)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show slot names and output shapes")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .dot, .png), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return "graph"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, opts pipeline.Options, base string, noCache bool) error {
	runner, closeStores, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer closeStores()

	res, err := c.execute(ctx, runner, opts)
	if err != nil {
		return err
	}

	printReport(w, pipeline.Summarize(res.Report))
	printStats(w, res.Stats, res.CacheInfo.RenderHit)

	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return err
	}
	for _, format := range opts.Formats {
		path := base + "." + format
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(w, path)
	}
	return nil
}
