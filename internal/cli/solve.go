package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/pipeline"
)

// Output styles for the solve command.
const (
	printTable = "table"
	printJSON  = "json"
	printYAML  = "yaml"
)

// solveOpts holds the flags shared by solve and render.
type solveOpts struct {
	key     string   // stored document key instead of a file
	sets    []string // component:slot=value overrides
	mode    string   // full or quick
	save    string   // store the solved document under this key
	print   string   // table, json or yaml
	timeout string   // overrides the configured timeout
}

// solveOutput is the machine-readable solve result.
type solveOutput struct {
	Document string            `json:"document" yaml:"document"`
	Hash     string            `json:"hash" yaml:"hash"`
	Summary  pipeline.Summary  `json:"summary" yaml:"summary"`
	Results  []document.Result `json:"results" yaml:"results"`
}

func (o *solveOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.key, "key", "k", "", "load the document from the store instead of a file")
	cmd.Flags().StringArrayVarP(&o.sets, "set", "s", nil, "override an input: component:slot=value (repeatable)")
	cmd.Flags().StringVar(&o.mode, "mode", pipeline.DefaultMode, "solve mode: full, quick")
	cmd.Flags().StringVar(&o.save, "save", "", "store the solved document under this key")
	cmd.Flags().StringVar(&o.timeout, "timeout", "", "solve timeout (default from config)")
}

// options converts the flags into pipeline options.
func (o *solveOpts) options(c *CLI, args []string) (pipeline.Options, error) {
	opts := pipeline.Options{Mode: o.mode, SaveKey: o.save, Logger: c.Logger}
	sourceOptions(&opts, args, o.key)

	sets, err := parseSets(o.sets)
	if err != nil {
		return opts, err
	}
	opts.Sets = sets

	timeout := c.Config.Timeout
	if o.timeout != "" {
		timeout = o.timeout
	}
	if opts.Timeout, err = parseDuration("timeout", timeout, pipeline.DefaultTimeout); err != nil {
		return opts, err
	}
	return opts, nil
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	opts := solveOpts{print: printTable}

	cmd := &cobra.Command{
		Use:   "solve [file]",
		Short: "Solve a document and print every component's outputs",
		Long: `Solve loads a document from a JSON, TOML or YAML file (or from the store
with --key), applies --set overrides and solves it in topological order.

Component failures do not fail the command; they are listed in the report.
A cycle, an invalid document or a timeout does.`,
		Example: `  treeflow solve graph.yaml
  treeflow solve graph.yaml --set 1:0=2.5 --set "3:1=[1, 2, 3]"
  treeflow solve --key demo --print json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.print {
			case printTable, printJSON, printYAML:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid print style %q (table, json, yaml)", opts.print)
			}
			pOpts, err := opts.options(c, args)
			if err != nil {
				return err
			}
			return c.runSolve(cmd.Context(), cmd.OutOrStdout(), pOpts, opts.print)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.print, "print", "p", opts.print, "output style: table, json, yaml")

	return cmd
}

func (c *CLI) runSolve(ctx context.Context, w io.Writer, opts pipeline.Options, style string) error {
	runner, closeStores, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer closeStores()

	prog := newProgress(c.Logger)
	res, err := c.execute(ctx, runner, opts)
	if err != nil {
		return err
	}
	summary := pipeline.Summarize(res.Report)
	prog.done("solve complete", "solved", len(summary.Solved), "failed", len(summary.Failed))

	switch style {
	case printJSON, printYAML:
		out := solveOutput{
			Document: res.Document.Name,
			Hash:     res.DocumentHash,
			Summary:  summary,
			Results:  res.Results,
		}
		return writeStructured(w, out, style)
	}

	printReport(w, summary)
	printStats(w, res.Stats, false)
	fmt.Fprintln(w, resultsTable(res.Graph))
	if opts.SaveKey != "" {
		printSuccess(w, "Saved as %s", opts.SaveKey)
	}
	return nil
}

// writeStructured encodes v as JSON (indented) or YAML.
func writeStructured(w io.Writer, v any, style string) error {
	if style == printYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
