package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/store"
)

// storeCommand creates the store command for managing stored documents.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage documents in the document store",
		Long: `Store moves documents between files and the configured document store
(file, redis or mongodb; see --store).`,
	}

	cmd.AddCommand(c.storePushCommand())
	cmd.AddCommand(c.storePullCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// withStore opens the document store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	s, err := store.Open(ctx, c.Config.Store)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (c *CLI) storePushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push <file> <key>",
		Short: "Validate a document file and store it under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := doc.Build(components.Default()); err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(s store.Store) error {
				if err := store.SaveDocument(cmd.Context(), s, args[1], doc); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Stored %s as %s", args[0], args[1])
				return nil
			})
		},
	}
}

func (c *CLI) storePullCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "pull <key>",
		Short: "Fetch a stored document",
		Long: `Pull writes the stored document to --output (format from its extension) or
to stdout in --format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				doc, err := store.LoadDocument(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				if output != "" {
					if err := document.WriteFile(doc, output); err != nil {
						return err
					}
					printFile(cmd.OutOrStdout(), output)
					return nil
				}
				f, err := document.ParseFormat(format)
				if err != nil {
					return err
				}
				return document.Write(doc, cmd.OutOrStdout(), f)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file")
	cmd.Flags().StringVarP(&format, "format", "f", string(document.FormatYAML), "stdout format: json, toml, yaml")

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored document keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				keys, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(keys) == 0 {
					printInfo(w, "No documents stored")
					return nil
				}
				_, err = io.WriteString(w, keysList(keys))
				return err
			})
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>...",
		Short: "Delete stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				for _, key := range args {
					if err := s.Delete(cmd.Context(), key); err != nil {
						return err
					}
					printSuccess(cmd.OutOrStdout(), "Deleted %s", key)
				}
				return nil
			})
		},
	}
}
