package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/nexus/internal/export"
	"github.com/sadopc/nexus/internal/store"
)

func newGetCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print a record as JSON, or list the record keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range store.KeyNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				v, err := env.Store.GetByName(ctx, args[0])
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return fmt.Errorf("encode %s: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func newSetCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Replace a record with a JSON value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				if err := env.Store.SetJSON(ctx, args[0], []byte(args[1])); err != nil {
					return err
				}
				env.Log.WithKey(args[0]).Info("record replaced")
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
				return nil
			})
		},
	}
}

func newDumpCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write a backup of every record to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("format")
			f, err := export.ParseFormat(name)
			if err != nil {
				return err
			}
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				return export.Write(cmd.OutOrStdout(), env.Store.GetAll(ctx), f, time.Now())
			})
		},
	}
	cmd.Flags().String("format", string(export.FormatJSON), "Backup format (json, yaml)")
	return cmd
}

func newImportCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore the records contained in a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.FormatForPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open backup: %w", err)
			}
			defer file.Close()

			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				n, err := export.Import(ctx, env.Store, file, f)
				if err != nil {
					return err
				}
				env.Log.Infow("backup imported", "file", args[0], "records", n)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", n)
				return nil
			})
		},
	}
}

func newResetCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record, restoring defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("reset deletes all data; pass --yes to confirm")
			}
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				if err := env.Store.ClearAll(ctx); err != nil {
					return err
				}
				env.Log.Info("all records cleared")
				fmt.Fprintln(cmd.OutOrStdout(), "All records cleared")
				return nil
			})
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm deleting all data")
	return cmd
}

func newExportCommand(open Opener) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export records in other formats",
	}

	csvCmd := &cobra.Command{
		Use:       "csv <todos|links>",
		Short:     "Write todos or quick links as CSV",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"todos", "links"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("output")
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				return writeOutput(cmd.OutOrStdout(), path, func(w io.Writer) error {
					if args[0] == "todos" {
						return export.TodosToCSV(w, store.Get(ctx, env.Store, store.KeyTodos))
					}
					return export.LinksToCSV(w, store.Get(ctx, env.Store, store.KeyQuickLinks))
				})
			})
		},
	}
	csvCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")

	exportCmd.AddCommand(csvCmd)
	return exportCmd
}

// writeOutput runs write against path, or against stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if strings.TrimSpace(path) == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
