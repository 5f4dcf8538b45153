package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/nexus/internal/credentials"
	"github.com/sadopc/nexus/internal/store"
	"github.com/sadopc/nexus/internal/weather"
)

func newWeatherCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Print current conditions for the selected location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				r, err := env.Weather().Current(ctx)
				if errors.Is(err, weather.ErrNotConfigured) {
					return fmt.Errorf("%w: run `nexus secret set weather <key>` and add a location in the settings view", err)
				}
				if err != nil {
					return err
				}

				temp, speed := "°C", "m/s"
				if r.Units == store.UnitsImperial {
					temp, speed = "°F", "mph"
				}
				d := r.Data
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %.0f%s, %s\n", r.Location, d.Temp, temp, d.Description)
				fmt.Fprintf(out, "humidity %d%%, wind %.1f %s\n", d.Humidity, d.WindSpeed, speed)
				for _, day := range d.Forecast {
					fmt.Fprintf(out, "  %s  %.0f%s\n", day.Date, day.Temp, temp)
				}
				if r.Cached {
					fmt.Fprintln(out, "(cached)")
				}
				return nil
			})
		},
	}
}

// secretNames maps command-line names to keyring entries.
var secretNames = map[string]string{
	"weather": credentials.WeatherAPIKeyName,
}

func secretName(arg string) (string, error) {
	name, ok := secretNames[arg]
	if !ok {
		return "", fmt.Errorf("unknown secret %q (known: weather)", arg)
	}
	return name, nil
}

func newSecretCommand() *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets in the system keyring",
	}

	secretCmd.AddCommand(&cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a secret value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := secretName(args[0])
			if err != nil {
				return err
			}
			if err := credentials.Set(name, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", args[0])
			return nil
		},
	})

	secretCmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := secretName(args[0])
			if err != nil {
				return err
			}
			if err := credentials.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	})

	return secretCmd
}

// shortID is the id prefix shown in listings. Any unique prefix is accepted
// back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newTodoCommand(open Opener) *cobra.Command {
	todoCmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage todos",
	}

	addCmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				t, err := env.Store.CreateTodo(ctx, strings.Join(args, " "), category)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s\n", shortID(t.ID), t.Text)
				return nil
			})
		},
	}
	addCmd.Flags().StringP("category", "c", "", "Category (work, personal, urgent, later)")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo's completed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				t, err := env.Store.ToggleTodo(ctx, args[0])
				if err != nil {
					return err
				}
				state := "open"
				if t.Completed {
					state = "done"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s is %s\n", shortID(t.ID), t.Text, state)
				return nil
			})
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				if err := env.Store.DeleteTodo(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				todos := store.Get(ctx, env.Store, store.KeyTodos)
				out := cmd.OutOrStdout()
				if len(todos) == 0 {
					fmt.Fprintln(out, "No todos")
					return nil
				}
				for _, t := range todos {
					box := "[ ]"
					if t.Completed {
						box = "[x]"
					}
					line := fmt.Sprintf("%s %s  %s", box, shortID(t.ID), t.Text)
					if t.Category != "" {
						line += "  #" + t.Category
					}
					fmt.Fprintln(out, line)
				}
				done, total := store.CountTodos(todos)
				fmt.Fprintf(out, "%d/%d done\n", done, total)
				return nil
			})
		},
	}

	todoCmd.AddCommand(addCmd, doneCmd, rmCmd, lsCmd)
	return todoCmd
}
