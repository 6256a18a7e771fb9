package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tle_judge/internal/app/bootstrap"
	"tle_judge/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "judgectl",
		Short:         "Operate the judge: schema, evaluations and standings",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(migrateCmd(), processCmd(), requeueCmd(), leaderboardCmd(), queueCmd())
	return root
}

// withApp loads configuration, connects and runs fn with a signal-aware context.
func withApp(fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg := config.Load()
	zlog, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
				return nil
			})
		},
	}
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <submission-id>",
		Short: "Evaluate a Pending submission in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				sub, err := app.Evaluation.ProcessSubmission(ctx, args[0])
				if sub != nil {
					if perr := printJSON(cmd, sub); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func requeueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <submission-id>...",
		Short: "Push Pending submissions back onto the evaluation queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				for _, id := range args {
					if _, err := app.Submissions.RequeueSubmission(ctx, id, "", true); err != nil {
						app.Log.Error("requeue failed", zap.String("submission_id", id), zap.Error(err))
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", id)
				}
				return nil
			})
		},
	}
}

func leaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard <contest-id>",
		Short: "Print the computed standings of a contest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				rows, err := app.Contests.ComputeLeaderboard(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			})
		},
	}
}

func queueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show the evaluation queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				n, err := app.Queue.Len(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pending\n", app.Queue.Name(), n)
				return nil
			})
		},
	}
}
