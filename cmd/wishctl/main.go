// Command wishctl runs the wish generation steps from a terminal, without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timmy/wishpage/internal/app"
	"github.com/timmy/wishpage/internal/config"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
)

type globalOptions struct {
	configPath string
	wishID     string
}

var (
	opts globalOptions
	// built in PersistentPreRunE, released in PersistentPostRun
	wishApp *app.App
)

var errMissingWishID = errors.New("--id is required")

var rootCmd = &cobra.Command{
	Use:           "wishctl",
	Short:         "Create wishes and run their generation steps",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(logger.SetComponent(cmd.Context(), "wishctl "+cmd.Name()))
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		wishApp, err = app.Build(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if wishApp != nil {
			wishApp.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&opts.wishID, "id", "", "Wish id the command works on")

	rootCmd.AddCommand(createCmd, importCmd, describeCmd, cutePhotosCmd, songCmd, runCmd)
}

// requireWishID is used as PreRunE by every command that works on an existing wish.
func requireWishID(cmd *cobra.Command, args []string) error {
	if opts.wishID == "" {
		return errMissingWishID
	}
	return domain.ValidateWishID(opts.wishID)
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	logger.SetDefaultLogger(logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "wishctl",
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed: %v", err)
		stop()
		os.Exit(1)
	}
}
