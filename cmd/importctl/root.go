package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammadpnp/patient-import/internal/bootstrap"
	"github.com/mohammadpnp/patient-import/internal/config"
	"github.com/mohammadpnp/patient-import/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Run and inspect patient imports without the HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newCancelCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// openApp loads configuration from the environment and wires the application.
// The returned func releases the database handles and flushes the logger.
func openApp(cmd *cobra.Command) (*bootstrap.App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.InitLog(logging.ParseLevel(cfg.Service.LogLevel))
	undo := zap.ReplaceGlobals(logger)

	a, err := bootstrap.NewApp(cmd.Context(), cfg)
	if err != nil {
		undo()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		_ = logger.Sync()
		undo()
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
