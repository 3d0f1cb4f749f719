package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/mohammadpnp/patient-import/internal/application/patient"
	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

type runOptions struct {
	File     string
	Strategy string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run --file <path> [--strategy SKIP|UPDATE|FAIL]",
		Short: "Import a .csv or .xlsx file synchronously and print the final job status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.File) == "" {
				return errors.New("--file is required")
			}

			a, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			f, err := os.Open(opts.File)
			if err != nil {
				return fmt.Errorf("open %s: %w", opts.File, err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", opts.File, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			started, err := a.StartImport.Execute(ctx, app.StartPatientImportInput{
				Upload:   app.Upload{FileName: filepath.Base(opts.File), Size: info.Size()},
				Content:  f,
				Strategy: opts.Strategy,
			})
			if err != nil {
				return err
			}

			// A server worker sharing the database may win the claim; the job
			// is then reported as it stands.
			job, err := a.Jobs.Claim(context.WithoutCancel(ctx), started.JobID, a.Config.Import.Lease)
			switch {
			case errors.Is(err, domain.ErrInvalidTransition):
				fmt.Fprintf(cmd.ErrOrStderr(), "import job %s was claimed by another worker\n", started.JobID)
			case err != nil:
				return fmt.Errorf("claim import job %s: %w", started.JobID, err)
			default:
				if err := a.Runner.Run(ctx, job); err != nil {
					return err
				}
			}

			out, err := a.ImportStatus.Execute(context.WithoutCancel(ctx), app.GetImportStatusInput{JobID: started.JobID})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "path to the .csv or .xlsx file")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "SKIP", "duplicate strategy: SKIP, UPDATE or FAIL")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "preview --file <path>",
		Short: "Parse and validate a file without importing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(file) == "" {
				return errors.New("--file is required")
			}

			a, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", file, err)
			}

			out, err := a.PreviewImport.Execute(cmd.Context(), app.PreviewPatientImportInput{
				Upload:  app.Upload{FileName: filepath.Base(file), Size: info.Size()},
				Content: f,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the .csv or .xlsx file")
	return cmd
}
