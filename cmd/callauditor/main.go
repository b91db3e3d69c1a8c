package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"call-auditor-go/internal/config"
	"call-auditor-go/internal/dataset"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/pipeline"
	"call-auditor-go/internal/scheduler"
	"call-auditor-go/internal/server"
	"call-auditor-go/internal/types"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	log        *logger.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "callauditor",
	Short:   "Call transcript quality audits",
	Long:    "callauditor transcribes customer calls, scores them against the QA questionnaire and serves dashboard metrics.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		// stdout is reserved for command output
		log = logger.New(logger.Options{Level: level, Environment: cfg.Environment, Output: os.Stderr}).Component("cli")
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ./config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(purgeCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("callauditor", version)
	},
}

// --- serve command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.Scheduler.Enabled {
			sched, err := scheduler.New(a.store, cfg.Scheduler.RetentionSpec, log)
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
		}

		api := server.New(a.processor, a.store, server.Options{MaxUploadMB: cfg.Server.MaxUploadMB, Workers: cfg.Server.Workers}, log)
		srv := &http.Server{
			Addr:         cfg.Addr(),
			Handler:      api.Handler(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.WithField("addr", srv.Addr).Info("listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server terminated: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// --- analyze command ---

var (
	analyzeSave     bool
	analyzeAgent    string
	analyzeCustomer string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <transcript-file|->",
	Short: "Audit a single transcript and print the record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, log, true)
		if err != nil {
			return err
		}
		defer a.Close()

		in := types.CallInput{
			Text:     text,
			Metadata: types.CallMetadata{AgentName: analyzeAgent, CustomerName: analyzeCustomer},
		}

		var rec types.CallAnalysisRecord
		if analyzeSave {
			rec, err = a.processor.ProcessTranscript(ctx, in)
			if err != nil {
				return err
			}
		} else {
			analysis, err := a.analyzer.Analyze(ctx, in.Text)
			if err != nil {
				return err
			}
			rec = types.NewRecord(uuid.New().String(), nil, in.Metadata, types.Transcript{Text: in.Text}, analysis, time.Now())
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Store the record")
	analyzeCmd.Flags().StringVar(&analyzeAgent, "agent", "", "Agent name")
	analyzeCmd.Flags().StringVar(&analyzeCustomer, "customer", "", "Customer name")
}

func readInput(arg string) (string, error) {
	var (
		b   []byte
		err error
	)
	if arg == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	return string(b), nil
}

// --- import command ---

var importWorkers int

var importCmd = &cobra.Command{
	Use:   "import <calls.xlsx>",
	Short: "Audit every transcript row of a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := dataset.LoadTranscripts(args[0])
		if err != nil {
			return err
		}
		log.WithField("file", args[0]).WithField("rows", len(inputs)).Info("loaded transcripts")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a, err := newApp(ctx, cfg, log, true)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := pipeline.Run(ctx, a.processor, inputs, importWorkers, log)
		fmt.Fprintf(cmd.OutOrStdout(), "Processed: %d  Failed: %d  (%s)\n", res.Processed, res.Failed, res.Duration)
		for _, f := range res.Failures {
			fmt.Fprintf(cmd.OutOrStdout(), "  row %d %s: %s\n", f.Row, f.CallID, f.Error)
		}
		return err
	},
}

func init() {
	importCmd.Flags().IntVarP(&importWorkers, "workers", "w", pipeline.DefaultWorkers, "Concurrent analyses")
}

// --- export command ---

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Export all stored audits to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, log, false)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.store.All(cmd.Context())
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(args[0]), 0o755); err != nil {
			return err
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := dataset.ExportRecords(f, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d calls to %s\n", len(records), args[0])
		return nil
	},
}

// --- purge command ---

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete recordings past their retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, log, false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := scheduler.PurgeExpiredRecordings(cmd.Context(), a.store, time.Now().UTC(), log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d recordings\n", n)
		return nil
	},
}
