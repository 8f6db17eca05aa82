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

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
	"github.com/taskalign/taskalign/pkg/scheduling"
	"github.com/taskalign/taskalign/pkg/server"
)

func main() {
	root := &cobra.Command{
		Use:           "taskalign",
		Short:         "Monthly production scheduler for injection-molding plants",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), solveCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	var configPath string
	var devLogging bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduling HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(devLogging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg := server.DefaultConfig()
			if configPath != "" {
				if cfg, err = server.LoadConfig(configPath); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, log).Start(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().BoolVar(&devLogging, "dev-logging", false, "human-readable console logs")
	return cmd
}

func solveCommand() *cobra.Command {
	var requestPath string
	var devLogging bool

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a schedule request offline and print the response as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(devLogging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			data, err := os.ReadFile(requestPath)
			if err != nil {
				return fmt.Errorf("reading request file: %w", err)
			}
			req := &v1.ScheduleRequest{}
			if err := json.Unmarshal(data, req); err != nil {
				return fmt.Errorf("parsing request file: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			resp, err := scheduling.Plan(ctx, req, log)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVarP(&requestPath, "file", "f", "", "path to the JSON request file")
	cmd.Flags().BoolVar(&devLogging, "dev-logging", false, "human-readable console logs")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
