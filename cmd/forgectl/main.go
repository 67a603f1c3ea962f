package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"appforge/internal/appconfig"
	"appforge/internal/builder"
	"appforge/internal/gateway/app"
	"appforge/internal/gateway/config"
	"appforge/internal/gateway/server"
	"appforge/internal/util/jsonutil"
)

func main() {
	root := &cobra.Command{
		Use:   "forgectl",
		Short: "Build and serve generated applications",
	}
	root.AddCommand(newServeCmd(), newBuildCmd(), newValidateCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(cfg.Port, a.Handler)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Printf("received %s, shutting down", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
}

func newBuildCmd() *cobra.Command {
	var (
		configPath  string
		outputDir   string
		templateDir string
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an app from a fullAppConfig.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(configPath)
			if err != nil {
				return err
			}
			var doc map[string]any
			if err := jsonutil.UnmarshalFlex(raw, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", configPath, err)
			}

			res := builder.ExecuteBuild(builder.Options{
				BuildType:   builder.BuildLocal,
				RawConfig:   doc,
				OutputBase:  outputDir,
				TemplateDir: templateDir,
				DryRun:      dryRun,
			})
			out, err := jsonutil.MarshalNoEscapeIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if !res.Success {
				return fmt.Errorf("build failed: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "fullAppConfig.json", "path to the app config")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "output", "base output directory")
	cmd.Flags().StringVar(&templateDir, "template", "template", "base project template directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and report without writing files")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a fullAppConfig.json without building",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(configPath)
			if err != nil {
				return err
			}
			res := appconfig.ParseJSON(raw)
			for _, issue := range res.Issues {
				fmt.Printf("%s: %s\n", issue.Type, issue.Message)
			}
			if !res.Success {
				return fmt.Errorf("config is invalid (%d errors)", len(res.Errors()))
			}
			fmt.Printf("valid: %d components\n", len(res.Components))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "fullAppConfig.json", "path to the app config")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
