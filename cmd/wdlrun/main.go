// Package main is the entry point for wdlrun: a CLI that either executes a
// document once against a JSON input file and prints its JSON output, or
// serves the HTTP API of spec §6. Grounded on cmd/gcw-emulator/main.go's
// Cobra command-tree shape (a root command with persistent flags, an
// envOrDefault resolution order, os/signal-based graceful shutdown), split
// into two subcommands since this module's CLI has both an offline and a
// serving mode where the base module only ever served.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/wdl-engine/pkg/api"
	"github.com/lemonberrylabs/wdl-engine/pkg/astbuild"
	"github.com/lemonberrylabs/wdl-engine/pkg/config"
	"github.com/lemonberrylabs/wdl-engine/pkg/document"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/store"
	"github.com/lemonberrylabs/wdl-engine/pkg/typecheck"
	"github.com/lemonberrylabs/wdl-engine/pkg/workflow"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "wdlrun",
	Short: "WDL workflow/task interpreter",
}

var configPath string

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("wdlrun version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML service config file (env WDLRUN_CONFIG)")

	runCmd.Flags().String("inputs", "", "path to a JSON inputs file (default: read stdin)")
	runCmd.Flags().String("work-dir", "", "work directory root for this run (overrides config)")
	runCmd.Flags().String("run-id", "", "run identifier (default: generated)")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	serveCmd.Flags().String("host", "", "bind address (default 0.0.0.0, env HOST)")

	rootCmd.AddCommand(runCmd, serveCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <document.json>",
	Short: "Execute a WDL document fixture against JSON inputs and print JSON outputs",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("WDLRUN_CONFIG")
	}
	return config.Load(path)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	docSource, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	doc, err := astbuild.Build(docSource)
	if err != nil {
		return fmt.Errorf("building document: %w", err)
	}
	if err := doc.ResolveStructs(); err != nil {
		return fmt.Errorf("resolving struct typedefs: %w", err)
	}

	reg := stdlib.NewRegistry()
	if err := typecheck.New(reg).CheckDocument(doc); err != nil {
		return fmt.Errorf("type-checking document: %w", err)
	}

	inputsPath, _ := cmd.Flags().GetString("inputs")
	var rawInputs map[string]interface{}
	if inputsPath != "" {
		b, err := os.ReadFile(inputsPath)
		if err != nil {
			return fmt.Errorf("reading inputs: %w", err)
		}
		if err := json.Unmarshal(b, &rawInputs); err != nil {
			return fmt.Errorf("parsing inputs: %w", err)
		}
	} else {
		b, err := readAllStdinIfPresent()
		if err != nil {
			return fmt.Errorf("reading inputs from stdin: %w", err)
		}
		if len(b) > 0 {
			if err := json.Unmarshal(b, &rawInputs); err != nil {
				return fmt.Errorf("parsing inputs: %w", err)
			}
		}
	}
	if rawInputs == nil {
		rawInputs = map[string]interface{}{}
	}

	target, err := document.Resolve(doc)
	if err != nil {
		return err
	}
	inputs, err := document.DecodeInputs(rawInputs, target)
	if err != nil {
		return err
	}

	runID, _ := cmd.Flags().GetString("run-id")
	workDir, _ := cmd.Flags().GetString("work-dir")
	if workDir == "" {
		workDir = cfg.WorkDirRoot
	}
	if runID != "" {
		workDir = filepath.Join(workDir, runID)
	}

	taskCfg := cfg.TaskConfig()
	if cfg.Debug {
		taskCfg.Logger = log.New(os.Stderr, "wdlrun: ", log.LstdFlags)
	}
	wfCfg := workflow.Config{Task: taskCfg, RunID: runID}

	result, err := workflow.Execute(context.Background(), doc, reg, wfCfg, inputs, workDir)
	if err != nil {
		return err
	}

	outputs := document.EncodeOutputs(result.Outputs, target.Namespace)
	out, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}
	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}
	addr := fmt.Sprintf("%s:%s", host, port)
	if cfg.ListenAddr != "" && port == "8787" && host == "0.0.0.0" {
		addr = cfg.ListenAddr
	}

	s := store.New()
	server := api.New(s, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down wdlrun...")
		if err := server.Shutdown(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}()

	log.Printf("wdlrun listening on %s", addr)
	return server.Listen(addr)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readAllStdinIfPresent() ([]byte, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		// stdin is an interactive terminal, not a pipe; nothing to read.
		return nil, nil
	}
	return io.ReadAll(os.Stdin)
}
