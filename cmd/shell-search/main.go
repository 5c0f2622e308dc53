package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keis/shell-search/internal/config"
	"github.com/keis/shell-search/internal/core"
)

var (
	configPath string
	resident   bool
	logFile    string
	backend    string
)

// ensureSingleInstance stops an instance recorded in pidFile and records
// this one.
func ensureSingleInstance(pidFile string) error {
	if data, err := os.ReadFile(pidFile); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid != os.Getpid() {
			process, err := os.FindProcess(pid)
			if err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					log.Printf("Stopping previous instance (pid %d)", pid)
					process.Signal(syscall.SIGTERM)
				}
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func setupLogging(path string) (*os.File, error) {
	if path == "" || path == "-" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return f, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAndValidateConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("resident") {
		cfg.Behavior.Resident = resident
	}
	if cmd.Flags().Changed("backend") {
		cfg.Launch.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = config.ExpandPath(logFile)
	}

	f, err := setupLogging(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", cfg.LogFile, err)
	} else if f != nil {
		defer f.Close()
	}

	if err := ensureSingleInstance(cfg.Behavior.PidFile); err != nil {
		return fmt.Errorf("failed to ensure single instance: %w", err)
	}
	defer os.Remove(cfg.Behavior.PidFile)

	app, err := core.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("Application error: %v", err)
		return err
	}
	return nil
}

func main() {
	root := &cobra.Command{
		Use:          "shell-search",
		Short:        "Application launcher overlay",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file")
	root.Flags().BoolVar(&resident, "resident", false, "stay running in the background and wait for IPC commands")
	root.Flags().StringVar(&logFile, "log-file", "", "log file, - for stderr (default from config)")
	root.Flags().StringVar(&backend, "backend", "", "launch backend: direct or sway (default from config)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
