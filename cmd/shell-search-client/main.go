package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keis/shell-search/internal/config"
	"github.com/keis/shell-search/internal/ipc"
)

var (
	configPath string
	socketPath string
)

// resolveSocket prefers --socket, then the config file, then the default.
func resolveSocket() string {
	if socketPath != "" {
		return config.ExpandPath(socketPath)
	}
	cfg, err := config.LoadConfig(configPath)
	if err == nil && cfg.Behavior.SocketPath != "" {
		return cfg.Behavior.SocketPath
	}
	return config.DefaultConfig.Behavior.SocketPath
}

func messageCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := ipc.Send(resolveSocket(), name)
			if err != nil {
				return fmt.Errorf("%s: %w (is shell-search --resident running?)", name, err)
			}
			if reply != "ok" {
				fmt.Println(reply)
			}
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:          "shell-search-client",
		Short:        "Control a resident shell-search instance",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file to read the socket path from")
	root.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "socket path (overrides the config)")

	root.AddCommand(
		messageCmd(ipc.CmdShow, "Show the launcher"),
		messageCmd(ipc.CmdHide, "Hide the launcher"),
		messageCmd(ipc.CmdToggle, "Show or hide the launcher (bind this to a key)"),
		messageCmd(ipc.CmdReload, "Reload installed applications"),
		messageCmd(ipc.CmdQuit, "Stop the resident instance"),
		messageCmd(ipc.CmdPing, "Check that an instance is listening"),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
