package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/keis/shell-search/internal/config"
	"github.com/keis/shell-search/internal/launcher"
)

var dump bool

func validate(cmd *cobra.Command, args []string) error {
	configPath := config.DefaultPath
	if len(args) > 0 {
		configPath = args[0]
	}

	fmt.Printf("Validating config: %s\n", configPath)

	cfg, err := config.LoadAndValidateConfig(configPath)
	if err != nil {
		fmt.Printf("❌ Config validation failed: %v\n", err)
		return err
	}
	if _, err := launcher.NewKeymap(cfg.Keys); err != nil {
		fmt.Printf("❌ Invalid key bindings: %v\n", err)
		return err
	}
	if _, err := launcher.NewRunner(cfg.Launch); err != nil {
		fmt.Printf("❌ Invalid launch settings: %v\n", err)
		return err
	}

	fmt.Println("✅ Config is valid!")

	if dump {
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Println()
		fmt.Print(string(data))
	}
	return nil
}

func main() {
	root := &cobra.Command{
		Use:           "config-validator [config.toml]",
		Short:         "Check a shell-search config file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          validate,
	}
	root.Flags().BoolVar(&dump, "dump", false, "print the effective config, defaults included")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
