package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-lang/kestrel/config"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show the effective runtime limits",
	Long:  `Resolves kestrel.toml (walking up from --config-dir) and prints the stack and call-depth limits the runtime would use`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FindAndLoad(configDir)
		if err != nil {
			return err
		}
		limits := cfg.Limits()
		if cfg.Dir != "" {
			fmt.Printf("configuration: %s/kestrel.toml\n", cfg.Dir)
		} else {
			fmt.Println("configuration: built-in defaults")
		}
		fmt.Printf("max-stack-slots:     %d\n", limits.MaxStackSlots)
		fmt.Printf("max-call-depth:      %d\n", limits.MaxCallDepth)
		fmt.Printf("initial-stack-slots: %d\n", limits.InitialStackSlots)
		fmt.Printf("initial-frame-depth: %d\n", limits.InitialFrameDepth)
		fmt.Printf("trace:               enabled=%t path=%s\n", cfg.Trace.Enabled, cfg.TracePath())
		return nil
	},
}
