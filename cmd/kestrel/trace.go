package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrel-lang/kestrel/config"
	"github.com/kestrel-lang/kestrel/trace"
)

var traceContextID string

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect recorded execution traces",
}

var traceDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print recorded call/return/tailcall events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FindAndLoad(configDir)
		if err != nil {
			return err
		}
		store, err := trace.Open(cfg.TracePath())
		if err != nil {
			return err
		}
		defer store.Close()

		events, err := store.Events(traceContextID)
		if err != nil {
			return err
		}
		for _, ev := range events {
			name := ev.FuncName
			if name == "" {
				name = "?"
			}
			fmt.Printf("%s  %-8s %s%s (slot %d",
				ev.At.Format("15:04:05.000000"), ev.Event,
				strings.Repeat("  ", ev.Depth), name, ev.FuncSlot)
			if ev.TailCalls > 0 {
				fmt.Printf(", %d tail calls folded", ev.TailCalls)
			}
			fmt.Println(")")
		}
		return nil
	},
}

func init() {
	traceDumpCmd.Flags().StringVar(&traceContextID, "context", "", "restrict to one context ID")
	traceCmd.AddCommand(traceDumpCmd)
}
