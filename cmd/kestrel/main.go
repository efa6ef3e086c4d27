package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var (
	configDir string
	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   "kestrel",
	Short: "Kestrel runtime toolchain",
	Long:  `Kestrel is an embeddable register-based runtime; this tool inspects its configuration and traces`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Configure(verbosity, nil)
	},
}

func main() {
	rootCmd.AddCommand(limitsCmd)
	rootCmd.AddCommand(traceCmd)

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory to search for kestrel.toml")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
