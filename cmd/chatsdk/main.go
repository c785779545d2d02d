package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "chatsdk",
		Short:         "Mobile chat SDK harness and tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "host config file (default chatsdk.toml)")

	root.AddCommand(
		serveCmd(&configPath),
		hubletCmd(),
		chatURLCmd(),
		classifyCmd(),
	)
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the SDK behind an HTTP and websocket API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runServe(*configPath)
		},
	}
}
