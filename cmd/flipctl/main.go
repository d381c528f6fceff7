// Command flipctl controls a running AudioFlip daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easyaudioflip/audioflip/internal/client"
	"github.com/easyaudioflip/audioflip/internal/identity"
)

var (
	flagAddr   string
	flagAPIKey string
	flagJSON   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "flipctl",
		Short:        "Control the AudioFlip output device rotation",
		Version:      identity.GetVersion(),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagAddr, "addr", envOr("AUDIOFLIP_ADDR", client.DefaultAddr), "daemon address")
	root.PersistentFlags().StringVar(&flagAPIKey, "api-key", os.Getenv("AUDIOFLIP_API_KEY"), "API key, if the daemon has keys.json")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	root.AddCommand(listCmd())
	root.AddCommand(nextCmd())
	root.AddCommand(toggleCmd())
	root.AddCommand(enableCmd())
	root.AddCommand(disableCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(quitCmd())
	root.AddCommand(panelCmd())
	return root
}

func newClient() *client.Client {
	return client.New(flagAddr, flagAPIKey)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
