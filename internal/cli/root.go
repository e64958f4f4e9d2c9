// Package cli implements the typecoach command line. Each pipeline process
// (camera, detect, run) is a subcommand of the same binary and they share
// one configuration file.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/typecoach/internal/config"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg is the effective configuration, loaded before any subcommand runs.
	cfg *config.Config

	configPath string
	shmDir     string
	frameW     int
	frameH     int
)

var rootCmd = &cobra.Command{
	Use:           "typecoach",
	Short:         "Camera-based touch-typing fingering coach",
	Long:          "typecoach watches your hands through a camera and tells you when a key was pressed with the wrong finger.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("shm-dir") {
			loaded.Channel.Dir = shmDir
		}
		if flags.Changed("width") {
			loaded.Channel.Width = frameW
		}
		if flags.Changed("height") {
			loaded.Channel.Height = frameH
		}
		if err := loaded.Validate(); err != nil {
			return err
		}

		cfg = loaded
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT or
// SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&shmDir, "shm-dir", "", "directory holding the shared memory regions (default /dev/shm)")
	flags.IntVar(&frameW, "width", 0, "frame width in pixels")
	flags.IntVar(&frameH, "height", 0, "frame height in pixels")
}
