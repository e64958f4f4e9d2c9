package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/typecoach/internal/shm"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove shared memory regions left by a crashed run",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range []string{cfg.Channel.Frames, cfg.Channel.Results} {
			if err := shm.RemoveRegion(cfg.Channel.Dir, name); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
