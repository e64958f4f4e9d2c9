package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configWrite string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Prints the configuration after defaults, the --config file and TYPECOACH_* variables are applied. Use --write to save it as a starting point.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configWrite != "" {
			if err := cfg.Save(configWrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configWrite)
			return nil
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configCmd.Flags().StringVarP(&configWrite, "write", "w", "", "write the configuration to this file")
	rootCmd.AddCommand(configCmd)
}
