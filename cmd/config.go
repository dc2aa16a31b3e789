package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytleenf/ytclient/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting with its effective value and environment variable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write settings.json with the default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.WriteDefaults(appFs)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetSettingsPath())
	},
}

func printSettings(w io.Writer, s *config.Settings) {
	values := s.Values()
	metadata := config.GetSettingsMetadata()
	envs := make(map[string]string, len(config.Fields()))
	for _, f := range config.Fields() {
		envs[f.Key] = f.Env()
	}

	for _, category := range config.CategoryOrder() {
		fmt.Fprintf(w, "[%s]\n", category)
		for _, meta := range metadata[category] {
			v := values[meta.Key]
			if d, ok := v.(time.Duration); ok {
				v = d.String()
			}
			fmt.Fprintf(w, "  %-26s = %-24v %s\n", meta.Key, v, envs[meta.Key])
		}
	}
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
