package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage geneflank configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configName + ".",
		Example: `  geneflank config                            # show all config
  geneflank config set flank.bp_limit 2000    # default flank limit
  geneflank config set flank.policy any       # let either strand block
  geneflank config get flank.bp_limit         # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(v, stdout)
		},
	}

	cmd.AddCommand(newConfigSetCmd(v, stdout))
	cmd.AddCommand(newConfigGetCmd(v, stdout))

	return cmd
}

func newConfigSetCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(v, stdout, args[0], args[1])
		},
	}
}

func newConfigGetCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(v, stdout, args[0])
		},
	}
}

func runConfigShow(v *viper.Viper, stdout io.Writer) error {
	settings := v.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(stdout, "# No configuration set. Config file: ~/"+configName)
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(stdout, string(out))
	return nil
}

func runConfigSet(v *viper.Viper, stdout io.Writer, key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		v.Set(key, true)
	case "false", "no", "off":
		v.Set(key, false)
	default:
		v.Set(key, value)
	}

	// Ensure config file exists
	cfgFile := v.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configName)
	}

	if err := v.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(stdout, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(v *viper.Viper, stdout io.Writer, key string) error {
	val := v.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(stdout, val)
	return nil
}
