// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the strimlitbook CLI.
// Implements: prd006-cli, prd003-pipeline, prd008-validation,
//             prd004-gallery, prd005-preview, prd007-launcher (CLI surface).
// See docs/ARCHITECTURE § CLI, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the strimlitbook CLI.
var rootCmd = &cobra.Command{
	Use:   "strimlitbook",
	Short: "Convert Jupyter notebooks into Streamlit apps",
	Long: `strimlitbook turns Jupyter notebooks into runnable Streamlit apps. It
parses .ipynb files, replays recorded outputs (text, tables, charts,
images) as Streamlit calls, and writes one app per notebook.

Each pipeline stage is a subcommand: convert generates apps, validate
checks notebooks against the nbformat schema, gallery indexes and
searches cells, serve previews notebooks in a browser, run converts and
launches an app, and browse opens the terminal UI.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./strimlitbook.yaml or ~/.config/strimlitbook/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("strimlitbook")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "strimlitbook"))
		}
	}

	viper.SetEnvPrefix("STRIMLITBOOK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// stringSetting resolves a value with flag > config file > flag default
// precedence.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	v, _ := cmd.Flags().GetString(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	return v
}

func intSetting(cmd *cobra.Command, flag, key string) int {
	v, _ := cmd.Flags().GetInt(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return v
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	v, _ := cmd.Flags().GetBool(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return v
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
