// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the chatbundle CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/chatbundle/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "chatbundle/0.1"

// rootCmd is the base command for the chatbundle CLI.
var rootCmd = &cobra.Command{
	Use:   "chatbundle",
	Short: "Export chat conversations into portable document bundles",
	Long: `chatbundle turns a captured chat conversation into a zip bundle holding
Markdown, a Typst source, the referenced images, and a compiled PDF.

Images are fetched concurrently (or taken from captured payloads), LaTeX math
is transliterated into Typst math, and the document is compiled by a typst
binary or container. A failed compile never loses the other outputs: the
bundle carries typst_error.txt in place of the PDF.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./chatbundle.yaml or ~/.config/chatbundle/chatbundle.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func setDefaults() {
	viper.SetDefault("http.timeout", 60*time.Second)
	viper.SetDefault("http.user_agent", defaultUserAgent)
	viper.SetDefault("resolve.max_concurrent", 0)
	viper.SetDefault("resolve.requests_per_second", 0.0)
	viper.SetDefault("resolve.max_asset_bytes", int64(32<<20))
	viper.SetDefault("resolve.max_retries", 5)
	viper.SetDefault("resolve.headers_dir", filepath.Join(".secrets", "headers"))
	viper.SetDefault("render.font", "NanumGothic")
	viper.SetDefault("render.lang", "ko")
	viper.SetDefault("render.paper", "a4")
	viper.SetDefault("render.image_width", "80%")
	viper.SetDefault("compile.timeout", 30*time.Second)
	viper.SetDefault("compile.engine", string(types.EngineCLI))
	viper.SetDefault("compile.loader", "typst")
	viper.SetDefault("compile.image", "ghcr.io/typst/typst:latest")
	viper.SetDefault("compile.font_path", "")
	viper.SetDefault("compile.disabled", false)
	viper.SetDefault("export.out_dir", "exports")
	viper.SetDefault("history.db_path", filepath.Join("exports", "history.db"))
	viper.SetDefault("history.max_results", 20)
	viper.SetDefault("log.level", "info")
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("chatbundle")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "chatbundle"))
		}
	}

	viper.SetEnvPrefix("CHATBUNDLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged defaults, config file and environment.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr at the named level.
func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
