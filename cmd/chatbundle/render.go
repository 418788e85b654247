// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/chatbundle/internal/bundle"
	"github.com/pdiddy/chatbundle/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Print the Markdown or Typst document for a conversation",
	Long: `Render prints one document notation for a conversation without fetching
images or compiling. Every referenced image is named as if it resolved with
the default extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("format", "markdown", "output notation: markdown or typst")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	conv, err := bundle.LoadConversation(afero.NewOsFs(), args[0])
	if err != nil {
		return err
	}

	r := render.New(conv, render.AssignNames(conv), cfg.Render)
	switch format {
	case "markdown", "md":
		fmt.Fprint(os.Stdout, r.Markdown())
	case "typst", "typ":
		fmt.Fprint(os.Stdout, r.Typst())
	default:
		return fmt.Errorf("unknown format %q (want markdown or typst)", format)
	}
	return nil
}
