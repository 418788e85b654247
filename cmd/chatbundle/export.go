// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export [files...]",
	Short: "Export conversation files into zip bundles",
	Long: `Export reads captured conversations (JSON or YAML), resolves their images,
renders Markdown and Typst, compiles the PDF, and writes <title>.zip into the
output directory. Image and compile failures are reported but do not stop the
bundle from being written.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out-dir", "", "directory for bundle archives (default exports)")
	exportCmd.Flags().String("engine", "", "compiler engine: cli or container")
	exportCmd.Flags().Duration("timeout", 0, "compile timeout (default 30s)")
	exportCmd.Flags().String("font", "", "font file registered with the compiler")
	exportCmd.Flags().Bool("no-compile", false, "skip PDF compilation")
	exportCmd.Flags().Bool("no-history", false, "do not record the export in the history database")

	viper.BindPFlag("export.out_dir", exportCmd.Flags().Lookup("out-dir"))
	viper.BindPFlag("compile.engine", exportCmd.Flags().Lookup("engine"))
	viper.BindPFlag("compile.timeout", exportCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("compile.font_path", exportCmd.Flags().Lookup("font"))
	viper.BindPFlag("compile.disabled", exportCmd.Flags().Lookup("no-compile"))

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more conversation files")
	}
	noHistory, _ := cmd.Flags().GetBool("no-history")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log.Level)

	p, err := newPipeline(cfg, !noHistory, log, os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var exported, failed, compiled int
	for _, path := range args {
		rec, err := p.exportFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", path, err)
			failed++
			if ctx.Err() != nil {
				break
			}
			continue
		}
		exported++
		if rec.Compiled {
			compiled++
		}
	}
	fmt.Fprintf(os.Stdout, "\nBatch summary: %d exported, %d compiled, %d failed (total: %d)\n",
		exported, compiled, failed, len(args))

	if failed > 0 {
		return fmt.Errorf("%d conversation(s) failed export", failed)
	}
	return nil
}
