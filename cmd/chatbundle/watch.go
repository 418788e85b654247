// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-export a conversation whenever its file changes",
	Long: `Watch exports the file once, then again each time it is written or
replaced, until interrupted. The containing directory is watched so editors
that save by renaming are picked up.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("no-history", false, "do not record exports in the history database")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	noHistory, _ := cmd.Flags().GetBool("no-history")
	target, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

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

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	export := func() {
		if _, err := p.exportFile(ctx, target); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", target, err)
		}
	}
	export()
	fmt.Fprintf(os.Stdout, "watching: %s\n", target)

	return watchLoop(ctx, watcher.Events, watcher.Errors, target, watchDebounce, export, func(err error) {
		log.Warn("watch error", "err", err)
	})
}

// watchLoop calls onChange once per burst of relevant events for target,
// after debounce of quiet. It returns nil when ctx ends.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	target string, debounce time.Duration, onChange func(), onError func(error)) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if affects(ev, target) {
				timer.Reset(debounce)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			onError(err)
		case <-timer.C:
			onChange()
		case <-ctx.Done():
			return nil
		}
	}
}

// affects reports whether ev changes the contents of target.
func affects(ev fsnotify.Event, target string) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
