// Command quarry is the code generation CLI: it turns a YAML table
// manifest into Go table definitions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/gen"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quarry",
		Short:         "quarry is the code generator for quarry table definitions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(genCmd())
	return cmd
}

func genCmd() *cobra.Command {
	var (
		manifest string
		out      string
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go table definitions from a YAML manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := generate(ctx, manifest, out); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchManifest(ctx, manifest, out)
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "quarry.yaml", "path to the table manifest")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory for generated files")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate when the manifest changes")
	return cmd
}

func generate(ctx context.Context, manifest, out string) error {
	m, err := gen.Load(manifest)
	if err != nil {
		return err
	}
	if err := gen.Generate(ctx, m, out); err != nil {
		return err
	}
	slog.Info("generated table definitions", "manifest", manifest, "tables", len(m.Tables), "out", out)
	return nil
}

// watchManifest regenerates on every write to the manifest until
// interrupted. Editors often replace the file instead of writing in place,
// so the watch is on the directory and filtered by name.
func watchManifest(ctx context.Context, manifest, out string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	dir := filepath.Dir(manifest)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	slog.Info("watching manifest", "path", manifest)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(manifest) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Editors fire several events per save; coalesce them.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				if err := generate(ctx, manifest, out); err != nil {
					slog.Error("regeneration failed", "err", err)
				}
			})
		}
	}
}
