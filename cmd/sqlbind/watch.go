package main

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCmd keeps the bindings file current: every change to the config
// or to a matched statement document re-runs generate after a short
// quiet period. A failed run does not stop the watch. Watched
// directories are fixed at startup.
type WatchCmd struct {
	Config   string        `short:"c" default:"sqlbind.yaml" help:"Project config file."`
	Debounce time.Duration `default:"250ms" help:"Quiet period before regenerating."`
}

func (c *WatchCmd) Run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := generate(ctx, log, c.Config, false); err != nil {
		log.Error("generate failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, dir := range c.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			log.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}

	cfgPath := filepath.Clean(c.Config)
	patterns := inputPatterns(c.Config)
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	log.Info("watching for changes", "config", cfgPath, "debounce", c.Debounce)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Clean(ev.Name)
			if name == cfgPath {
				patterns = inputPatterns(c.Config)
			} else if !matchesAny(patterns, name) {
				continue
			}
			log.Debug("change detected", "path", name)
			debounce.Reset(c.Debounce)
			pending = true
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			if err := generate(ctx, log, c.Config, false); err != nil {
				log.Error("generate failed", "error", err)
			}
		}
	}
}

// watchDirs lists the directories whose events matter: the config's
// own directory plus the fixed prefix of every input pattern.
func (c *WatchCmd) watchDirs() []string {
	dirs := map[string]bool{filepath.Dir(c.Config): true}
	for _, p := range inputPatterns(c.Config) {
		dirs[filepath.Dir(p)] = true
	}
	return slices.Sorted(maps.Keys(dirs))
}

// inputPatterns returns the config's input globs, or nothing while the
// config itself is unreadable.
func inputPatterns(configPath string) []string {
	cfg, _, err := LoadConfig(configPath)
	if err != nil {
		return nil
	}
	return cfg.Inputs
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(filepath.Clean(p), name); err == nil && ok {
			return true
		}
	}
	return false
}
