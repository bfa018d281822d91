package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/syssam/sqlbind/compiler/resolve"
	"github.com/syssam/sqlbind/internal/fingerprint"
)

// GenerateCmd resolves the configured statement documents and writes
// the bindings file. A run whose inputs are unchanged replays the
// cached output instead of resolving again.
type GenerateCmd struct {
	Config string `short:"c" default:"sqlbind.yaml" help:"Project config file."`
	Force  bool   `help:"Resolve even when the fingerprint cache is fresh."`
}

func (c *GenerateCmd) Run(log *slog.Logger) error {
	return generate(context.Background(), log, c.Config, c.Force)
}

func generate(ctx context.Context, log *slog.Logger, configPath string, force bool) error {
	start := time.Now()
	in, err := loadInputs(ctx, configPath)
	if err != nil {
		return err
	}
	sum := in.sum()
	store := fingerprint.NewStore(in.cfg.CacheDir)
	if !force {
		e, ok, err := store.Load(sum)
		switch {
		case err != nil:
			log.Warn("fingerprint cache unreadable", "error", err)
		case ok:
			log.Info("inputs unchanged, replaying cached bindings",
				"out", in.cfg.Out, "fingerprint", sum)
			return os.WriteFile(in.cfg.Out, e.Output, 0o644)
		}
	}

	res, err := resolve.Resolve(in.namespaces(), in.cfg.Options()...)
	if err != nil {
		return err
	}
	buf, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(in.cfg.Out, buf, 0o644); err != nil {
		return err
	}
	if err := store.Save(&fingerprint.Entry{
		Fingerprint: sum,
		Dialect:     res.Dialect,
		CreatedAt:   time.Now(),
		Output:      buf,
	}); err != nil {
		log.Warn("fingerprint cache not written", "error", err)
	}
	log.Info("bindings written",
		"out", in.cfg.Out,
		"namespaces", len(res.Namespaces),
		"documents", len(in.docs),
		"fingerprint", sum,
		"elapsed", time.Since(start))
	return nil
}
