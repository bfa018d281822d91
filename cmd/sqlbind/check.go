package main

import (
	"context"
	"log/slog"

	"github.com/syssam/sqlbind/compiler/resolve"
)

// CheckCmd resolves the configured statement documents and reports
// problems without writing anything.
type CheckCmd struct {
	Config string `short:"c" default:"sqlbind.yaml" help:"Project config file."`
}

func (c *CheckCmd) Run(log *slog.Logger) error {
	in, err := loadInputs(context.Background(), c.Config)
	if err != nil {
		return err
	}
	res, err := resolve.Resolve(in.namespaces(), in.cfg.Options()...)
	if err != nil {
		return err
	}
	stmts := 0
	for _, ns := range res.Namespaces {
		stmts += len(ns.Statements)
	}
	log.Info("resolution ok",
		"documents", len(in.docs),
		"namespaces", len(res.Namespaces),
		"statements", stmts,
		"shared_results", len(res.SharedResults))
	return nil
}
