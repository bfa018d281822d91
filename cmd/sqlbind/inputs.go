package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/sqlbind/compiler/load"
	"github.com/syssam/sqlbind/internal/fingerprint"
)

// inputs is one fully loaded run: the config, the matched statement
// documents and their raw bytes.
type inputs struct {
	cfg   *Config
	raw   []byte
	paths []string
	data  [][]byte
	docs  []*load.Document
}

// loadInputs reads the config and every statement document it matches.
// Documents load concurrently but land in sorted path order, keeping
// both the fingerprint and the resolution input deterministic.
func loadInputs(ctx context.Context, configPath string) (*inputs, error) {
	cfg, raw, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	paths, err := expandInputs(cfg.Inputs)
	if err != nil {
		return nil, err
	}
	in := &inputs{
		cfg:   cfg,
		raw:   raw,
		paths: paths,
		data:  make([][]byte, len(paths)),
		docs:  make([]*load.Document, len(paths)),
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			buf, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			d, err := load.UnmarshalDocument(buf)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			in.data[i], in.docs[i] = buf, d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// expandInputs resolves the config glob patterns into a sorted, unique
// path list. Zero matches is an error.
func expandInputs(patterns []string) ([]string, error) {
	var paths []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("input pattern %q: %w", p, err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no statement documents match %v", patterns)
	}
	return paths, nil
}

// sum collapses the config and every document into one fingerprint.
func (in *inputs) sum() string {
	b := fingerprint.NewBuilder()
	b.Add("config", in.raw)
	for i, path := range in.paths {
		b.Add(path, in.data[i])
	}
	return b.Sum()
}

// namespaces groups the loaded documents into a statement provider.
func (in *inputs) namespaces() load.Namespaces {
	ns := make(load.Namespaces)
	for _, d := range in.docs {
		ns.Add(d.Namespace, d.Statements...)
	}
	return ns
}
