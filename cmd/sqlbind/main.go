// Command sqlbind resolves annotated SQL statement documents against
// their schema and writes the resulting bindings file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

const version = "0.2.0"

var cli struct {
	Verbose  bool        `short:"v" help:"Enable debug logging."`
	Generate GenerateCmd `cmd:"" help:"Resolve statement documents and write the bindings file."`
	Check    CheckCmd    `cmd:"" help:"Resolve statement documents and report problems only."`
	Watch    WatchCmd    `cmd:"" help:"Regenerate the bindings file on every input change."`
	Version  VersionCmd  `cmd:"" help:"Print the tool version."`
}

// VersionCmd prints the tool version.
type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Println("sqlbind " + version)
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("sqlbind"),
		kong.Description("Offline resolver for annotated SQL statement bindings."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx.FatalIfErrorf(ctx.Run(log))
}
