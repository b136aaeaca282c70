// Command leilaoctl inspects a local sqlite database of auction properties
// from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/boddenberg/leilao-agil-go/internal/config"

	"github.com/google/subcommands"
)

// as a short lived CLI it is fine to keep the shared flags global.
var (
	dbPath = flag.String("db", config.Default().SQLitePath, "Path to the sqlite database")
	plain  = flag.Bool("plain", false, "Print raw markdown instead of rendering it")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&summaryCmd{}, "reports")
	commander.Register(&listCmd{}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
