package main

import (
	"github.com/alecthomas/kong"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

var cli struct {
	Config  string `help:"Configuration file path" default:"./calmsql.yaml"`
	Verbose bool   `help:"Enable verbose output" short:"v"`
	Quiet   bool   `help:"Suppress non-error output" short:"q"`

	Check CheckCmd `cmd:"" help:"Validate manifest queries against a live database"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("calmsql"),
		kong.Description("Validate SQL queries against a live PostgreSQL schema"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&Context{
		Config:  cli.Config,
		Verbose: cli.Verbose,
		Quiet:   cli.Quiet,
	})
	ctx.FatalIfErrorf(err)
}
