package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"windfall.hcl" type:"path" help:"HCL configuration file (missing file means defaults)"`
	LogLevel string `help:"Log level (debug, info, warn, error), overrides the config file"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the casino web server"`
	Play     PlayCmd          `cmd:"" help:"Play a table in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Estimate the house edge of a strategy at each table"`
	Tables   TablesCmd        `cmd:"" help:"List the configured tables"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("windfall"),
		kong.Description("Windfall BlackJack casino"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
