package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/logger"
)

// Version and Gitref are set at build time via -ldflags.
var (
	Version = "dev"
	Gitref  = ""
)

func main() {
	logger.Init()
	app := kingpin.New("holder-agent", "AnonCreds holder agent.")

	app.Command("configure", "Prints an example .TOML configuration file.")
	app.Command("version", "Prints holder-agent version and exits.")

	startCmd := app.Command("start", "Starts the holder-agent daemon.")
	path := startCmd.Flag("config", "TOML config file path").
		Short('c').
		Default("/etc/vcagent/holder-agent.toml").
		String()
	debug := startCmd.Flag("debug", "Enable verbose logging to stderr").
		Short('d').
		Bool()
	insecure := startCmd.Flag("insecure-no-tls", "Disable TLS for the inbound server").
		Default("false").
		Bool()

	selectedCmd, err := app.Parse(os.Args[1:])
	if err != nil {
		lib.Bail(err)
	}

	switch selectedCmd {
	case "configure":
		fmt.Print(exampleConfig)
	case "version":
		lib.PrintVersion(app.Name, Version, Gitref)
	case "start":
		if err := run(*path, *insecure, *debug); err != nil {
			lib.Bail(err)
		}
	}
}

func run(configPath string, insecure bool, debug bool) error {
	conf, err := LoadConfig(configPath)
	if err != nil {
		return trace.Wrap(err)
	}

	logConfig := conf.Log
	if debug {
		logConfig.Severity = "debug"
	}
	if err := logger.Setup(logConfig); err != nil {
		return err
	}

	conf.HTTP.Insecure = insecure
	app, err := NewApp(*conf)
	if err != nil {
		return trace.Wrap(err)
	}

	go lib.ServeSignals(app, 15*time.Second)

	return trace.Wrap(app.Run(context.Background()))
}
