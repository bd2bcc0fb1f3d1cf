package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/signaler"
	"github.com/urfave/cli/v2"
)

// Version is set at build time
var Version = "dev"

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "blotter"
	app.Version = Version
	app.EnableBashCompletion = true
	app.Usage = "bar driven trade execution simulator"
	app.Commands = []*cli.Command{
		runCommand,
		validateCommand,
		inspectCommand,
		presetsCommand,
	}
	return app
}

func main() {
	app := newApp()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-signaler.WaitForInterrupt()
		log.Warnln(log.Global, "interrupted, stopping after the current bar")
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Errorln(log.Global, err)
		cancel()
		os.Exit(1)
	}
	cancel()
}
