package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goactor/framework/config"
	"goactor/servers/actornode/app"
	"goactor/servers/actornode/configmgr"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "actornode",
		Usage: "goactor cluster node",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "yaml config file"},
			&cli.StringFlag{Name: "env", Value: ".env", Usage: "env file loaded before " + config.EnvPrefix + "* overrides"},
			&cli.StringFlag{Name: "host", Usage: "node host, the address prefix of local actors"},
			&cli.StringFlag{Name: "seed", Usage: "seed node host"},
			&cli.StringFlag{Name: "listen", Usage: "rpc listen address"},
			&cli.StringFlag{Name: "registry", Usage: "registry type: memory|etcd|redis|mysql"},
			&cli.StringSliceFlag{Name: "registry-endpoint", Usage: "registry endpoints"},
			&cli.StringFlag{Name: "admin", Usage: "admin http listen address"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "actornode exit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	mgr := configmgr.Instance()
	if err := mgr.Load(cmd.String("config"), cmd.String("env")); err != nil {
		return err
	}

	conf := mgr.GetConfig()
	if cmd.IsSet("host") {
		conf.Node.Host = cmd.String("host")
	}
	if cmd.IsSet("seed") {
		conf.Node.Seed = cmd.String("seed")
	}
	if cmd.IsSet("listen") {
		conf.Node.Listen = cmd.String("listen")
	}
	if cmd.IsSet("registry") {
		conf.Registry.Type = cmd.String("registry")
	}
	if cmd.IsSet("registry-endpoint") {
		conf.Registry.Endpoints = cmd.StringSlice("registry-endpoint")
	}
	if cmd.IsSet("admin") {
		conf.Admin.Listen = cmd.String("admin")
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.GetApp().Start(ctx)
}
