package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gatekeeper/internal/client/cli"
	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/client/config"
)

func main() {
	cfg, args, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	rpc, err := client.NewGRPCClient(cfg.GRPCAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rpc.Close()

	app := cli.NewApp(cfg, client.NewHTTPClient(cfg.ServerURL, cfg.Timeout), rpc, os.Stdin, os.Stdout)
	if err := app.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		rpc.Close()
		os.Exit(1)
	}
}
