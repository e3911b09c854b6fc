package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vaultkv/vaultkv/config"
	"github.com/vaultkv/vaultkv/log"
	"github.com/vaultkv/vaultkv/server"
)

// main wires up the process: load the optional config.yaml, let the two
// positional CLI arguments (port, bind address) override its listen
// address, construct the server via the dig container, and run until a
// termination signal or a fatal accept error.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %s\n", err.Error())
		os.Exit(1)
	}
	applyCLIOverrides(cfg, os.Args[1:])

	if err := log.Init(log.Config{
		Level:    cfg.Log.Level,
		Filename: cfg.Log.Filename,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %s\n", err.Error())
		os.Exit(1)
	}
	defer log.Sync()

	srv, err := server.Construct(cfg)
	if err != nil {
		log.Fatal("server construct failed: " + err.Error())
	}

	if met := srv.Metrics(); met != nil {
		go func() {
			// Metrics HTTP surface is opt-in and best-effort: a failure here
			// does not take down the data-plane server.
			if err := met.Serve(context.Background(), cfg.Metrics.Address); err != nil {
				log.Errorf("metrics server stopped: %s", err.Error())
			}
		}()
	}

	if err := srv.Serve(cfg.Server.Address); err != nil {
		log.Fatal("server run failed: " + err.Error())
	}
}

// applyCLIOverrides implements the two required positional arguments: port
// and bind_address. Neither is a flag; both are optional. Without a port the
// listen address from config.yaml (or its defaults) is kept unchanged; with
// a port, the bind address is bind_address if given and 0.0.0.0 otherwise.
func applyCLIOverrides(cfg *config.GlobalConfig, args []string) {
	bindAddress := "0.0.0.0"
	port := ""

	if len(args) >= 1 && args[0] != "" {
		port = args[0]
	}
	if len(args) >= 2 && args[1] != "" {
		bindAddress = args[1]
	}

	if port != "" {
		cfg.Server.Address = fmt.Sprintf("%s:%s", bindAddress, port)
	}
}
