// Command mpdcore runs the playback control daemon: it loads a YAML
// config file, builds an Instance with one partition per configured
// entry, and serves the wire protocol until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/halcyon-audio/mpdcore/internal/config"
	"github.com/halcyon-audio/mpdcore/internal/playercontrol"
	"github.com/halcyon-audio/mpdcore/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listen := flag.String("listen", "", "override listen_address from config, e.g. 127.0.0.1:6600")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.ListenAddress = *listen
	}

	inst := server.NewInstance(cfg, func(partitionName string) playercontrol.Backend {
		return server.NullBackend{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down")
		cancel()
	}()

	if err := inst.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
