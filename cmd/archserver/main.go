// Package main is the entry point for archserver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jirevwe/archserver"
	"github.com/jirevwe/archserver/config"
)

var version = "dev"

func main() {
	var (
		configFile  = flag.String("config", "", "config file path (YAML/JSON)")
		addr        = flag.String("addr", "", "listen address, e.g. 0.0.0.0:3000")
		workers     = flag.Int("workers", config.DefaultWorkers, "number of pool workers")
		policy      = flag.String("shutdown-policy", "", "what to do with queued connections on shutdown (drain, discard)")
		metricsAddr = flag.String("metrics-addr", "", "address for the Prometheus /metrics endpoint")
		accessLog   = flag.String("access-log", "", "SQLite file to record served requests in")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var workersOverride *int
	if set["workers"] {
		workersOverride = workers
	}

	if *showVersion {
		fmt.Printf("archserver version %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		return
	}

	cfg, err := buildConfig(*configFile, *addr, workersOverride, *policy, *metricsAddr, *accessLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err = run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "archserver: %v\n", err)
		os.Exit(1)
	}
}

// buildConfig loads the config file and applies flag overrides on top.
// A nil workers leaves the file or default value in place.
func buildConfig(path, addr string, workers *int, policy, metricsAddr, accessLog string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if addr != "" {
		cfg.Addr = addr
	}
	if workers != nil {
		cfg.Workers = *workers
	}
	if policy != "" {
		p, err := config.ParseShutdownPolicy(policy)
		if err != nil {
			return cfg, err
		}
		cfg.ShutdownPolicy = p
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if accessLog != "" {
		cfg.AccessLogPath = accessLog
	}

	return cfg, cfg.Validate()
}

func run(cfg config.Config) error {
	logger := archserver.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	srv, err := archserver.NewServer(cfg, archserver.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("cannot close access log", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
