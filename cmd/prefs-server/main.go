package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/leonardcser/prefs-cache/internal/config"
	"github.com/leonardcser/prefs-cache/internal/logger"
	"github.com/leonardcser/prefs-cache/internal/prefs"
	"github.com/leonardcser/prefs-cache/internal/store"
)

type closer interface {
	prefs.ValueStore
	Close() error
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if cfg.LogPath != "" {
		if err := logger.Init(cfg.LogPath); err != nil {
			panic(err)
		}
		defer logger.Close()
	}

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(cfg.SocketPath), 0o755)
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	_ = os.Remove(cfg.SocketPath)

	backend, err := openBackend(cfg)
	if err != nil {
		logger.Errorf("open %s store at %s: %v", cfg.Backend, cfg.DBPath, err)
		os.Exit(1)
	}
	defer backend.Close()
	s := store.NewInstrumented(backend)

	l, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		logger.Errorf("listen on %s: %v", cfg.SocketPath, err)
		os.Exit(1)
	}
	_ = os.Chmod(cfg.SocketPath, 0o600)
	logger.Infof("serving %s store %s (domain %q) on %s", cfg.Backend, cfg.DBPath, cfg.Domain, cfg.SocketPath)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		l.Close()
	}()

	if err := store.Serve(l, s); err != nil {
		logger.Errorf("serve: %v", err)
	}
	if err := s.Flush(); err != nil {
		logger.Errorf("final flush: %v", err)
	}
	m := s.Metrics()
	logger.Infof("shutting down: get=%d (avg %v) set=%d (avg %v) remove=%d (avg %v) flush=%d (avg %v)",
		m.Get.Count, m.Get.AvgLatency, m.Set.Count, m.Set.AvgLatency,
		m.Remove.Count, m.Remove.AvgLatency, m.Flush.Count, m.Flush.AvgLatency)
}

func openBackend(cfg *config.Config) (closer, error) {
	if cfg.Backend == config.BackendSQLite {
		return store.OpenSQLite(cfg.DBPath, cfg.Domain)
	}
	return store.OpenBolt(cfg.DBPath, store.Options{Bucket: cfg.Domain, DeferSync: cfg.DeferSync})
}
