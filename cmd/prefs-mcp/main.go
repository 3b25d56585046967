package main

import (
	"flag"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leonardcser/prefs-cache/internal/config"
	"github.com/leonardcser/prefs-cache/internal/logger"
	"github.com/leonardcser/prefs-cache/internal/memcache"
	"github.com/leonardcser/prefs-cache/internal/prefs"
	"github.com/leonardcser/prefs-cache/internal/store"
	"github.com/leonardcser/prefs-cache/internal/tools"
)

const daemonName = "prefs-server"

// defaults is the process-wide facade shared by every tool handler.
var defaults *prefs.Cache

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if err := initLogger(cfg); err != nil {
		panic(err)
	}
	defer logger.Close()
	logger.Infof("Starting prefs MCP server")

	// Connect to the store daemon; start it if needed, then connect.
	logger.Infof("Attempting to connect to prefs daemon at %s", cfg.SocketPath)
	client, err := connectStore(cfg.SocketPath)
	if err != nil {
		logger.Warnf("Failed to connect to prefs daemon: %v, attempting to start daemon", err)
		if startErr := startDaemon(*configPath); startErr != nil {
			logger.Errorf("Failed to start prefs daemon: %v", startErr)
		} else {
			logger.Infof("Prefs daemon started successfully")
		}
		// wait for socket to appear
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if c2, err2 := connectStore(cfg.SocketPath); err2 == nil {
				client = c2
				err = nil
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
		if client == nil {
			logger.Errorf("Failed to connect to prefs daemon after startup attempt: %v", err)
			os.Exit(1)
		}
	}
	logger.Infof("Successfully connected to prefs daemon")

	defaults = prefs.New(client, memcache.NewLRU(cfg.CacheSize))

	s := server.NewMCPServer(
		"Prefs MCP",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	keyArg := mcp.WithString("key", mcp.Required(), mcp.Description("The preference key"))
	kindArg := mcp.WithString("kind",
		mcp.Required(),
		mcp.Enum(tools.KindNames()...),
		mcp.Description("Which typed accessor to use; must match the kind the key was written with"),
	)

	s.AddTool(mcp.NewTool("prefs-get",
		mcp.WithDescription(multiline(
			"Reads a typed preference value",
			"\nUsage notes:",
			"- Objects are returned as JSON, custom objects as base64",
			"- Reading a key with a different kind than it was written with yields the zero value",
		)),
		keyArg, kindArg,
	), tools.PrefsGetHandler(defaults))

	s.AddTool(mcp.NewTool("prefs-set",
		mcp.WithDescription(multiline(
			"Writes a typed preference value durably",
			"\nUsage notes:",
			"- Objects must be JSON made of strings, numbers, booleans, arrays and objects",
			"- Custom objects are given as base64 of their archived bytes",
		)),
		keyArg, kindArg,
		mcp.WithString("value", mcp.Required(), mcp.Description("The value, encoded as text for the given kind")),
	), tools.PrefsSetHandler(defaults))

	s.AddTool(mcp.NewTool("prefs-remove",
		mcp.WithDescription("Removes a preference key; removing a missing key is not an error"),
		keyArg,
	), tools.PrefsRemoveHandler(defaults))

	s.AddTool(mcp.NewTool("prefs-contains",
		mcp.WithDescription("Reports whether the durable store holds a preference key"),
		keyArg,
	), tools.PrefsContainsHandler(defaults))
	logger.Infof("Registered prefs tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

// initLogger logs to the configured log path (YAML log_path or
// PREFS_CACHE_LOG), falling back to a file next to the executable.
func initLogger(cfg *config.Config) error {
	if cfg.LogPath != "" {
		return logger.Init(cfg.LogPath)
	}
	return logger.InitFromEnv()
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

func connectStore(sock string) (prefs.ValueStore, error) {
	// quick probe
	conn, err := net.DialTimeout("unix", sock, 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	_ = conn.Close()
	return store.NewClient(sock), nil
}

func startDaemon(configPath string) error {
	var args []string
	if configPath != "" {
		args = append(args, "-config", configPath)
	}
	start := func(bin string) error {
		cmd := exec.Command(bin, args...)
		cmd.Stdout = nil
		cmd.Stderr = nil
		cmd.Env = os.Environ()
		return cmd.Start()
	}

	// 1) Try daemon binary next to this server executable
	if exePath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exePath), daemonName)
		if _, statErr := os.Stat(sibling); statErr == nil {
			return start(sibling)
		}
	}

	// 2) Try PATH binary
	if path, err := exec.LookPath(daemonName); err == nil {
		return start(path)
	}

	return exec.ErrNotFound
}
