// ABOUTME: Entry point for the parlord gateway server
// ABOUTME: Serves the agent chat API and ships CLI helpers for ops checks

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/parlorlabs/parlor/internal/agent"
	"github.com/parlorlabs/parlor/internal/client"
	"github.com/parlorlabs/parlor/internal/config"
	"github.com/parlorlabs/parlor/internal/gateway"
	"github.com/parlorlabs/parlor/internal/provider"
	"github.com/parlorlabs/parlor/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                       _
  _ __   __ _ _ __| | ___  _ __ __| |
 | '_ \ / _' | '__| |/ _ \| '__/ _' |
 | |_) | (_| | |  | | (_) | | | (_| |
 | .__/ \__,_|_|  |_|\___/|_|  \__,_|
 |_|
`

// getConfigPath returns the path to the parlord config file.
// Priority: PARLOR_CONFIG env var > XDG_CONFIG_HOME/parlor/parlord.yaml > ~/.config/parlor/parlord.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PARLOR_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "parlord.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "parlor", "parlord.yaml")
}

// loadConfig loads the config file if present, falling back to defaults so
// the server runs out of the box.
func loadConfig() (*config.Config, string, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: parlord <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve      Start the gateway server")
		fmt.Println("  health     Check gateway health")
		fmt.Println("  agents     List registered agents")
		fmt.Println("  threads    List active threads")
		fmt.Println("  version    Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "agents":
		err = runAgents(ctx)
	case "threads":
		err = runThreads(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", describeDatabase(cfg))
	green.Print("    ▶ ")
	fmt.Printf("Provider:  %s\n", describeProvider(cfg))
	fmt.Println()

	logger.Info("starting parlord",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"database", cfg.Database.Driver,
	)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("building agent registry: %w", err)
	}

	return gateway.New(cfg, st, registry).Run(ctx)
}

func describeDatabase(cfg *config.Config) string {
	if cfg.Database.Driver == "postgres" {
		return "postgres"
	}
	return fmt.Sprintf("sqlite (%s)", cfg.Database.Path)
}

func describeProvider(cfg *config.Config) string {
	switch cfg.Provider.Kind {
	case "", "none":
		return "none (rule-based responses)"
	default:
		if cfg.Provider.Model != "" {
			return fmt.Sprintf("%s (%s)", cfg.Provider.Kind, cfg.Provider.Model)
		}
		return cfg.Provider.Kind
	}
}

// openStore selects the storage backend from config
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Database.DSN)
	default:
		return store.NewSQLiteStore(cfg.Database.Path)
	}
}

// buildRegistry registers the stock agents. The general assistant gets the
// configured LLM provider; the others are rule-based.
func buildRegistry(cfg *config.Config) (*agent.Registry, error) {
	llm, err := provider.New(cfg.Provider)
	if err != nil {
		return nil, err
	}

	registry := agent.NewRegistry()
	for _, a := range []agent.Agent{
		agent.NewMathAssistant(),
		agent.NewWebResearcher(),
		agent.NewGeneralAssistant(llm),
	} {
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// gatewayClient builds an SDK client pointed at the configured HTTP address
func gatewayClient() (*client.Client, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return client.New("http://" + addr), nil
}

func runHealth(ctx context.Context) error {
	c, err := gatewayClient()
	if err != nil {
		return err
	}

	if err := c.Health(ctx); err != nil {
		color.New(color.FgRed).Print("✗ ")
		fmt.Println("Gateway is unhealthy")
		return err
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Println("Gateway is healthy")
	return nil
}

func runAgents(ctx context.Context) error {
	c, err := gatewayClient()
	if err != nil {
		return err
	}

	agents, err := c.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("listing agents: %w", err)
	}

	if len(agents) == 0 {
		fmt.Println("No agents registered")
		return nil
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	for _, a := range agents {
		cyan.Printf("%s", a.ID)
		fmt.Printf("  %s\n", a.Name)
		gray.Printf("    %s\n", a.Description)
		for _, tool := range a.Tools {
			gray.Printf("    • %s: %s\n", tool.Name, tool.Description)
		}
	}
	return nil
}

func runThreads(ctx context.Context) error {
	c, err := gatewayClient()
	if err != nil {
		return err
	}

	threads, err := c.ListThreads(ctx, "")
	if err != nil {
		return fmt.Errorf("listing threads: %w", err)
	}

	if len(threads) == 0 {
		fmt.Println("No active threads")
		return nil
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	for _, th := range threads {
		cyan.Printf("%s", th.ID)
		fmt.Printf("  %s", th.Title)
		gray.Printf("  [%s]  updated %s\n", th.AgentID, th.UpdatedAt)
	}
	return nil
}
