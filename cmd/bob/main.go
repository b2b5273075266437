// Bob is a conversational assistant that answers with the help of
// tools: weather, tasks, contacts, email, search, video transcripts,
// GitHub issues and repositories, and Discord.
//
// Usage:
//
//	bob serve              Start the API server
//	bob init [dir]         Initialize a working directory with defaults
//	bob ask <question>     Ask a single question
//	bob version            Print version and build information
//	bob -o json version    Output version information as JSON
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nugget/bob-assistant/internal/agent"
	"github.com/nugget/bob-assistant/internal/api"
	"github.com/nugget/bob-assistant/internal/buildinfo"
	"github.com/nugget/bob-assistant/internal/config"
	"github.com/nugget/bob-assistant/internal/contacts"
	"github.com/nugget/bob-assistant/internal/discord"
	"github.com/nugget/bob-assistant/internal/email"
	"github.com/nugget/bob-assistant/internal/forge"
	"github.com/nugget/bob-assistant/internal/httpkit"
	"github.com/nugget/bob-assistant/internal/llm"
	"github.com/nugget/bob-assistant/internal/media"
	"github.com/nugget/bob-assistant/internal/search"
	"github.com/nugget/bob-assistant/internal/tasks"
	"github.com/nugget/bob-assistant/internal/tools"
	"github.com/nugget/bob-assistant/internal/weather"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal.
const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand so tests
// can call run concurrently without the flag package's globals.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: bob ask <question>")
		}
		return runAsk(ctx, stdout, stderr, configPath, outputFmt, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.BuildInfo()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Bob - Voice AI Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: bob [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  init [dir]   Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  ask          Ask a single question")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/bob/config.yaml, /etc/bob/config.yaml")
	fmt.Fprintln(w, "Without a config file, defaults and environment variables are used.")
	return nil
}

// runAsk answers one question and prints the reply. Logs go to stderr
// so stdout carries only the answer.
func runAsk(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt string, args []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := config.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	res := app.loop.Run(ctx, agent.Request{Message: strings.Join(args, " ")})
	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(stdout, res.Response)
	}
	if !res.Success {
		return fmt.Errorf("ask: %s", res.Error)
	}
	return nil
}

// runServe starts the HTTP API and blocks until SIGINT or SIGTERM.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := config.NewLogger(stdout, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting Bob",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)
	if cfgPath != "" {
		logger.Info("config loaded", "path", cfgPath)
	} else {
		logger.Info("no config file found, using defaults and environment")
	}

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, api.Deps{
		Chat:      app.loop,
		Tasks:     app.tasks,
		Contacts:  app.contacts,
		Weather:   app.weather,
		EmailLogs: app.emailLogs,
	}, cfg.CORS.AllowedOrigins, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// loadConfig reads the config file when one is found and falls back to
// defaults plus environment otherwise. An explicit path must exist.
// The returned path is empty when no file was used.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, findErr := config.FindConfig(explicit)
	if findErr != nil && explicit != "" {
		return nil, "", findErr
	}
	if findErr != nil {
		cfgPath = ""
	}
	config.LoadDotEnv(cfgPath)

	if cfgPath == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, "", fmt.Errorf("config: %w", err)
		}
		return cfg, "", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// app holds everything built from configuration.
type app struct {
	db        *sql.DB
	llm       llm.Client
	loop      *agent.Loop
	tasks     *tasks.Store
	contacts  *contacts.Store
	emailLogs *email.LogStore
	weather   *weather.Client
}

// Close releases the database and the completion client.
func (a *app) Close() {
	if c, ok := a.llm.(io.Closer); ok {
		_ = c.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// newApp opens storage, builds every tool backend and wires the agent
// loop over them.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	a := &app{db: db}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()
	logger.Info("database opened", "path", dbPath)

	if a.tasks, err = tasks.NewStore(db); err != nil {
		return nil, err
	}
	if a.contacts, err = contacts.NewStore(db); err != nil {
		return nil, err
	}
	if a.emailLogs, err = email.NewLogStore(db); err != nil {
		return nil, err
	}

	a.weather = weather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Units)

	mailer := email.NewService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		StartTLS: cfg.SMTP.StartTLS,
	}, cfg.SMTP.From, a.contacts, a.emailLogs, logger.With("component", "email"))

	searcher := search.NewManager(cfg.Search.Default)
	searcher.Register(search.NewStackOverflow(search.StackExchangeBaseURL,
		cfg.Search.StackExchange.Site, cfg.Search.StackExchange.Key))
	if cfg.Search.SearXNGURL != "" {
		searcher.Register(search.NewSearXNG(cfg.Search.SearXNGURL))
	}
	if cfg.Search.BraveAPIKey != "" {
		searcher.Register(search.NewBrave(cfg.Search.BraveAPIKey, search.BraveBaseURL))
	}
	logger.Info("search providers registered", "providers", searcher.Providers(), "default", cfg.Search.Default)

	transcriber := media.New(media.Config{
		YtDlpPath:          cfg.Media.YtDlpPath,
		SubtitleLanguage:   cfg.Media.SubtitleLanguage,
		MaxTranscriptChars: cfg.Media.MaxTranscriptChars,
	}, logger.With("component", "media"))

	gh, err := forge.NewGitHub(
		httpkit.NewClient(httpkit.WithTimeout(30*time.Second), httpkit.WithRetry(2, time.Second)),
		cfg.GitHub.Token, "", cfg.GitHub.DefaultRepo, logger.With("component", "forge"))
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry, tools.Backends{
		Tasks:    a.tasks,
		Contacts: a.contacts,
		Weather:  a.weather,
		Email:    mailer,
		Search:   searcher,
		Media:    transcriber,
		GitHub:   gh,
		Discord:  discord.NewWebhook(cfg.Discord.WebhookURL, "Bob"),
		Now:      time.Now,
	}); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	logger.Info("tools registered", "tools", registry.Names())

	a.llm, err = llm.New(ctx, llm.ProviderConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
	}, logger.With("component", "llm"))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	completer := llm.NewRetryClient(a.llm,
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
		llm.WithRequestsPerMinute(cfg.LLM.RequestsPerMinute),
		llm.WithRetryLogger(logger.With("component", "llm")),
	)
	logger.Info("completion client ready", "provider", a.llm.Name(), "model", cfg.LLM.Model)

	a.loop = agent.NewLoop(logger, registry, completer,
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithCache(agent.NewMemoryCache(cfg.Agent.CacheTTL, cfg.Agent.CacheMaxEntries)),
	)

	ok = true
	return a, nil
}
