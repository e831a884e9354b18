package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/invoice-ledger/internal/invoice"
	"github.com/zombor/invoice-ledger/internal/ledger"
	"github.com/zombor/invoice-ledger/internal/scanning"
	"github.com/zombor/invoice-ledger/internal/telegram"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	flags := ff.NewFlagSet("invoice-ledger")
	var (
		port          = flags.IntLong("port", 8080, "HTTP server port (0 disables the HTTP server)")
		ledgerType    = flags.StringLong("ledger", "xlsx", "Table store: 'xlsx' or 'bolt'")
		workbookPath  = flags.StringLong("workbook", "invoices.xlsx", "Workbook file path")
		dbPath        = flags.StringLong("db", "invoices.db", "Database file path")
		storagePath   = flags.StringLong("storage", "./invoice_images", "Photo archive directory")
		scannerType   = flags.StringLong("scanner", "openai", "Scanner type: 'openai', 'gemini' or 'ollama'")
		openaiKey     = flags.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel   = flags.StringLong("openai-model", "gpt-4o", "OpenAI model name")
		openaiURL     = flags.StringLong("openai-url", "", "OpenAI-compatible API base URL (optional)")
		geminiKey     = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = flags.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = flags.StringLong("ollama-model", "llava", "Ollama model name")
		categories    = flags.StringLong("categories", strings.Join(invoice.DefaultCategories, ","), "Comma separated sub-categories")
		dateFormat    = flags.StringLong("date-format", "dash", "Output date format: 'dash' (YYYY-MM-DD) or 'slash' (YYYY/MM/DD)")
		noItemSummary = flags.BoolLong("no-item-summary", "Leave the item summary column out of invoice rows")
		noAttribution = flags.BoolLong("no-attribution", "Leave the attributed-to column out of rows")
		telegramToken = flags.StringLong("telegram-token", "", "Telegram bot token (or set TELEGRAM_TOKEN env var)")
		telegramChats = flags.StringLong("telegram-chats", "", "Comma separated chat IDs allowed to use the bot (optional)")
		authUser      = flags.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = flags.StringLong("auth-pass", "", "Basic auth password (optional)")
		logFormat     = flags.StringLong("log-format", "text", "Log format: 'text' or 'json'")
		logLevel      = flags.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion   = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := setupLogging(*logFormat, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg := invoice.DefaultConfig()
	cfg.Categories = invoice.ParseCategories(*categories)
	cfg.SummarizeItems = !*noItemSummary
	cfg.TrackAttribution = !*noAttribution
	switch *dateFormat {
	case "dash":
		cfg.DateLayout = invoice.LayoutDash
	case "slash":
		cfg.DateLayout = invoice.LayoutSlash
	default:
		slog.Error("Invalid date format", "format", *dateFormat, "valid", "dash or slash")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	allowedChats, err := parseChatIDs(*telegramChats)
	if err != nil {
		slog.Error("Invalid telegram chat list", "error", err)
		os.Exit(1)
	}

	// Initialize table store
	slog.Info("Initializing ledger...", "type", *ledgerType)
	var table ledger.Table
	switch *ledgerType {
	case "xlsx":
		table, err = ledger.NewWorkbook(*workbookPath)
	case "bolt":
		table, err = ledger.NewBoltDB(*dbPath)
	default:
		err = fmt.Errorf("invalid ledger type %q, valid: xlsx or bolt", *ledgerType)
	}
	if err != nil {
		slog.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	defer table.Close()

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
	case "openai":
		apiKey := firstNonEmpty(*openaiKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			slog.Error("OpenAI API key is required. Set --openai-key flag or OPENAI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing OpenAI scanner...", "model", *openaiModel)
		scanner, err = scanning.NewOpenAI(apiKey, *openaiURL, *openaiModel, cfg.Categories)
	case "gemini":
		apiKey := firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY"))
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel, cfg.Categories)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel, cfg.Categories)
	default:
		err = fmt.Errorf("invalid scanner type %q, valid: openai, gemini or ollama", *scannerType)
	}
	if err != nil {
		slog.Error("Failed to initialize scanner", "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := ledger.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := ledger.NewService(table, scanner, store, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Either component failing stops the other
	group, gctx := errgroup.WithContext(ctx)
	running := 0

	if *port != 0 {
		server := ledger.NewServer(service, ledger.BasicAuth{
			Username: *authUser,
			Password: *authPass,
		})
		addr := fmt.Sprintf(":%d", *port)
		if *authUser != "" || *authPass != "" {
			slog.Info("Basic auth enabled", "user", *authUser)
		}
		running++
		group.Go(func() error {
			if err := server.Start(gctx, addr); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	if token := firstNonEmpty(*telegramToken, os.Getenv("TELEGRAM_TOKEN")); token != "" {
		bot, err := telegram.NewBot(token, service, allowedChats)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
			os.Exit(1)
		}
		running++
		group.Go(func() error {
			if err := bot.Run(gctx); err != nil {
				return fmt.Errorf("telegram bot: %w", err)
			}
			return nil
		})
	}

	if running == 0 {
		slog.Error("Nothing to run: set --port or --telegram-token")
		os.Exit(1)
	}

	if err := group.Wait(); err != nil {
		slog.Error("Stopped with error", "error", err)
		table.Close()
		scanner.Close()
		os.Exit(1)
	}
	slog.Info("Shut down")
}

func setupLogging(format, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q, valid: text or json", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseChatIDs(list string) ([]int64, error) {
	var ids []int64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chat id %q: %w", field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
