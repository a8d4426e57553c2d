package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/receipt-split/internal/boltdb"
	"github.com/zombor/receipt-split/internal/ledger"
	"github.com/zombor/receipt-split/internal/logging"
	"github.com/zombor/receipt-split/internal/receipt"
	"github.com/zombor/receipt-split/internal/scanning"
	"github.com/zombor/receipt-split/internal/translation"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-split")
	var (
		port             = fs.IntLong("port", 8080, "HTTP server port")
		dbPath           = fs.StringLong("db", "receipt-split.db", "Database file path")
		storagePath      = fs.StringLong("storage", "./receipts", "Receipt image directory")
		scannerType      = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey        = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel      = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL        = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel      = fs.StringLong("ollama-model", "llava", "Ollama model name")
		ocrLanguages     = fs.StringLong("ocr-languages", "nld+eng", "OCR languages, '+' separated")
		translateURL     = fs.StringLong("translate-url", "https://api.mymemory.translated.net", "MyMemory API base URL")
		langPair         = fs.StringLong("lang-pair", "nl|en", "Translation language pair")
		translateTimeout = fs.DurationLong("translate-timeout", translation.DefaultTimeout, "Per-phrase translation timeout")
		lookupSite       = fs.StringLong("lookup-site", "lidl.nl", "Site used for product lookup links")
		partyA           = fs.StringLong("party-a", "david", "First party name")
		partyB           = fs.StringLong("party-b", "popa", "Second party name")
		authUser         = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass         = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel         = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		_                = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_SPLIT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(*logLevel)

	parties := ledger.Parties{A: strings.ToLower(*partyA), B: strings.ToLower(*partyB)}
	if parties.A == "" || parties.B == "" || parties.A == parties.B {
		slog.Error("Two distinct party names are required", "party_a", *partyA, "party_b", *partyB)
		os.Exit(1)
	}

	slog.Info("Opening database...", "path", *dbPath)
	db, err := boltdb.Open(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ledgerStore, err := ledger.NewBoltStore(db)
	if err != nil {
		slog.Error("Failed to initialize ledger store", "error", err)
		os.Exit(1)
	}
	book := ledger.NewService(ledgerStore, parties)

	phrases, err := translation.NewBoltPhraseStore(db)
	if err != nil {
		slog.Error("Failed to initialize phrase store", "error", err)
		os.Exit(1)
	}
	translator := translation.NewCached(translation.NewMyMemory(*translateURL, *langPair, *translateTimeout), phrases)
	slog.Info("Translation cache loaded", "phrases", translator.Len())

	var scanner scanning.Scanner
	switch *scannerType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel, "languages", *ocrLanguages)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel, *ocrLanguages)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel, "languages", *ocrLanguages)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel, *ocrLanguages)
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize scanner", "type", *scannerType, "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	images, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := receipt.NewService(scanner, translator, book, images, receipt.Config{
		LookupSite:         *lookupSite,
		TranslationTimeout: *translateTimeout,
	})

	server := receipt.NewServer(service, book, receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version,
		"parties", []string{parties.A, parties.B})
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
