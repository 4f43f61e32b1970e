package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/adapters/cache"
	"github.com/mvidal/phishguard/internal/adapters/store"
	"github.com/mvidal/phishguard/internal/config"
	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/factory"
	"github.com/mvidal/phishguard/internal/logging"
	"github.com/mvidal/phishguard/internal/ml"
)

var (
	// Model flags
	modelPath = flag.String("model", "", "Path to model artifact JSON (fallback weights used if empty)")

	// OSINT flags
	enrich           = flag.Bool("enrich", false, "Run threat-intel enrichment on URLs found in the email")
	virusTotalAPIKey = flag.String("vt-api-key", "", "VirusTotal API key")
	whoisAPIKey      = flag.String("whois-api-key", "", "WhoisXML API key")
	phishTankAppKey  = flag.String("phishtank-app-key", "", "PhishTank application key")
	dnsServer        = flag.String("dns-server", "8.8.8.8:53", "DNS server for A record lookups")
	osintTimeout     = flag.Duration("osint-timeout", 20*time.Second, "Timeout for threat-intel provider requests")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	owner      = flag.String("owner", "cli", "Owner recorded on the stored analysis")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	from := msg.Header.Get("From")
	subject := msg.Header.Get("Subject")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}
	body := string(bodyBytes)

	email := &core.EmailInput{
		Sender:  from,
		Subject: subject,
		Body:    body,
		Headers: make(map[string]string),
	}
	for k, v := range msg.Header {
		if len(v) > 0 {
			email.Headers[k] = v[0]
		}
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", from)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(body))
	fmt.Printf("\n")

	// Build the analysis pipeline
	scorer := ml.Load(cfg.GetString("model.artifact_path"), logger)
	docStore := store.NewMemoryStore(logger)
	service := core.NewAnalysisService(scorer, docStore, logger)

	fmt.Printf("=== Analysis ===\n")
	info := service.ModelInfo()
	fmt.Printf("Model: %s %s (%s mode, %s features)\n", info.Name, info.Version, info.Mode, scorer.Shape())

	startTime := time.Now()
	record, err := service.Analyze(context.Background(), email, *owner)
	if err != nil {
		logger.Fatal("Failed to analyze email", zap.Error(err))
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Risk score: %d\n", record.Result.RiskScore)
	fmt.Printf("Label: %s\n", record.Result.Label)
	fmt.Printf("Heuristic score: %d\n", record.HeuristicScore)
	fmt.Printf("Model probability: %.4f\n", record.ModelProbability)
	fmt.Printf("Reasons:\n")
	for _, reason := range record.Result.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
	fmt.Printf("Processing time: %v\n", duration)

	if *enrich {
		runEnrichment(cfg, logger, record, docStore)
	}
}

// runEnrichment looks up threat intel for the URLs the heuristics extracted.
func runEnrichment(cfg *config.Config, logger *zap.Logger, record *core.AnalysisRecord, docStore core.DocumentStore) {
	urls := record.Result.Indicators[core.IndicatorFoundURLs]
	if len(urls) == 0 {
		fmt.Printf("\n=== Threat Intel ===\nNo URLs to enrich.\n")
		return
	}

	cacheTTL, err := cfg.GetDuration("cache.ttl")
	if err != nil {
		cacheTTL = 24 * time.Hour
	}
	cacheRepo := cache.NewMemoryCache(logger, cacheTTL, 0)
	enricher := factory.NewIntelFactory(cfg, logger).CreateEnricher(cacheRepo, docStore)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	artifacts, err := enricher.Enrich(ctx, urls, record.ID, record.Owner)
	if err != nil {
		logger.Error("Enrichment failed", zap.Error(err))
		return
	}

	fmt.Printf("\n=== Threat Intel ===\n")
	for _, artifact := range artifacts {
		fmt.Printf("Host: %s (%s)\n", artifact.Host(), artifact.Source)
		if artifact.Reputation.OK {
			fmt.Printf("  Reputation: %d malicious, %d suspicious, %d harmless\n",
				artifact.Reputation.Stats.Malicious,
				artifact.Reputation.Stats.Suspicious,
				artifact.Reputation.Stats.Harmless)
		}
		if artifact.Geo.OK {
			fmt.Printf("  Location: %s, %s (%s)\n", artifact.Geo.City, artifact.Geo.Country, artifact.Geo.ISP)
		}
		if artifact.Blocklist.OK && artifact.Blocklist.Listed {
			fmt.Printf("  Listed on OpenPhish\n")
		}
		if artifact.PhishReport.OK && artifact.PhishReport.InDatabase {
			fmt.Printf("  Reported to PhishTank (verified: %t)\n", artifact.PhishReport.Verified)
		}
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("model.artifact_path", *modelPath)

	v.Set("osint.timeout", osintTimeout.String())
	v.Set("osint.virustotal.api_key", strings.TrimSpace(*virusTotalAPIKey))
	v.Set("osint.whois.api_key", strings.TrimSpace(*whoisAPIKey))
	v.Set("osint.phishtank.app_key", strings.TrimSpace(*phishTankAppKey))
	v.Set("osint.dns.server", *dnsServer)
	v.Set("osint.dns.timeout", "10s")

	v.Set("cache.ttl", "24h")

	return config.NewFromViper(v)
}
