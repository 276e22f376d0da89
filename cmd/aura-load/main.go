package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/aurahq/aura/pkg/scraper"
)

type Config struct {
	ServerURL string
	TenantID  string
	DocsURL   string
	MaxDepth  int
	RateLimit float64
	Files     []string
}

type document struct {
	Title   string
	Content string
}

func main() {
	config := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func parseFlags() Config {
	var config Config

	flag.StringVar(&config.ServerURL, "server", "http://localhost:8080", "Aura server URL")
	flag.StringVar(&config.TenantID, "tenant", "", "Tenant ID to load documents into")
	flag.StringVar(&config.DocsURL, "url", "", "Documentation URL to scrape and load")
	flag.IntVar(&config.MaxDepth, "max-depth", 3, "Maximum depth for web scraping")
	flag.Float64Var(&config.RateLimit, "rate-limit", 2.0, "Rate limit for web scraping")
	flag.Parse()

	config.Files = flag.Args()
	return config
}

func run(ctx context.Context, config Config) error {
	if config.TenantID == "" {
		return fmt.Errorf("-tenant is required")
	}
	if config.DocsURL == "" && len(config.Files) == 0 {
		return fmt.Errorf("nothing to load: pass -url or one or more files")
	}

	var docs []document

	if config.DocsURL != "" {
		pages, err := scrapeDocs(ctx, config)
		if err != nil {
			return fmt.Errorf("scraping %s: %w", config.DocsURL, err)
		}
		for _, page := range pages {
			title := page.Title
			if title == "" {
				title = page.URL
			}
			docs = append(docs, document{Title: title, Content: page.Content})
		}
		color.Green("\n✓ Scraped %d pages\n", len(pages))
	}

	for _, path := range config.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, document{
			Title:   filepath.Base(path),
			Content: string(data),
		})
	}

	if len(docs) == 0 {
		return fmt.Errorf("no documents with content found")
	}

	uploaded, err := uploadDocs(ctx, config, docs)
	if err != nil {
		return err
	}

	color.Green("\n✓ Loaded %d/%d documents into tenant %s\n", uploaded, len(docs), config.TenantID)
	return nil
}

func scrapeDocs(ctx context.Context, config Config) ([]scraper.Page, error) {
	spinner := getSpinner(fmt.Sprintf("Scraping %s...", config.DocsURL))
	defer spinner.Finish()

	s, err := scraper.NewWithConfig(scraper.ScraperConfig{
		BaseURL:   config.DocsURL,
		MaxDepth:  config.MaxDepth,
		RateLimit: config.RateLimit,
		OnPage: func(url string) {
			spinner.Describe(color.CyanString("Scraping %s...", url))
			spinner.Add(1)
		},
	})
	if err != nil {
		return nil, err
	}

	return s.Scrape(ctx, config.DocsURL)
}

func uploadDocs(ctx context.Context, config Config, docs []document) (int, error) {
	bar := getProgressBar(len(docs), "Uploading documents...")
	client := &http.Client{Timeout: 60 * time.Second}
	endpoint := strings.TrimRight(config.ServerURL, "/") + "/documents"

	uploaded := 0
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			bar.Add(1)
			continue
		}

		if err := postDocument(ctx, client, endpoint, config.TenantID, doc); err != nil {
			return uploaded, fmt.Errorf("uploading %q: %w", doc.Title, err)
		}
		uploaded++
		bar.Add(1)
	}

	return uploaded, nil
}

func postDocument(ctx context.Context, client *http.Client, endpoint, tenantID string, doc document) error {
	body, err := json.Marshal(map[string]string{
		"tenant_id": tenantID,
		"title":     doc.Title,
		"content":   doc.Content,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
