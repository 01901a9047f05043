package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds monitor configuration. Credentials come in from the
// environment in main; core packages only ever see this struct.
type Config struct {
	APIKey          string // Serper.dev API key
	SpreadsheetID   string // Google Sheets spreadsheet ID
	CredentialsJSON string // service-account credentials payload

	Endpoint string
	GL       string // country code sent with each search
	HL       string // interface language sent with each search
	Shape    string // provider response dialect: ads or organic

	Store         string // sheets or csv
	OutputDir     string // directory for the csv store
	ConfigTable   string
	ListingsTable string
	RelatedTable  string

	Timeout         time.Duration
	RequestInterval time.Duration // pause enforced between provider calls
	DedupeMaxSize   int           // related-search dedupe cache size, 0 disables
	MetricsAddr     string
	Verbose         bool
}

// DefaultConfig returns defaults matching the production Serper setup.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:        "https://google.serper.dev/search",
		GL:              "tw",
		HL:              "zh-tw",
		Shape:           "ads",
		Store:           "sheets",
		OutputDir:       "output",
		ConfigTable:     "Config",
		ListingsTable:   "Data",
		RelatedTable:    "Keyword_Ideas",
		Timeout:         30 * time.Second,
		RequestInterval: time.Second,
		DedupeMaxSize:   1024,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key cannot be empty (set SERPER_API_KEY)")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	parsedURL, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("endpoint must include a host")
	}
	if c.Shape != "ads" && c.Shape != "organic" {
		return fmt.Errorf("shape must be ads or organic")
	}
	switch c.Store {
	case "sheets":
		if c.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet ID cannot be empty (set SHEET_ID)")
		}
		if c.CredentialsJSON == "" {
			return fmt.Errorf("credentials cannot be empty (set GCP_CREDENTIALS_JSON)")
		}
	case "csv":
		if c.OutputDir == "" {
			return fmt.Errorf("output directory cannot be empty")
		}
	default:
		return fmt.Errorf("store must be sheets or csv")
	}
	if c.ConfigTable == "" || c.ListingsTable == "" || c.RelatedTable == "" {
		return fmt.Errorf("table names cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RequestInterval < 0 {
		return fmt.Errorf("request interval cannot be negative")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe size cannot be negative")
	}
	return nil
}
