package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"bookbridge" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"bookbridge" description:"Database name"`

	// Supplier file source
	FTPHost     string `long:"ftp-host" env:"FTP_HOST" description:"Supplier FTP host (required)" required:"true"`
	FTPPort     string `long:"ftp-port" env:"FTP_PORT" default:"21" description:"Supplier FTP port"`
	FTPUser     string `long:"ftp-user" env:"FTP_USER" description:"Supplier FTP user (required)" required:"true"`
	FTPPassword string `long:"ftp-password" env:"FTP_PASS" description:"Supplier FTP password (required)" required:"true"`

	// Enrichment service
	APIKey     string `long:"api-key" env:"ISBNDB_API_KEY" description:"Bibliographic lookup API key (required)" required:"true"`
	APIBaseURL string `long:"api-base-url" env:"ISBNDB_BASE_URL" default:"https://api2.isbndb.com" description:"Bibliographic lookup API base URL"`

	// Application configuration
	ProfilesDir  string `long:"profiles-dir" env:"PROFILES_DIR" default:"./profiles" description:"Directory containing supplier profile files"`
	StagingDir   string `long:"staging-dir" env:"STAGING_DIR" default:"./downloaded" description:"Local staging directory for retrieved feed files"`
	OutputDir    string `long:"output-dir" env:"OUTPUT_DIR" default:"./output" description:"Directory for matched/unmatched CSV artifacts"`
	CatalogTable string `long:"catalog-table" env:"CATALOG_TABLE" default:"catalog_books" description:"Catalog table name in the database"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"BookBridge/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/London)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses flags and environment into an immutable Cfg. A nil Cfg with a
// nil error means help was requested and printed.
func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:       raw.DBHost,
		DBPort:       raw.DBPort,
		DBUser:       raw.DBUser,
		DBPassword:   raw.DBPassword,
		DBName:       raw.DBName,
		FTPHost:      raw.FTPHost,
		FTPPort:      raw.FTPPort,
		FTPUser:      raw.FTPUser,
		FTPPassword:  raw.FTPPassword,
		APIKey:       raw.APIKey,
		APIBaseURL:   raw.APIBaseURL,
		ProfilesDir:  raw.ProfilesDir,
		StagingDir:   raw.StagingDir,
		OutputDir:    raw.OutputDir,
		CatalogTable: raw.CatalogTable,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
