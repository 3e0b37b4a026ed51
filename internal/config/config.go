// Package config provides functionality for managing configuration options
// for the client and the companion server using command-line flags,
// environment variables and an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"
)

// Options holds the configuration values for the companion server.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// DatabaseDSN holds the database connection string for the server.
	DatabaseDSN string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:2718", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct
// containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	return options
}

// Client holds the configuration values for the CLI client. It is built
// once at startup and passed into constructors; business logic never
// mutates it.
type Client struct {
	// SiteURL is the base URL of the puzzle site.
	SiteURL string

	// ServerURL is the base URL of the companion sync server.
	ServerURL string

	// DataDir is the directory holding the persisted state files.
	DataDir string

	// CaptchaAttempts bounds automatic retries after a rejected captcha.
	CaptchaAttempts int

	// RunTimeout bounds execution of a user solution file.
	RunTimeout time.Duration

	// Viewer is the external command used to display captcha images.
	Viewer string
}

// LoadClient builds the client configuration from defaults overridden by
// the IEULER_* environment variables.
func LoadClient() Client {
	cfg := Client{
		SiteURL:         "https://projecteuler.net",
		ServerURL:       "http://127.0.0.1:2718",
		DataDir:         ".",
		CaptchaAttempts: 3,
		RunTimeout:      30 * time.Second,
		Viewer:          "xdg-open",
	}

	host := os.Getenv("IEULER_SERVER_HOST")
	port := os.Getenv("IEULER_SERVER_PORT")
	if host != "" || port != "" {
		if host == "" {
			host = "127.0.0.1"
		}
		if port == "" {
			port = "2718"
		}
		cfg.ServerURL = "http://" + host + ":" + port
	}
	if site := os.Getenv("IEULER_SITE_URL"); site != "" {
		cfg.SiteURL = site
	}
	if dir := os.Getenv("IEULER_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if viewer := os.Getenv("IEULER_VIEWER"); viewer != "" {
		cfg.Viewer = viewer
	}
	if attempts := os.Getenv("IEULER_CAPTCHA_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil && n > 0 {
			cfg.CaptchaAttempts = n
		}
	}
	if timeout := os.Getenv("IEULER_RUN_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.RunTimeout = d
		}
	}

	return cfg
}
