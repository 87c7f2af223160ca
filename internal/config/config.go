// Package config loads server settings from the environment and command-line
// flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings. Flags override environment values.
type Config struct {
	Addr       string `env:"EWASTE_ADDR"        envDefault:":8080"`
	DBPath     string `env:"EWASTE_DATABASE"    envDefault:"ewaste.sqlite3"`
	UploadDir  string `env:"EWASTE_UPLOAD_DIR"  envDefault:"uploads"`
	SecretKey  string `env:"EWASTE_SECRET_KEY"`
	AdminUser  string `env:"EWASTE_ADMIN_USER"  envDefault:"admin"`
	AdminEmail string `env:"EWASTE_ADMIN_EMAIL" envDefault:"admin@example.com"`
	LogPath    string `env:"EWASTE_LOG"`
	MaxUpload  int64  `env:"EWASTE_MAX_UPLOAD"  envDefault:"5242880"`
}

// Usage is printed for -h.
const Usage = `Usage: ewaste [flags]

Flags:
  -d, -db <path>          SQLite database path (default: ewaste.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -uploads <dir>          directory for pickup photos (default: uploads)
  -u, -user <name>        admin username on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Every flag can also be set through the environment (EWASTE_DATABASE,
EWASTE_ADDR, EWASTE_UPLOAD_DIR, EWASTE_ADMIN_USER, EWASTE_LOG).
EWASTE_SECRET_KEY, EWASTE_ADMIN_EMAIL and EWASTE_MAX_UPLOAD are env only.
`

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment, then parses args on top of it.
// flag.ErrHelp is returned unchanged when -h is given.
func Load(args []string, output io.Writer) (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("ewaste", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fs.StringVar(&cfg.UploadDir, "uploads", cfg.UploadDir, "")
	fs.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fs.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.Usage = func() { fmt.Fprint(output, Usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if cfg.MaxUpload <= 0 {
		return nil, errors.New("EWASTE_MAX_UPLOAD must be positive")
	}

	return &cfg, nil
}
