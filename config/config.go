// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultTemplateDir is where generated import templates go unless
// TEMPLATE_DIR says otherwise.
const DefaultTemplateDir = "templates"

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// JWT signing secret, required by the stats API only.
	JWTSecret string
	// AdminUsers may call the password hash endpoint.
	AdminUsers []string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// Workbook import. Pending files live in InputDir and move to
	// ProcessedDir once imported or skipped.
	InputDir      string
	ProcessedDir  string
	TemplateDir   string
	CoursePattern string
	RoundPattern  string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith is Load for callers that have already bound other sources, such
// as command line flags, into v. Those take precedence over the environment.
func LoadWith(v *viper.Viper) (*Config, error) {
	loadDotEnv()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	// Defaults
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "golf_stats")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("PORT", ":9000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("INPUT_DIR", "data/raw")
	v.SetDefault("PROCESSED_DIR", "data/processed")
	v.SetDefault("TEMPLATE_DIR", DefaultTemplateDir)
	v.SetDefault("COURSE_PATTERN", "course_*.xlsx")
	v.SetDefault("ROUND_PATTERN", "*.xlsx")
	v.SetDefault("ADMIN_USERS", "admin")

	pass := v.GetString("DB_PASS")
	if pass == "" {
		// legacy name
		pass = v.GetString("DB_PASSWORD")
	}

	cfg := &Config{
		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBUser:        v.GetString("DB_USER"),
		DBPass:        pass,
		DBHost:        v.GetString("DB_HOST"),
		DBPort:        v.GetString("DB_PORT"),
		DBName:        v.GetString("DB_NAME"),
		DBSSLMode:     v.GetString("DB_SSLMODE"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		AdminUsers:    splitTrimmed(v.GetString("ADMIN_USERS")),
		Debug:         v.GetBool("DEBUG"),
		Port:          v.GetString("PORT"),
		TLSDomains:    splitTrimmed(v.GetString("TLS_DOMAINS")),
		InputDir:      v.GetString("INPUT_DIR"),
		ProcessedDir:  v.GetString("PROCESSED_DIR"),
		TemplateDir:   v.GetString("TEMPLATE_DIR"),
		CoursePattern: v.GetString("COURSE_PATTERN"),
		RoundPattern:  v.GetString("ROUND_PATTERN"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// RequireJWT reports an error when the API signing secret is missing.
func (c *Config) RequireJWT() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" && c.DBPass == "" {
		return errors.New("config: DATABASE_URL or DB_PASS must be set")
	}
	if c.InputDir == "" || c.ProcessedDir == "" {
		return errors.New("config: INPUT_DIR and PROCESSED_DIR must not be empty")
	}
	if c.InputDir == c.ProcessedDir {
		return fmt.Errorf("config: INPUT_DIR and PROCESSED_DIR are both %q", c.InputDir)
	}
	for key, pattern := range map[string]string{"COURSE_PATTERN": c.CoursePattern, "ROUND_PATTERN": c.RoundPattern} {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("config: %s must not be empty", key)
		}
	}
	return nil
}

func loadDotEnv() {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
