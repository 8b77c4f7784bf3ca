package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

// Config holds all application configuration
type Config struct {
	Business BusinessConfig `toml:"business"`
	Extract  ExtractConfig  `toml:"extract"`
	Counter  CounterConfig  `toml:"counter"`
	Waiver   WaiverConfig   `toml:"waiver"`
	Render   RenderConfig   `toml:"render"`
	Text     TextConfig     `toml:"text"`
	Output   OutputConfig   `toml:"output"`
}

// BusinessConfig holds the issuer identity printed on invoices
type BusinessConfig struct {
	Name            string   `toml:"name"`
	Address         []string `toml:"address"`
	BillTo          []string `toml:"bill_to"`
	DefaultCustomer string   `toml:"default_customer"`
	Signer          string   `toml:"signer"`
	Variant         string   `toml:"variant"` // "standard" | "out_of_scope"
}

// ExtractConfig holds the knobs of the purchase-order heuristics
type ExtractConfig struct {
	Cities        []string `toml:"cities"`
	CraftCode     string   `toml:"craft_code"`
	CustomerMatch string   `toml:"customer_match"`
	CustomerLabel string   `toml:"customer_label"`
}

// CounterConfig selects the durable invoice counter backend
type CounterConfig struct {
	Backend string `toml:"backend"` // "file" | "sqlite" | "postgres"
	Path    string `toml:"path"`
	DSN     string `toml:"dsn"`
}

// WaiverConfig points at the lien-waiver template
type WaiverConfig struct {
	TemplatePath string `toml:"template_path"`
	Version      string `toml:"version"`
	Signature    string `toml:"signature"`
}

// RenderConfig holds the external document converter settings
type RenderConfig struct {
	Soffice string   `toml:"soffice"`
	Timeout Duration `toml:"timeout"`
}

// TextConfig selects how page text is pulled out of a PDF
type TextConfig struct {
	Engine    string `toml:"engine"` // "pdftotext" | "eino"
	Pdftotext string `toml:"pdftotext"`
}

// OutputConfig controls what a batch writes
type OutputConfig struct {
	Dir      string `toml:"dir"`
	Combined bool   `toml:"combined"`
	Ledger   bool   `toml:"ledger"`
}

// Duration decodes TOML strings such as "45s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Business: BusinessConfig{
			Name:            "I'll Klean It",
			BillTo:          []string{"1396 W Herndon", "Fresno, CA 93711"},
			DefaultCustomer: "Granville Homes",
			Signer:          "Luis Moreno",
			Variant:         "standard",
		},
		Extract: ExtractConfig{
			Cities:        []string{"Fresno", "Clovis"},
			CraftCode:     "4440",
			CustomerMatch: "Granville Homes Inc.",
			CustomerLabel: "Granville Homes",
		},
		Counter: CounterConfig{
			Backend: "file",
			Path:    constants.CounterFileName,
		},
		Waiver: WaiverConfig{
			Version:   "1",
			Signature: constants.DefaultSignature,
		},
		Render: RenderConfig{
			Soffice: "soffice",
			Timeout: Duration{60 * time.Second},
		},
		Text: TextConfig{
			Engine:    "pdftotext",
			Pdftotext: "pdftotext",
		},
		Output: OutputConfig{
			Dir:      "./out",
			Combined: true,
		},
	}
}

// LoadConfig loads defaults, then the TOML file at path (if any), then
// environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError(CodeConfig, "parse config file "+path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Counter.Backend = getEnv("INVOICE_COUNTER_BACKEND", c.Counter.Backend)
	c.Counter.Path = getEnv("INVOICE_COUNTER_PATH", c.Counter.Path)
	c.Counter.DSN = getEnv("INVOICE_DB_URL", c.Counter.DSN)
	c.Waiver.TemplatePath = getEnv("WAIVER_TEMPLATE", c.Waiver.TemplatePath)
	c.Render.Soffice = getEnv("SOFFICE_BIN", c.Render.Soffice)
	c.Render.Timeout.Duration = getEnvAsDuration("RENDER_TIMEOUT", c.Render.Timeout.Duration)
	c.Text.Engine = getEnv("TEXT_ENGINE", c.Text.Engine)
	c.Text.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Text.Pdftotext)
	c.Output.Dir = getEnv("OUTPUT_DIR", c.Output.Dir)
	c.Output.Ledger = getEnvAsBool("OUTPUT_LEDGER", c.Output.Ledger)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("business.name", c.Business.Name, Required)
	v.Field("business.variant", c.Business.Variant, OneOf("standard", "out_of_scope"))
	v.Field("extract.cities", c.Extract.Cities, Required)
	v.Field("extract.craft_code", c.Extract.CraftCode, Required)
	v.Field("counter.backend", c.Counter.Backend, OneOf("file", "sqlite", "postgres"))
	v.Field("text.engine", c.Text.Engine, OneOf("pdftotext", "eino"))
	v.Field("output.dir", c.Output.Dir, Required)
	switch c.Counter.Backend {
	case "file", "sqlite":
		v.Field("counter.path", c.Counter.Path, Required)
	case "postgres":
		v.Field("counter.dsn", c.Counter.DSN, Required)
	}
	v.Field("render.timeout", c.Render.Timeout.Duration, Positive)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// String renders the effective configuration as TOML.
func (c *Config) String() string {
	b, err := toml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return string(b)
}
