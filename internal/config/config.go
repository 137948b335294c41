// Package config loads and validates prerender configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/poetry-prerender/internal/poetry"
	"github.com/JakeFAU/poetry-prerender/internal/render"
	"github.com/JakeFAU/poetry-prerender/internal/source"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server      ServerConfig        `mapstructure:"server"`
	Origin      OriginConfig        `mapstructure:"origin"`
	Site        SiteConfig          `mapstructure:"site"`
	HTTP        HTTPConfig          `mapstructure:"http"`
	GCS         GCSConfig           `mapstructure:"gcs"`
	Bots        BotsConfig          `mapstructure:"bots"`
	Logging     LoggingConfig       `mapstructure:"logging"`
	Collections []poetry.Collection `mapstructure:"collections"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`

	// AdminPort serves /healthz, /readyz and /metrics apart from site traffic.
	AdminPort              int `mapstructure:"admin_port"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// OriginConfig points at the primary site that receives pass-through traffic.
type OriginConfig struct {
	URL string `mapstructure:"url"`
}

// SiteConfig describes the public site used in canonical URLs and meta tags.
type SiteConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Name       string `mapstructure:"name"`
	Author     string `mapstructure:"author"`
	CardPrefix string `mapstructure:"card_prefix"`
	CardPages  int    `mapstructure:"card_pages"`
}

// HTTPConfig configures collection fetches.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// GCSConfig tunes the Cloud Storage client used for gs:// collections.
type GCSConfig struct {
	// Endpoint overrides the API endpoint, e.g. for a local emulator.
	Endpoint string `mapstructure:"endpoint"`
	// Anonymous skips credential lookup; enough for public buckets.
	Anonymous bool `mapstructure:"anonymous"`
}

// BotsConfig extends the built-in crawler signatures.
type BotsConfig struct {
	Extra []string `mapstructure:"extra"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRERENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Hosting platforms hand out the listen port as PORT.
	if err := v.BindEnv("server.port", "PRERENDER_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind port env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.expandSources()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.admin_port", 9090)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("origin.url", "")
	v.SetDefault("site.base_url", "")
	v.SetDefault("site.name", "Poetry")
	v.SetDefault("site.author", "")
	v.SetDefault("site.card_prefix", "images/cards")
	v.SetDefault("site.card_pages", render.DefaultCardPages)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "poetry-prerender/1.0")
	v.SetDefault("gcs.endpoint", "")
	v.SetDefault("gcs.anonymous", false)
	v.SetDefault("bots.extra", []string{})
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// expandSources resolves ${VAR} references so collection locations can be
// injected by the environment without editing the file.
func (c *Config) expandSources() {
	for i := range c.Collections {
		c.Collections[i].Key = strings.TrimSpace(c.Collections[i].Key)
		c.Collections[i].Source = strings.TrimSpace(os.ExpandEnv(c.Collections[i].Source))
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be > 0")
	}
	if c.Server.AdminPort <= 0 {
		return errors.New("server.admin_port must be > 0")
	}
	if c.Server.AdminPort == c.Server.Port {
		return errors.New("server.admin_port must differ from server.port")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return errors.New("server.shutdown_timeout_seconds must be > 0")
	}
	if err := requireAbsoluteURL("origin.url", c.Origin.URL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("site.base_url", c.Site.BaseURL); err != nil {
		return err
	}
	if c.Site.CardPages < 0 {
		return errors.New("site.card_pages must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http.timeout_seconds must be > 0")
	}
	seen := make(map[string]struct{}, len(c.Collections))
	for i, col := range c.Collections {
		if col.Key == "" {
			return fmt.Errorf("collections[%d].key must be set", i)
		}
		if _, dup := seen[col.Key]; dup {
			return fmt.Errorf("collections[%d].key %q is duplicated", i, col.Key)
		}
		seen[col.Key] = struct{}{}
	}
	return nil
}

func requireAbsoluteURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s must be set", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// FetchTimeout bounds a single collection fetch.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds graceful server shutdown.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// RenderSite converts the site section for the page renderer.
func (c Config) RenderSite() render.Site {
	return render.Site{
		BaseURL:    c.Site.BaseURL,
		Name:       c.Site.Name,
		Author:     c.Site.Author,
		CardPrefix: c.Site.CardPrefix,
		CardPages:  c.Site.CardPages,
	}
}

// SourceHTTP converts the http section for the collection fetcher.
func (c Config) SourceHTTP() source.HTTPConfig {
	return source.HTTPConfig{
		UserAgent: c.HTTP.UserAgent,
		Timeout:   c.FetchTimeout(),
	}
}

// UsesScheme reports whether any enabled collection is fetched over scheme.
func (c Config) UsesScheme(scheme string) bool {
	for _, col := range c.Collections {
		u, err := url.Parse(col.Source)
		if err == nil && strings.EqualFold(u.Scheme, scheme) {
			return true
		}
	}
	return false
}
