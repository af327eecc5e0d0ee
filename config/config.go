package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pitabwire/frame/config"

	"github.com/voicetyped/composer/pkg/lg"
)

// Template store backends.
const (
	StoreMemory   = "memory"
	StoreDatabase = "database"
)

// ComposerConfig holds configuration for the composer service.
type ComposerConfig struct {
	config.ConfigurationDefault
	DialogDir              string `envDefault:"./dialogs"   env:"DIALOG_DIR"`
	TemplateDir            string `envDefault:"./templates" env:"TEMPLATE_DIR"`
	TemplateStore          string `envDefault:"memory"      env:"TEMPLATE_STORE"`
	LegacyTemplateNames    bool   `envDefault:"true"        env:"LEGACY_TEMPLATE_NAMES"`
	TemplateCacheSize      int    `envDefault:"1024"        env:"TEMPLATE_CACHE_SIZE"`
	StoreCBFailThreshold   int    `envDefault:"5"           env:"STORE_CB_FAILURE_THRESHOLD"`
	StoreCBResetTimeoutSec int    `envDefault:"30"          env:"STORE_CB_RESET_TIMEOUT_SEC"`
	WatchDialogs           bool   `envDefault:"true"        env:"WATCH_DIALOGS"`
}

// Validate checks values the env parser cannot.
func (c *ComposerConfig) Validate() error {
	switch strings.ToLower(c.TemplateStore) {
	case StoreMemory, StoreDatabase:
	default:
		return fmt.Errorf("TEMPLATE_STORE %q: want %q or %q", c.TemplateStore, StoreMemory, StoreDatabase)
	}
	if c.StoreCBFailThreshold < 1 {
		return errors.New("STORE_CB_FAILURE_THRESHOLD must be at least 1")
	}
	return nil
}

// UsesDatabase reports whether templates live in the service datastore.
func (c *ComposerConfig) UsesDatabase() bool {
	return strings.EqualFold(c.TemplateStore, StoreDatabase)
}

// NamingSchemes returns the template naming schemes the composer owns.
func (c *ComposerConfig) NamingSchemes() []lg.NamingScheme {
	if c.LegacyTemplateNames {
		return []lg.NamingScheme{lg.SchemeCanonical, lg.SchemeLegacy}
	}
	return []lg.NamingScheme{lg.SchemeCanonical}
}

// StoreResetTimeout returns the breaker reset timeout.
func (c *ComposerConfig) StoreResetTimeout() time.Duration {
	return time.Duration(c.StoreCBResetTimeoutSec) * time.Second
}
