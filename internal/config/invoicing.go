package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingConfig carries operator-tunable invoicing defaults. Values
// here never change the numbering or totals of already-written rows;
// they only affect how new input is defaulted.
type InvoicingConfig struct {
	// DefaultBagWeightKg is applied to items and products that do not
	// specify a bag weight.
	DefaultBagWeightKg float64 `mapstructure:"defaultBagWeightKg"`
	// ClientSearchLimit caps the autocomplete search result size.
	ClientSearchLimit int `mapstructure:"clientSearchLimit"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		DefaultBagWeightKg: 50,
		ClientSearchLimit:  10,
	}
}

// InvoicingConfigHolder hot-reloads invoicing.yml so defaults can be
// adjusted without a restart.
type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

func NewInvoicingConfigHolder() (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/indigobills/config")
	v.AddConfigPath("/etc/indigobills")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INDIGOBILLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Unmarshal on top of the defaults so a partial config file only
	// overrides the keys it actually sets.
	cfg := DefaultInvoicingConfig()
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultInvoicingConfig()
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Printf("[invoicing-config] reload failed: %v", err)
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Printf("[invoicing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[invoicing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	return h.current.Load().(InvoicingConfig)
}

// NewStaticInvoicingConfigHolder returns a holder pinned to cfg, with no
// file watching. Used by tests and tools.
func NewStaticInvoicingConfigHolder(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if cfg.DefaultBagWeightKg <= 0 {
		return errors.New("invoicing.defaultBagWeightKg must be positive")
	}
	if cfg.ClientSearchLimit <= 0 || cfg.ClientSearchLimit > 100 {
		return errors.New("invoicing.clientSearchLimit must be within 1..100")
	}
	return nil
}
