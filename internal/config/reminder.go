package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReminderConfig holds operator-tunable dispatch defaults. Tenants without
// explicit settings inherit these values.
type ReminderConfig struct {
	DefaultLeadDays        int    `mapstructure:"defaultLeadDays"`
	DefaultMessageTemplate string `mapstructure:"defaultMessageTemplate"`
	// MaxDispatchPerRun caps how many records a single scheduled run will
	// send per tenant. Zero means no cap.
	MaxDispatchPerRun int `mapstructure:"maxDispatchPerRun"`
}

func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		DefaultLeadDays:        7,
		DefaultMessageTemplate: "Hi {client_name}, your {resource} is due on {date}. - {business_name} ({business_contact})",
		MaxDispatchPerRun:      0,
	}
}

// ReminderConfigHolder holds the current ReminderConfig and hot-reloads it
// when the backing file changes.
type ReminderConfigHolder struct {
	current atomic.Value // holds ReminderConfig
}

func NewReminderConfigHolder() (*ReminderConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("reminders")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/autoremind/config")
	v.AddConfigPath("/etc/autoremind")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AUTOREMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultReminderConfig()
		v.SetDefault("reminders.defaultLeadDays", defaults.DefaultLeadDays)
		v.SetDefault("reminders.defaultMessageTemplate", defaults.DefaultMessageTemplate)
		v.SetDefault("reminders.maxDispatchPerRun", defaults.MaxDispatchPerRun)
	}

	var cfg ReminderConfig
	if err := v.UnmarshalKey("reminders", &cfg); err != nil {
		return nil, err
	}
	if err := validateReminderConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ReminderConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ReminderConfig
		if err := v.UnmarshalKey("reminders", &updated); err != nil {
			log.Printf("[reminder-config] reload failed: %v", err)
			return
		}
		if err := validateReminderConfig(updated); err != nil {
			log.Printf("[reminder-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[reminder-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ReminderConfigHolder) Get() ReminderConfig {
	return h.current.Load().(ReminderConfig)
}

// NewStaticReminderConfigHolder wraps a fixed config, for tests.
func NewStaticReminderConfigHolder(cfg ReminderConfig) *ReminderConfigHolder {
	holder := &ReminderConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateReminderConfig(cfg ReminderConfig) error {
	if cfg.DefaultLeadDays < 1 {
		return errors.New("reminders.defaultLeadDays must be >= 1")
	}
	if strings.TrimSpace(cfg.DefaultMessageTemplate) == "" {
		return errors.New("reminders.defaultMessageTemplate cannot be empty")
	}
	if cfg.MaxDispatchPerRun < 0 {
		return errors.New("reminders.maxDispatchPerRun cannot be negative")
	}
	return nil
}
