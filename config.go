package jobgate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"gopkg.in/yaml.v3"

	"github.com/jobgate/jobgate/policy"
	"github.com/jobgate/jobgate/service/meta"
	"github.com/jobgate/jobgate/service/notify"
)

// Config is a serialisable representation of the gate configuration.  It can
// be populated from YAML or JSON; the zero-value is useful - all nested
// fields inherit their package defaults.
type Config struct {
	Protection   ProtectionConfig   `json:"protection" yaml:"protection"`
	Notification NotificationConfig `json:"notification" yaml:"notification"`

	// RetentionHours is how long resolved requests stay visible for audit
	// before the retention sweep removes them.
	RetentionHours int `json:"retentionHours" yaml:"retentionHours"`
}

// ProtectionConfig selects which resources require approval and how long a
// pending request stays decidable.
type ProtectionConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Patterns is an ordered list of regular expressions matched full-string
	// against the resource name.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`

	// PatternList optionally supplies additional patterns as a single comma
	// or newline separated string, appended after Patterns.
	PatternList string `json:"patternList,omitempty" yaml:"patternList,omitempty"`

	// TimeoutMinutes bounds how long a request stays PENDING.
	TimeoutMinutes int `json:"timeoutMinutes" yaml:"timeoutMinutes"`
}

// NotificationConfig is the webhook delivery target.
type NotificationConfig struct {
	WebhookURL     string `json:"webhookURL,omitempty" yaml:"webhookURL,omitempty"`
	BaseURL        string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	AuthSecretURL  string `json:"authSecretURL,omitempty" yaml:"authSecretURL,omitempty"`
	AuthSecretKey  string `json:"authSecretKey,omitempty" yaml:"authSecretKey,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults:
// protection disabled, a 30 minute approval window and 24 hour audit
// retention.
func DefaultConfig() *Config {
	return &Config{
		Protection: ProtectionConfig{
			TimeoutMinutes: 30,
		},
		Notification: NotificationConfig{
			TimeoutSeconds: 30,
		},
		RetentionHours: 24,
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Protection.TimeoutMinutes <= 0 {
		return fmt.Errorf("protection.timeoutMinutes must be > 0")
	}
	if c.RetentionHours <= 0 {
		return fmt.Errorf("retentionHours must be > 0")
	}
	if URL := c.Notification.WebhookURL; URL != "" {
		if !strings.HasPrefix(URL, "http://") && !strings.HasPrefix(URL, "https://") {
			return fmt.Errorf("notification.webhookURL must start with http:// or https://")
		}
	}
	return nil
}

// protectionPolicy converts the protection section into the policy config.
func (c *Config) protectionPolicy() *policy.Config {
	patterns := append([]string(nil), c.Protection.Patterns...)
	patterns = append(patterns, policy.ParseList(c.Protection.PatternList)...)
	return &policy.Config{Enabled: c.Protection.Enabled, Patterns: patterns}
}

// notification converts the notification section into the dispatcher config.
func (c *Config) notification() notify.Config {
	return notify.Config{
		WebhookURL:    c.Notification.WebhookURL,
		BaseURL:       c.Notification.BaseURL,
		AuthSecretURL: c.Notification.AuthSecretURL,
		AuthSecretKey: c.Notification.AuthSecretKey,
		Timeout:       time.Duration(c.Notification.TimeoutSeconds) * time.Second,
	}
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.Protection.TimeoutMinutes) * time.Minute
}

func (c *Config) retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// LoadConfig reads a YAML configuration document from any afs-supported
// location (file, mem, embed, object store), expanding ${env.KEY}
// expressions.  Missing fields keep their defaults.
func LoadConfig(ctx context.Context, location string, options ...storage.Option) (*Config, error) {
	metaService := meta.New(afs.New(), "", options...)
	data, err := metaService.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", location, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configStore holds the committed configuration.  Reads return the current
// snapshot pointer; Update swaps it atomically so there is no staleness
// window between a configuration change and subsequent policy evaluations.
type configStore struct {
	mu      sync.RWMutex
	current *Config
}

func (s *configStore) snapshot() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *configStore) update(cfg *Config) {
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
}
