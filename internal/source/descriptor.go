package source

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/Aaditya7171/event-platform/pkg/config"
	"gopkg.in/yaml.v3"
)

// Selectors locate listing parts inside the source page
type Selectors struct {
	Container string `yaml:"container"`
	Title     string `yaml:"title"`
	Link      string `yaml:"link"`
	Time      string `yaml:"time"`
}

// Descriptor describes one listing source
type Descriptor struct {
	Name       string        `yaml:"name"`
	URL        string        `yaml:"url"`
	BaseURL    string        `yaml:"base_url"`
	City       string        `yaml:"city"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Selectors  Selectors     `yaml:"selectors"`
}

// DefaultSelectors match one listing per article with an h3 title and an anchor
func DefaultSelectors() Selectors {
	return Selectors{
		Container: "article",
		Title:     "h3",
		Link:      "a",
		Time:      "time",
	}
}

// DefaultDescriptor is the Sydney TimeOut things-to-do page
func DefaultDescriptor() *Descriptor {
	return &Descriptor{
		Name:       "TimeOut",
		URL:        "https://www.timeout.com/sydney/things-to-do",
		BaseURL:    "https://www.timeout.com",
		City:       "Sydney",
		UserAgent:  "Mozilla/5.0",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		Selectors:  DefaultSelectors(),
	}
}

// LoadDescriptor reads a YAML descriptor and fills unset fields with defaults
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source descriptor: %w", err)
	}

	d := &Descriptor{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parse source descriptor %s: %w", path, err)
	}
	d.applyDefaults(DefaultDescriptor())

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// DescriptorFromConfig builds the descriptor from scraper settings.
// A descriptor file, when configured, takes precedence over individual settings.
func DescriptorFromConfig(cfg *config.ScraperConfig) (*Descriptor, error) {
	base := &Descriptor{
		Name:       cfg.Name,
		URL:        cfg.URL,
		BaseURL:    cfg.BaseURL,
		City:       cfg.City,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	}
	base.applyDefaults(DefaultDescriptor())

	if cfg.SourceFile == "" {
		if err := base.Validate(); err != nil {
			return nil, err
		}
		return base, nil
	}

	data, err := os.ReadFile(cfg.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("read source descriptor: %w", err)
	}
	d := &Descriptor{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parse source descriptor %s: %w", cfg.SourceFile, err)
	}
	d.applyDefaults(base)

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Descriptor) applyDefaults(def *Descriptor) {
	if d.Name == "" {
		d.Name = def.Name
	}
	if d.URL == "" {
		d.URL = def.URL
	}
	if d.BaseURL == "" {
		d.BaseURL = def.BaseURL
	}
	if d.City == "" {
		d.City = def.City
	}
	if d.UserAgent == "" {
		d.UserAgent = def.UserAgent
	}
	if d.Timeout == 0 {
		d.Timeout = def.Timeout
	}
	if d.MaxRetries == 0 {
		d.MaxRetries = def.MaxRetries
	}
	if d.Selectors.Container == "" {
		d.Selectors.Container = def.Selectors.Container
	}
	if d.Selectors.Title == "" {
		d.Selectors.Title = def.Selectors.Title
	}
	if d.Selectors.Link == "" {
		d.Selectors.Link = def.Selectors.Link
	}
	if d.Selectors.Time == "" {
		d.Selectors.Time = def.Selectors.Time
	}
}

// Validate checks the descriptor is usable
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("source name is required")
	}
	if _, err := parseAbsolute(d.URL); err != nil {
		return fmt.Errorf("source url: %w", err)
	}
	if _, err := parseAbsolute(d.BaseURL); err != nil {
		return fmt.Errorf("source base_url: %w", err)
	}
	if d.Selectors.Container == "" || d.Selectors.Title == "" || d.Selectors.Link == "" {
		return errors.New("source selectors for container, title and link are required")
	}
	return nil
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute url", raw)
	}
	return u, nil
}
