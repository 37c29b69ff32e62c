// Package config loads collector settings from an optional YAML file. Command
// line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/5amu/adhound/pkg/bloodhound"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingDomain = errors.New("no domain provided")
	ErrMissingTarget = errors.New("no target provided")
	ErrAuthConflict  = errors.New("password and ntlm hash are mutually exclusive")
)

const (
	DefaultPort    = 389
	DefaultSSLPort = 636
	DefaultWorkers = 4
)

type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	NTLMHash string `yaml:"ntlm_hash"`
	Kerberos bool   `yaml:"kerberos"`
	Krb5Conf string `yaml:"krb5_conf"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Prefix    string `yaml:"prefix"`
	Timestamp bool   `yaml:"timestamp"`
}

type Config struct {
	Domain     string       `yaml:"domain"`
	Targets    []string     `yaml:"targets"`
	Port       int          `yaml:"port"`
	SSL        bool         `yaml:"ssl"`
	StartTLS   bool         `yaml:"starttls"`
	Auth       AuthConfig   `yaml:"auth"`
	Collection []string     `yaml:"collection"`
	Output     OutputConfig `yaml:"output"`
	Workers    int          `yaml:"workers"`
	CacheSize  int          `yaml:"cache_size"`
	Verbose    bool         `yaml:"verbose"`
	NoColor    bool         `yaml:"no_color"`
}

func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFromPath reads a YAML config. Missing keys keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
		if c.SSL {
			c.Port = DefaultSSLPort
		}
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if len(c.Collection) == 0 {
		c.Collection = []string{"Default"}
	}
}

// Methods parses the configured collection tokens.
func (c *Config) Methods() (bloodhound.CollectionMethod, error) {
	return bloodhound.ParseCollectionMethods(c.Collection...)
}

func (c *Config) Validate() error {
	if c.Domain == "" {
		return ErrMissingDomain
	}
	if len(c.Targets) == 0 {
		return ErrMissingTarget
	}
	if c.Auth.Password != "" && c.Auth.NTLMHash != "" {
		return ErrAuthConflict
	}
	if _, err := c.Methods(); err != nil {
		return err
	}
	return nil
}
