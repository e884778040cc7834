// Cratedig
// Copyright (c) 2026 The Cratedig Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cratedig.
//
// Cratedig is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cratedig is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cratedig.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads and validates the Cratedig TOML configuration. Values
// are validated once at construction; callers read them through accessor
// methods on Instance and never re-validate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cratedig-project/cratedig/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "CRATEDIG_CFG"
	CfgFile       = "config.toml"

	// MinRateLimit is the floor for outbound request spacing. The metadata
	// service rate limit is account-wide, so pacing below this risks bans.
	MinRateLimit = 500 * time.Millisecond
)

type Values struct {
	Library      Library  `toml:"library"`
	Metadata     Metadata `toml:"metadata,omitempty"`
	Service      Service  `toml:"service,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

type Library struct {
	RootDir        string  `toml:"root_dir"        validate:"required,abspath"`
	MatchThreshold float32 `toml:"match_threshold" validate:"gte=0,lte=1"`
}

type Metadata struct {
	BaseURL     string `toml:"base_url"      validate:"required,url"`
	RateLimitMS int    `toml:"rate_limit_ms" validate:"gte=500"`
	MaxRetries  int    `toml:"max_retries"   validate:"gte=1"`
}

type Service struct {
	APIPort int `toml:"api_port" validate:"gte=1,lte=65535"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Library: Library{
		MatchThreshold: 0.80,
	},
	Metadata: Metadata{
		BaseURL:     "https://musicbrainz.org/ws/2",
		RateLimitMS: 1000,
		MaxRetries:  3,
	},
	Service: Service{
		APIPort: 7654,
	},
}

// Instance is a loaded configuration. Reads and writes are guarded so the API
// layer can update settings while scans are running.
type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("abspath", func(fl validator.FieldLevel) bool {
		return filepath.IsAbs(fl.Field().String())
	})
	return v
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return fmt.Errorf("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	vals := c.defaults
	err = toml.Unmarshal(data, &vals)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := newValidator().Struct(vals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.vals = vals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return fmt.Errorf("config path not set")
	}

	data, err := toml.Marshal(c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(c.cfgPath, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// NewValues creates an Instance directly from values, bypassing disk. Used by
// tests and by callers that manage persistence themselves.
//
//nolint:gocritic // config struct copied for immutability
func NewValues(vals Values) (*Instance, error) {
	if err := newValidator().Struct(vals); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Instance{vals: vals, defaults: vals}, nil
}

func (c *Instance) LibraryRoot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Library.RootDir
}

func (c *Instance) MatchThreshold() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Library.MatchThreshold
}

func (c *Instance) SetMatchThreshold(threshold float32) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("match threshold out of range: %v", threshold)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Library.MatchThreshold = threshold
	return nil
}

func (c *Instance) MetadataBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Metadata.BaseURL
}

func (c *Instance) RateLimit() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	limit := time.Duration(c.vals.Metadata.RateLimitMS) * time.Millisecond
	if limit < MinRateLimit {
		limit = MinRateLimit
	}
	return limit
}

func (c *Instance) MaxRetries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Metadata.MaxRetries
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.APIPort
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}
