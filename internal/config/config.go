/*
   BlogDedup - trend and content deduplication service
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package config

import (
	"Unbewohnte/BlogDedup/internal/domain"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath   = "config.yaml"
	ConfigPathEnv = "BLOGDEDUP_CONFIG"

	apiTokenEnv     = "BLOG_API_TOKEN"
	databaseFileEnv = "DATABASE_FILE"
	listenAddrEnv   = "LISTEN_ADDR"
	logLevelEnv     = "LOG_LEVEL"
	environmentEnv  = "APP_ENV"
	versionEnv      = "APP_VERSION"

	defaultTimezone = "UTC"
)

type ServerConf struct {
	Address                string `yaml:"address"`
	ReadTimeoutSeconds     uint   `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    uint   `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds uint   `yaml:"shutdown_timeout_seconds"`
}

func (s ServerConf) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConf) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s ServerConf) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

type AuthConf struct {
	// Shared secret. Bearer tokens either equal it or are HS256 JWTs signed with it.
	APIToken      string `yaml:"api_token"`
	TokenTTLHours uint   `yaml:"token_ttl_hours"`
}

func (a AuthConf) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

type DBConf struct {
	File string `yaml:"file"`
}

type DedupConf struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	RecentWindow        int     `yaml:"recent_window"`
	SampleSize          int     `yaml:"sample_size"`
	ReviewThreshold     int     `yaml:"review_threshold"`
	RetentionDays       int     `yaml:"retention_days"`
}

type CleanupConf struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone"`
	location *time.Location
}

// Location resolves Timezone, falling back to UTC.
func (c CleanupConf) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.UTC
}

type LoggingConf struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SlogLevel returns the parsed level, info when unparsable.
func (l LoggingConf) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type Config struct {
	Server      ServerConf  `yaml:"server"`
	Auth        AuthConf    `yaml:"auth"`
	Database    DBConf      `yaml:"database"`
	Dedup       DedupConf   `yaml:"dedup"`
	Cleanup     CleanupConf `yaml:"cleanup"`
	Logging     LoggingConf `yaml:"logging"`
	Environment string      `yaml:"environment"`
	Version     string      `yaml:"version"`

	path string
}

func Default() *Config {
	return &Config{
		Server: ServerConf{
			Address:                ":8080",
			ReadTimeoutSeconds:     15,
			WriteTimeoutSeconds:    30,
			ShutdownTimeoutSeconds: 10,
		},
		Auth: AuthConf{
			APIToken:      "",
			TokenTTLHours: 24,
		},
		Database: DBConf{
			File: "BLOGDEDUP.sqlite3",
		},
		Dedup: DedupConf{
			SimilarityThreshold: 0.7,
			RecentWindow:        50,
			SampleSize:          5,
			ReviewThreshold:     3,
			RetentionDays:       30,
		},
		Cleanup: CleanupConf{
			Enabled:  true,
			Schedule: "0 3 * * *",
			Timezone: defaultTimezone,
		},
		Logging: LoggingConf{
			Level: "info",
			File:  "",
		},
		Environment: "development",
		Version:     "1.0.0",
	}
}

// Path returns the file the config was loaded from or last saved to.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) Save(path string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, contents, 0o600); err != nil {
		return err
	}

	c.path = path
	return nil
}

// From reads the YAML file at path. Keys missing from the file keep their
// default values.
func From(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	conf := Default()
	if err := yaml.Unmarshal(contents, conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	conf.path = path
	return conf, nil
}

// ResolvePath picks the explicit path, then BLOGDEDUP_CONFIG, then config.yaml.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(ConfigPathEnv); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads the config at path, writing a default one first if the file does
// not exist yet. Environment overrides are applied on top and the result is
// validated.
func Load(path string) (*Config, error) {
	conf, err := From(path)
	if errors.Is(err, fs.ErrNotExist) {
		conf = Default()
		if err := conf.Save(path); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	conf.ApplyEnvOverrides()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(apiTokenEnv); v != "" {
		c.Auth.APIToken = v
	}
	if v := os.Getenv(databaseFileEnv); v != "" {
		c.Database.File = v
	}
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(environmentEnv); v != "" {
		c.Environment = v
	}
	if v := os.Getenv(versionEnv); v != "" {
		c.Version = v
	}
}

// Validate checks value ranges and binds the cleanup timezone.
func (c *Config) Validate() error {
	var ve domain.ValidationError

	if strings.TrimSpace(c.Server.Address) == "" {
		ve.Add("server.address", "required")
	}
	if strings.TrimSpace(c.Database.File) == "" {
		ve.Add("database.file", "required")
	}
	if c.Dedup.SimilarityThreshold < 0 || c.Dedup.SimilarityThreshold > 1 {
		ve.Add("dedup.similarity_threshold", "must be between 0 and 1")
	}
	if c.Dedup.RecentWindow <= 0 {
		ve.Add("dedup.recent_window", "must be positive")
	}
	if c.Dedup.SampleSize <= 0 {
		ve.Add("dedup.sample_size", "must be positive")
	}
	if c.Dedup.ReviewThreshold < 0 {
		ve.Add("dedup.review_threshold", "must not be negative")
	}
	if c.Dedup.RetentionDays <= 0 {
		ve.Add("dedup.retention_days", "must be positive")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		ve.Add("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}

	tz := c.Cleanup.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		ve.Add("cleanup.timezone", fmt.Sprintf("unknown timezone %q", tz))
	} else {
		c.Cleanup.location = loc
	}
	if c.Cleanup.Enabled {
		if _, err := cron.ParseStandard(c.Cleanup.Schedule); err != nil {
			ve.Add("cleanup.schedule", err.Error())
		}
	}

	return ve.Err()
}
