// Package config holds the SDK configuration model, the sources it can be
// loaded from, and the host application config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
)

// DefaultSDKConfigFileName is the file looked up when no path is given.
const DefaultSDKConfigFileName = "Hubspot-Info.toml"

var (
	// ErrMissingConfiguration means no usable portal id / hublet is available,
	// either because the config source is absent or malformed, or because
	// the SDK was never configured.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrMissingChatFlow means no chat flow was given and no default exists.
	ErrMissingChatFlow = errors.New("no chat flow provided, and no default found")
)

// Configuration is the account-level SDK configuration. Empty strings mean
// "not configured".
type Configuration struct {
	Environment     hublet.Environment
	Hublet          string
	PortalID        string
	DefaultChatFlow string
}

// Complete reports whether both hublet and portal id are present.
func (c Configuration) Complete() bool {
	return c.Hublet != "" && c.PortalID != ""
}

// HubletModel derives the hublet from the stored id and environment. It is
// recomputed on every call since the environment may change.
func (c Configuration) HubletModel() (hublet.Hublet, bool) {
	if c.Hublet == "" {
		return hublet.Hublet{}, false
	}
	env := c.Environment
	if env == "" {
		env = hublet.EnvironmentProduction
	}
	return hublet.New(c.Hublet, env), true
}

// Source is an opaque provider of a complete Configuration.
type Source interface {
	Load() (Configuration, error)
}

// FileSource loads a TOML or YAML file, by extension.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load() (Configuration, error) {
	return LoadFile(s.Path)
}

// StaticSource always returns the wrapped configuration.
type StaticSource Configuration

// Load implements Source.
func (s StaticSource) Load() (Configuration, error) {
	return Configuration(s), nil
}

type fileConfig struct {
	Environment     string `toml:"environment" yaml:"environment" validate:"required"`
	Hublet          string `toml:"hublet" yaml:"hublet" validate:"required"`
	PortalID        string `toml:"portal_id" yaml:"portal_id" validate:"required"`
	DefaultChatFlow string `toml:"default_chat_flow" yaml:"default_chat_flow"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFile reads and validates an SDK config file. Every failure is reported
// as ErrMissingConfiguration; nothing is returned partially filled.
func LoadFile(path string) (Configuration, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultSDKConfigFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("%w: read %s: %v", ErrMissingConfiguration, path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes config bytes. ext selects the format (".yaml"/".yml" for
// YAML, anything else for TOML).
func Parse(data []byte, ext string) (Configuration, error) {
	var raw fileConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return Configuration{}, fmt.Errorf("%w: decode yaml: %v", ErrMissingConfiguration, err)
		}
	default:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return Configuration{}, fmt.Errorf("%w: decode toml: %v", ErrMissingConfiguration, err)
		}
	}

	raw.Environment = strings.TrimSpace(raw.Environment)
	raw.Hublet = strings.TrimSpace(raw.Hublet)
	raw.PortalID = strings.TrimSpace(raw.PortalID)
	raw.DefaultChatFlow = strings.TrimSpace(raw.DefaultChatFlow)

	if err := validate.Struct(raw); err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrMissingConfiguration, err)
	}
	env, err := hublet.ParseEnvironment(raw.Environment)
	if err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrMissingConfiguration, err)
	}

	return Configuration{
		Environment:     env,
		Hublet:          raw.Hublet,
		PortalID:        raw.PortalID,
		DefaultChatFlow: raw.DefaultChatFlow,
	}, nil
}
