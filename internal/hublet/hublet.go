// Package hublet maps a data-locality region id and environment to the
// hostnames the SDK talks to.
package hublet

import (
	"fmt"
	"strings"
)

// Environment selects production or QA endpoints.
type Environment string

const (
	EnvironmentQA         Environment = "qa"
	EnvironmentProduction Environment = "prod"
)

// DefaultUS is the region id that uses the bare "app"/"api" subdomains.
const DefaultUS = "na1"

// ParseEnvironment accepts the wire form ("prod", "qa") and a few common aliases.
func ParseEnvironment(raw string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return EnvironmentProduction, nil
	case "qa":
		return EnvironmentQA, nil
	default:
		return "", fmt.Errorf("unknown environment %q", raw)
	}
}

// String returns the wire form used in the embed URL env parameter.
func (e Environment) String() string {
	return string(e)
}

// DisplayName returns a human readable label.
func (e Environment) DisplayName() string {
	if e == EnvironmentQA {
		return "QA"
	}
	return "Production"
}

func (e Environment) appDomain() string {
	if e == EnvironmentQA {
		return "hubspotqa.com"
	}
	return "hubspot.com"
}

func (e Environment) apiDomain() string {
	if e == EnvironmentQA {
		return "hubapiqa.com"
	}
	return "hubapi.com"
}

// Hublet is derived from a region id and environment; it is never stored.
type Hublet struct {
	ID          string
	Environment Environment
}

// New returns the hublet for id in env.
func New(id string, env Environment) Hublet {
	return Hublet{ID: id, Environment: env}
}

func (h Hublet) isDefaultUS() bool {
	return strings.EqualFold(h.ID, DefaultUS)
}

// AppSubdomain is "app" for na1 and "app-{id}" for every other region.
func (h Hublet) AppSubdomain() string {
	if h.isDefaultUS() {
		return "app"
	}
	return "app-" + strings.ToLower(h.ID)
}

// APISubdomain is "api" for na1 and "api-{id}" for every other region.
func (h Hublet) APISubdomain() string {
	if h.isDefaultUS() {
		return "api"
	}
	return "api-" + strings.ToLower(h.ID)
}

// Hostname is the web host the chat embed is served from.
func (h Hublet) Hostname() string {
	return h.AppSubdomain() + "." + h.Environment.appDomain()
}

// APIHostname is the REST API host.
func (h Hublet) APIHostname() string {
	return h.APISubdomain() + "." + h.Environment.apiDomain()
}

// APIBaseURL is the https base of the REST API, without a trailing slash.
func (h Hublet) APIBaseURL() string {
	return "https://" + h.APIHostname()
}
