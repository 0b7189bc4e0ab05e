// Package config loads the process-wide configuration, immutable after
// startup: server domain, session inactivity timeout, the configured
// contract list, SMTP settings, and node endpoints. Parsed with
// gopkg.in/yaml.v2.
package config

import (
	"os"
	"time"

	"github.com/airgap-it/tz-wrapped-backend/multisig"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type SMTPSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type NodeSettings struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Network  string `yaml:"network"`
	Selected bool   `yaml:"selected"`
}

type ContractSettings struct {
	PKH         string `yaml:"pkh"`
	MultisigPKH string `yaml:"multisig_pkh"`
	Kind        string `yaml:"kind"`
	DisplayName string `yaml:"display_name"`
	TokenID     int64  `yaml:"token_id"`
}

// Settings is the root configuration document. InactivityTimeout is
// expressed in seconds on the wire (inactivity_timeout_seconds) and
// parsed into a time.Duration for callers.
type Settings struct {
	Domain                   string             `yaml:"domain"`
	InactivityTimeoutSeconds int64              `yaml:"inactivity_timeout_seconds"`
	Contracts                []ContractSettings `yaml:"contracts"`
	SMTP                     SMTPSettings       `yaml:"smtp"`
	Nodes                    []NodeSettings     `yaml:"nodes"`
}

func (s Settings) InactivityTimeout() time.Duration {
	return time.Duration(s.InactivityTimeoutSeconds) * time.Second
}

// ContractKind normalizes the configured kind string (operators may write
// "FA1", "fa1", or "fa_1") and resolves it to a multisig.ContractKind,
// using strcase to fold it to the canonical snake_case form before
// matching.
func (c ContractSettings) ContractKind() (multisig.ContractKind, error) {
	switch strcase.ToSnake(c.Kind) {
	case "fa_1", "fa1", "f_a1", "specific":
		return multisig.ContractKindFA1, nil
	case "fa_2", "fa2", "f_a2", "generic":
		return multisig.ContractKindFA2, nil
	default:
		return 0, errors.Errorf("unknown contract kind %q for %s", c.Kind, c.PKH)
	}
}

// Load reads and parses a YAML settings document from path.
func Load(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	return &s, nil
}
