// Package config contains the configuration of the receiver.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PortRange is a pair of consecutive ports, written as "first-second".
type PortRange [2]int

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *PortRange) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return r.UnmarshalText([]byte(s))
}

// UnmarshalText decodes a port range.
func (r *PortRange) UnmarshalText(b []byte) error {
	first, second, ok := strings.Cut(string(b), "-")
	if !ok {
		return fmt.Errorf("invalid port range: '%s'", string(b))
	}

	var err error
	r[0], err = strconv.Atoi(first)
	if err != nil {
		return fmt.Errorf("invalid port range: '%s'", string(b))
	}

	r[1], err = strconv.Atoi(second)
	if err != nil {
		return fmt.Errorf("invalid port range: '%s'", string(b))
	}

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r PortRange) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

func (r PortRange) String() string {
	return strconv.Itoa(r[0]) + "-" + strconv.Itoa(r[1])
}

// TLS is the TLS configuration of the control listener.
type TLS struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

// Enabled returns whether TLS is configured.
func (t TLS) Enabled() bool {
	return t.Cert != "" && t.Key != ""
}

// KeyGeneration configures where FairPlay keys are generated.
type KeyGeneration struct {
	// pool or inline.
	Mode    string `yaml:"mode"`
	Workers int    `yaml:"workers"`
}

// Transport configures the advertised media ports.
type Transport struct {
	ClientPorts PortRange `yaml:"client_ports"`
	ServerPorts PortRange `yaml:"server_ports"`
}

// Config is the configuration of the receiver.
type Config struct {
	Name           string        `yaml:"name"`
	Port           int           `yaml:"port"`
	OutputDir      string        `yaml:"output_dir"`
	Verbose        bool          `yaml:"verbose"`
	DeviceID       string        `yaml:"device_id"`
	DeviceKey      string        `yaml:"device_key"`
	TLS            TLS           `yaml:"tls"`
	KeyGeneration  KeyGeneration `yaml:"key_generation"`
	Transport      Transport     `yaml:"transport"`
	MetricsAddress string        `yaml:"metrics_address"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// Default returns the default configuration.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "AIRSINK"
	}
	if c.Port == 0 {
		c.Port = 7000
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.DeviceID == "" {
		c.DeviceID = "48:5D:60:7C:EE:22"
	}
	if c.DeviceKey == "" {
		c.DeviceKey = "airsink.key"
	}
	if c.KeyGeneration.Mode == "" {
		c.KeyGeneration.Mode = "pool"
	}
	if c.KeyGeneration.Workers == 0 {
		c.KeyGeneration.Workers = 2
	}
	if c.Transport.ClientPorts == (PortRange{}) {
		c.Transport.ClientPorts = PortRange{5000, 5001}
	}
	if c.Transport.ServerPorts == (PortRange{}) {
		c.Transport.ServerPorts = PortRange{5002, 5003}
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

// Load reads the configuration from a YAML file.
// When path is empty, the default configuration is returned.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes the configuration from YAML and applies defaults.
func Parse(data []byte) (Config, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&c)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	c.applyDefaults()

	return c, nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

func validPortRange(r PortRange) bool {
	return validPort(r[0]) && validPort(r[1]) && r[1] == r[0]+1
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !validPort(c.Port) {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.Name == "" {
		return fmt.Errorf("name is empty")
	}

	switch c.KeyGeneration.Mode {
	case "pool", "inline":
	default:
		return fmt.Errorf("invalid key generation mode: '%s'", c.KeyGeneration.Mode)
	}

	if c.KeyGeneration.Workers < 1 {
		return fmt.Errorf("invalid key generation workers: %d", c.KeyGeneration.Workers)
	}

	if !validPortRange(c.Transport.ClientPorts) {
		return fmt.Errorf("invalid client ports: %v", c.Transport.ClientPorts)
	}

	if !validPortRange(c.Transport.ServerPorts) {
		return fmt.Errorf("invalid server ports: %v", c.Transport.ServerPorts)
	}

	if (c.TLS.Cert == "") != (c.TLS.Key == "") {
		return fmt.Errorf("TLS requires both a certificate and a key")
	}

	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid write timeout: %v", c.WriteTimeout)
	}

	return nil
}
