package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, Config{
		Name:      "AIRSINK",
		Port:      7000,
		OutputDir: ".",
		DeviceID:  "48:5D:60:7C:EE:22",
		DeviceKey: "airsink.key",
		KeyGeneration: KeyGeneration{
			Mode:    "pool",
			Workers: 2,
		},
		Transport: Transport{
			ClientPorts: PortRange{5000, 5001},
			ServerPorts: PortRange{5002, 5003},
		},
		WriteTimeout: 10 * time.Second,
	}, c)
	require.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "airsink.yml")

	err := os.WriteFile(path, []byte(
		"name: Kitchen\n"+
			"port: 7100\n"+
			"output_dir: /tmp/audio\n"+
			"verbose: true\n"+
			"key_generation:\n"+
			"  mode: inline\n"+
			"transport:\n"+
			"  server_ports: 6002-6003\n"+
			"metrics_address: \":9100\"\n"+
			"write_timeout: 5s\n"), 0o644)
	require.NoError(t, err)

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, "Kitchen", c.Name)
	require.Equal(t, 7100, c.Port)
	require.Equal(t, "/tmp/audio", c.OutputDir)
	require.True(t, c.Verbose)
	require.Equal(t, "inline", c.KeyGeneration.Mode)
	require.Equal(t, 2, c.KeyGeneration.Workers)
	require.Equal(t, PortRange{5000, 5001}, c.Transport.ClientPorts)
	require.Equal(t, PortRange{6002, 6003}, c.Transport.ServerPorts)
	require.Equal(t, ":9100", c.MetricsAddress)
	require.Equal(t, 5*time.Second, c.WriteTimeout)
	require.False(t, c.TLS.Enabled())
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), c)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), c)
}

func TestParseErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		in   string
	}{
		{"unknown field", "unknown: 1\n"},
		{"invalid port range", "transport:\n  client_ports: 5000\n"},
		{"invalid syntax", "port: [\n"},
	} {
		t.Run(ca.name, func(t *testing.T) {
			_, err := Parse([]byte(ca.in))
			require.Error(t, err)
		})
	}
}

func TestValidateErrors(t *testing.T) {
	for _, ca := range []struct {
		name  string
		apply func(c *Config)
		err   string
	}{
		{
			"port",
			func(c *Config) { c.Port = 70000 },
			"invalid port: 70000",
		},
		{
			"key generation mode",
			func(c *Config) { c.KeyGeneration.Mode = "threads" },
			"invalid key generation mode: 'threads'",
		},
		{
			"key generation workers",
			func(c *Config) { c.KeyGeneration.Workers = -1 },
			"invalid key generation workers: -1",
		},
		{
			"client ports",
			func(c *Config) { c.Transport.ClientPorts = PortRange{5000, 5002} },
			"invalid client ports: 5000-5002",
		},
		{
			"server ports",
			func(c *Config) { c.Transport.ServerPorts = PortRange{0, 1} },
			"invalid server ports: 0-1",
		},
		{
			"half tls",
			func(c *Config) { c.TLS.Cert = "cert.pem" },
			"TLS requires both a certificate and a key",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			c := Default()
			ca.apply(&c)
			require.EqualError(t, c.Validate(), ca.err)
		})
	}
}

func TestPortRangeText(t *testing.T) {
	var r PortRange
	err := r.UnmarshalText([]byte("6000-6001"))
	require.NoError(t, err)
	require.Equal(t, PortRange{6000, 6001}, r)
	require.Equal(t, "6000-6001", r.String())

	err = r.UnmarshalText([]byte("a-b"))
	require.EqualError(t, err, "invalid port range: 'a-b'")
}
