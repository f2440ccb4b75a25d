package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerFactory(t *testing.T) {
	var buf bytes.Buffer
	f := &logrusLoggerFactory{logger: newLogger(&buf, false)}

	l := f.NewLogger("discovery")
	l.Debugf("hidden %d", 1)
	require.Empty(t, buf.String())

	l.Infof("advertising %s", "AIRSINK")
	require.Contains(t, buf.String(), "advertising AIRSINK")
	require.Contains(t, buf.String(), "scope=discovery")
	require.Contains(t, buf.String(), "level=info")
}

func TestLoggerFactoryVerbose(t *testing.T) {
	var buf bytes.Buffer
	f := &logrusLoggerFactory{logger: newLogger(&buf, true)}

	f.NewLogger("airsink").Debug("request dump")
	require.Contains(t, buf.String(), "request dump")
	require.Contains(t, buf.String(), "level=debug")
}
