package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pion/rtp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bluenviron/airsink"
	"github.com/bluenviron/airsink/internal/config"
	"github.com/bluenviron/airsink/internal/obs"
	"github.com/bluenviron/airsink/pkg/discovery"
	"github.com/bluenviron/airsink/pkg/pairing"
	"github.com/bluenviron/airsink/pkg/rtpsink"
)

// loadConfig reads the configuration file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()

	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("name") {
		cfg.Name, _ = flags.GetString("name")
	}
	if flags.Changed("device-key") {
		cfg.DeviceKey, _ = flags.GetString("device-key")
	}
	if flags.Changed("metrics-address") {
		cfg.MetricsAddress, _ = flags.GetString("metrics-address")
	}

	err = cfg.Validate()
	if err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func addServeFlags(cmd *cobra.Command) {
	def := config.Default()

	cmd.Flags().Int("port", def.Port, "port of the control listener")
	cmd.Flags().String("output-dir", def.OutputDir, "directory where received audio is written")
	cmd.Flags().Bool("verbose", def.Verbose, "enable debug logs")
	cmd.Flags().String("name", def.Name, "advertised service name")
	cmd.Flags().String("device-key", def.DeviceKey, "path of the device key")
	cmd.Flags().String("metrics-address", def.MetricsAddress, "address of the metrics endpoint (empty to disable)")
}

func keyGenerationMode(s string) (airsink.KeyGenerationMode, error) {
	switch s {
	case "pool":
		return airsink.KeyGenerationModePool, nil

	case "inline":
		return airsink.KeyGenerationModeInline, nil
	}
	return 0, fmt.Errorf("invalid key generation mode: '%s'", s)
}

func loadDeviceKey(path string) ([]byte, error) {
	byts, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load device key (run 'airsink keygen' to create one): %w", err)
	}
	return byts, nil
}

// serve runs the receiver until ctx is canceled or a fatal error occurs.
func serve(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	lf := &logrusLoggerFactory{logger: logger}

	byts, err := loadDeviceKey(cfg.DeviceKey)
	if err != nil {
		return err
	}

	key, err := pairing.LoadDeviceKey(byts)
	if err != nil {
		return err
	}

	var tlsConfig *tls.Config
	if cfg.TLS.Enabled() {
		cert, err2 := tls.LoadX509KeyPair(cfg.TLS.Cert, cfg.TLS.Key)
		if err2 != nil {
			return err2
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	mode, err := keyGenerationMode(cfg.KeyGeneration.Mode)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	receiver := &rtpsink.Receiver{
		OutputDir:     cfg.OutputDir,
		RTPPort:       cfg.Transport.ServerPorts[0],
		LoggerFactory: lf,
		OnPacketRTP: func(pkt *rtp.Packet) {
			metrics.RTPPacketsTotal.Inc()
			metrics.RTPBytesTotal.Add(float64(len(pkt.Payload)))
		},
		OnPacketsLost: func(_ uint32, count uint64) {
			metrics.RTPPacketsLostTotal.Add(float64(count))
		},
	}
	err = receiver.Initialize()
	if err != nil {
		return err
	}
	defer receiver.Close()

	advertiser, err := discovery.NewAdvertiser(discovery.AdvertiserConfig{
		TXT:           discovery.NewTXT(cfg.DeviceID, pairing.PublicKeyHex(key)),
		LoggerFactory: lf,
	})
	if err != nil {
		return err
	}

	err = advertiser.Start(cfg.Name, cfg.Port)
	if err != nil {
		return err
	}
	defer advertiser.Stop()

	s := &airsink.Server{
		Handler: &serverHandler{
			log:     lf.NewLogger("handler"),
			metrics: metrics,
		},
		Address:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		DeviceKey:            key,
		WriteTimeout:         cfg.WriteTimeout,
		TLSConfig:            tlsConfig,
		KeyGenerationMode:    mode,
		KeyGenerationWorkers: cfg.KeyGeneration.Workers,
		ClientPorts:          cfg.Transport.ClientPorts,
		ServerPorts:          receiver.Ports(),
		LoggerFactory:        lf,
	}
	err = s.Start()
	if err != nil {
		return err
	}
	defer s.Close()

	logger.Infof("listening on %s as '%s'", s.Address, advertiser.InstanceName())

	if cfg.MetricsAddress != "" {
		hs := &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			err2 := hs.ListenAndServe()
			if err2 != nil && !errors.Is(err2, http.ErrServerClosed) {
				logger.Errorf("metrics server failed: %v", err2)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hs.Shutdown(shutdownCtx)
		}()
	}

	done := make(chan error, 1)
	go func() {
		done <- s.Wait()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil

	case err = <-done:
		return err
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the receiver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, newLogger(cmd.ErrOrStderr(), cfg.Verbose))
		},
	}
	addServeFlags(cmd)
	return cmd
}
