// Package discovery advertises the receiver on the local network through DNS-SD.
package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

const (
	// ServiceAirPlay is the service type of the control protocol.
	ServiceAirPlay = "_airplay._tcp"

	// DefaultDomain is the DNS-SD domain.
	DefaultDomain = "local."
)

// MDNSServer is the interface for mDNS service registration.
// This allows for dependency injection in tests.
type MDNSServer interface {
	// Shutdown stops the server.
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	// Register creates a new mDNS server for the given service.
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

type zeroconfServerFactory struct{}

func (z *zeroconfServerFactory) Register(
	instance, service, domain string,
	port int,
	txt []string,
	ifaces []net.Interface,
) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig holds configuration for the Advertiser.
type AdvertiserConfig struct {
	// Capability record.
	TXT TXT

	// Interfaces specifies which network interfaces to advertise on.
	// If nil, all interfaces are used.
	Interfaces []net.Interface

	// ServerFactory is the factory for creating mDNS servers.
	// If nil, the default zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes the service record.
type Advertiser struct {
	config  AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu           sync.Mutex
	server       MDNSServer
	instanceName string
}

// NewAdvertiser creates a new Advertiser with the given configuration.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	err := config.TXT.Validate()
	if err != nil {
		return nil, err
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = &zeroconfServerFactory{}
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	return &Advertiser{
		config:  config,
		factory: factory,
		log:     loggerFactory.NewLogger("discovery"),
	}, nil
}

// Start begins advertising the service.
func (a *Advertiser) Start(serviceName string, port int) error {
	if serviceName == "" {
		return ErrInvalidServiceName
	}

	if port <= 0 || port > 65535 {
		return ErrInvalidPort
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return ErrAlreadyStarted
	}

	instanceName := a.config.TXT.DeviceIDHex() + "@" + serviceName
	txtRecords := a.config.TXT.Encode()

	a.log.Debugf("registering mDNS service: instance=%s service=%s domain=%s port=%d",
		instanceName, ServiceAirPlay, DefaultDomain, port)
	a.log.Tracef("TXT records: %v", txtRecords)

	server, err := a.factory.Register(
		instanceName,
		ServiceAirPlay,
		DefaultDomain,
		port,
		txtRecords,
		a.config.Interfaces,
	)
	if err != nil {
		return fmt.Errorf("discovery: mDNS registration failed for %s: %w", ServiceAirPlay, err)
	}

	a.log.Infof("advertising %s as %s on port %d", ServiceAirPlay, instanceName, port)

	a.server = server
	a.instanceName = instanceName

	return nil
}

// Stop retracts the service record.
// Calling Stop on a stopped advertiser does nothing.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}

	a.server.Shutdown()
	a.server = nil
	a.log.Infof("stopped advertising %s", a.instanceName)
	a.instanceName = ""
}

// IsAdvertising returns true if the service is currently being advertised.
func (a *Advertiser) IsAdvertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// InstanceName returns the instance name of the active service.
// Returns empty string if the service is not active.
func (a *Advertiser) InstanceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.instanceName
}
