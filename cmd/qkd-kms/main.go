// qkd-kms serves quantum-derived session keys to paired field devices.
//
// Each key request runs a fresh BB84 exchange over the simulated quantum
// channel. When the measured error rate indicates interception the daemon
// refuses to issue the key and flags the link. The REST API exposes key
// establishment, link health and the eavesdropper controls used in
// exercises. With -advertise the daemon announces itself via DNS-SD so
// devices can locate it without a preconfigured address.
//
// Usage:
//
//	qkd-kms [options]
//
// Options:
//
//	-addr      HTTP listen address (default: ":8000")
//	-qubits    Qubits per BB84 exchange (default: 512)
//	-noise     Intrinsic channel noise rate in [0,1] (default: 0)
//	-history   QBER samples kept for link health (default: 20)
//	-origins   Comma-separated CORS origins (default: "*")
//	-advertise Announce the service via DNS-SD
//	-name      Service name published in TXT records (default: "qkd-kms")
//	-verbose   Enable debug logging
//
// Example:
//
//	qkd-kms -addr :8000 -qubits 1024 -noise 0.02 -advertise
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pion/logging"

	"github.com/qstcs/qkd/pkg/api"
	"github.com/qstcs/qkd/pkg/bb84"
	"github.com/qstcs/qkd/pkg/discovery"
	"github.com/qstcs/qkd/pkg/kms"
)

type options struct {
	Addr      string
	Qubits    int
	Noise     float64
	History   int
	Origins   []string
	Advertise bool
	Name      string
	Verbose   bool
}

func parseFlags() options {
	o := options{}
	var origins string

	flag.StringVar(&o.Addr, "addr", api.DefaultAddr, "HTTP listen address")
	flag.IntVar(&o.Qubits, "qubits", bb84.DefaultQubitCount, "Qubits per BB84 exchange")
	flag.Float64Var(&o.Noise, "noise", 0, "Intrinsic channel noise rate in [0,1]")
	flag.IntVar(&o.History, "history", kms.DefaultHistorySize, "QBER samples kept for link health")
	flag.StringVar(&origins, "origins", "*", "Comma-separated CORS origins")
	flag.BoolVar(&o.Advertise, "advertise", false, "Announce the service via DNS-SD")
	flag.StringVar(&o.Name, "name", "qkd-kms", "Service name published in TXT records")
	flag.BoolVar(&o.Verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			o.Origins = append(o.Origins, origin)
		}
	}

	return o
}

func main() {
	opts := parseFlags()

	loggerFactory := logging.NewDefaultLoggerFactory()
	if opts.Verbose {
		loggerFactory.DefaultLogLevel = logging.LogLevelDebug
	} else {
		loggerFactory.DefaultLogLevel = logging.LogLevelInfo
	}

	manager := kms.NewManager(kms.ManagerConfig{
		QubitCount:    opts.Qubits,
		ChannelNoise:  opts.Noise,
		HistorySize:   opts.History,
		LoggerFactory: loggerFactory,
	})

	server, err := api.NewServer(api.ServerConfig{
		Addr:           opts.Addr,
		Manager:        manager,
		AllowedOrigins: opts.Origins,
		LoggerFactory:  loggerFactory,
	})
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}

	if err := run(server, manager, opts, loggerFactory); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// run starts the server (and advertiser, when enabled) and blocks until
// interrupted.
func run(server *api.Server, manager *kms.Manager, opts options, loggerFactory logging.LoggerFactory) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	var advertiser *discovery.Advertiser
	if opts.Advertise {
		port, err := listenPort(server.Addr())
		if err != nil {
			return fmt.Errorf("resolve advertised port: %w", err)
		}
		advertiser, err = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Port:          port,
			LoggerFactory: loggerFactory,
		})
		if err != nil {
			return fmt.Errorf("create advertiser: %w", err)
		}
		if err := advertiser.Start(discovery.KMSTXT{Name: opts.Name}); err != nil {
			return fmt.Errorf("start advertiser: %w", err)
		}
	}

	printStartupInfo(server, manager, advertiser, opts)

	// Wait for context cancellation (signal)
	<-ctx.Done()

	log.Println("Shutting down...")
	if advertiser != nil {
		if err := advertiser.Close(); err != nil {
			log.Printf("Advertiser close error: %v", err)
		}
	}
	if err := server.Shutdown(nil); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}

	return nil
}

// listenPort extracts the TCP port from the server's bound address.
func listenPort(addr net.Addr) (int, error) {
	if addr == nil {
		return 0, fmt.Errorf("server has no bound address")
	}
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}

// printStartupInfo prints the service configuration to the console.
func printStartupInfo(server *api.Server, manager *kms.Manager, advertiser *discovery.Advertiser, opts options) {
	fmt.Println("\n========================================")
	fmt.Println("        QKD Key Service Ready")
	fmt.Println("========================================")
	fmt.Printf("Listen address:  %s\n", server.Addr())
	fmt.Printf("Qubits/exchange: %d\n", opts.Qubits)
	fmt.Printf("Channel noise:   %.1f%%\n", opts.Noise*100)
	fmt.Printf("QBER threshold:  %.1f%%\n", manager.Threshold()*100)
	if advertiser != nil {
		fmt.Println("----------------------------------------")
		fmt.Printf("DNS-SD service:  %s\n", discovery.ServiceKMS)
		fmt.Printf("Instance name:   %s\n", advertiser.InstanceName())
		fmt.Printf("LAN address:     %s\n", discovery.LANAddress())
	}
	fmt.Println("========================================")
}
