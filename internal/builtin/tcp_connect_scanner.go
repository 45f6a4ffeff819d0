// Package builtin provides the minimum concrete plugin implementations a
// runnable vulnscan binary needs — one real PortScanner, ServiceFingerprinter,
// VulnDetector, and RemoteVulnDetector — so the pipeline in internal/workflow
// has something to exercise end to end. spec.md scopes the wire protocol and
// the sophistication of these implementations out; they exist to be
// swappable, not exhaustive.
package builtin

import (
	"context"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
)

// wellKnownPorts is the fixed, narrow port list TCPConnectScanner probes.
// Real port scanning (SYN scans, full range sweeps) is an external
// collaborator's job; this dials a short, named list.
var wellKnownPorts = map[int]string{
	21:   "ftp",
	22:   "ssh",
	23:   "telnet",
	25:   "smtp",
	53:   "domain",
	80:   "http",
	110:  "pop3",
	143:  "imap",
	443:  "https",
	3306: "mysql",
	5432: "postgresql",
	6379: "redis",
	8080: "http-alt",
	8443: "https-alt",
}

// TCPConnectScanner discovers open services by dialing a fixed port list
// with net.Dialer.
type TCPConnectScanner struct {
	DialTimeout time.Duration
}

// NewTCPConnectScanner builds a TCPConnectScanner with a sane per-dial timeout.
func NewTCPConnectScanner() *TCPConnectScanner {
	return &TCPConnectScanner{DialTimeout: 3 * time.Second}
}

// Descriptor identifies this plugin to the registry.
func (s *TCPConnectScanner) Descriptor() plugin.PluginDescriptor {
	return plugin.PluginDescriptor{
		Type:        plugin.PortScan,
		Name:        "TCPConnectScanner",
		Version:     "1.0.0",
		Description: "Discovers open TCP services by connecting to a fixed well-known port list.",
		Author:      "vulnscan",
	}
}

// Scan dials every endpoint in target against wellKnownPorts, concurrently
// per endpoint, and returns every port that accepted a connection.
func (s *TCPConnectScanner) Scan(ctx context.Context, target netmodel.TargetInfo) (netmodel.PortScanningReport, error) {
	var services []netmodel.NetworkService

	for _, ep := range target.Endpoints {
		host := ep.Hostname
		if host == "" {
			host = ep.IP.String()
		}

		ports := make([]int, 0, len(wellKnownPorts))
		for port := range wellKnownPorts {
			ports = append(ports, port)
		}
		sort.Ints(ports)

		open := make([]bool, len(ports))
		var wg sync.WaitGroup
		for i, port := range ports {
			i, port := i, port
			wg.Add(1)
			go func() {
				defer wg.Done()
				d := net.Dialer{Timeout: s.DialTimeout}
				conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
				if err != nil {
					return
				}
				conn.Close()
				open[i] = true
			}()
		}
		wg.Wait()

		for i, port := range ports {
			if !open[i] {
				continue
			}
			endpoint, err := ep.WithPort(port)
			if err != nil {
				continue
			}
			services = append(services, netmodel.NetworkService{
				Endpoint:    endpoint,
				Transport:   netmodel.TCP,
				ServiceName: wellKnownPorts[port],
			})
		}
	}

	return netmodel.PortScanningReport{Target: target, Services: services}, nil
}
