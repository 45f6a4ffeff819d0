package builtin

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
)

// bannerPattern maps a regexp over the first line a service offers to the
// Software it identifies; the first submatch is the version.
type bannerPattern struct {
	re   *regexp.Regexp
	name string
}

var bannerPatterns = []bannerPattern{
	{regexp.MustCompile(`(?i)^SSH-2\.0-OpenSSH_([\w.]+)`), "OpenSSH"},
	{regexp.MustCompile(`(?i)^220.*Microsoft FTP Service`), "Microsoft FTP Service"},
	{regexp.MustCompile(`(?i)^220.*ProFTPD ([\w.]+)`), "ProFTPD"},
	{regexp.MustCompile(`(?i)^220.*vsFTPd ([\w.]+)`), "vsFTPd"},
	{regexp.MustCompile(`(?i)Server: nginx/([\w.]+)`), "nginx"},
	{regexp.MustCompile(`(?i)Server: Apache/([\w.]+)`), "Apache"},
	{regexp.MustCompile(`(?i)^220.*ESMTP Postfix`), "Postfix"},
}

// BannerFingerprinter dials a service and reads the first line it offers
// (or, for HTTP-like services, the response to a bare GET), mapping known
// banner shapes to a Software guess.
type BannerFingerprinter struct {
	DialTimeout time.Duration
}

// NewBannerFingerprinter builds a BannerFingerprinter.
func NewBannerFingerprinter() *BannerFingerprinter {
	return &BannerFingerprinter{DialTimeout: 3 * time.Second}
}

// Descriptor identifies this plugin. Its service-name selector limits it to
// the banner-speaking services it knows; the manager never offers a service
// to a fingerprinter whose selectors are empty.
func (f *BannerFingerprinter) Descriptor() plugin.PluginDescriptor {
	return plugin.PluginDescriptor{
		Type:        plugin.ServiceFingerprint,
		Name:        "BannerFingerprinter",
		Version:     "1.0.0",
		Description: "Reads a service's banner line and maps it to a Software guess.",
		Author:      "vulnscan",
		Selectors: plugin.Selectors{
			ServiceNames: plugin.NewStringSet("ssh", "ftp", "smtp", "http", "https", "http-alt", "https-alt"),
		},
	}
}

// Fingerprint connects to service.Endpoint and inspects the first line the
// remote end sends (or, for HTTP-like services, issues a minimal GET and
// inspects response headers).
func (f *BannerFingerprinter) Fingerprint(ctx context.Context, target netmodel.TargetInfo, service netmodel.NetworkService) (netmodel.FingerprintingReport, error) {
	host := service.Endpoint.Hostname
	if host == "" {
		host = service.Endpoint.IP.String()
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", service.Endpoint.Port))

	d := net.Dialer{Timeout: f.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return netmodel.FingerprintingReport{Service: service}, fmt.Errorf("banner dial %s: %w", addr, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(f.DialTimeout))

	if isHTTPLike(service.ServiceName) {
		fmt.Fprintf(conn, "GET / HTTP/1.0\r\nHost: %s\r\n\r\n", host)
	}

	reader := bufio.NewReader(conn)
	line, _ := reader.ReadString('\n')
	var lines []string
	lines = append(lines, line)
	for isHTTPLike(service.ServiceName) {
		l, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		lines = append(lines, l)
		if strings.HasPrefix(strings.ToLower(l), "server:") {
			break
		}
	}

	banner := strings.Join(lines, "")
	enriched := service
	if sw := matchBanner(banner); sw != nil {
		enriched.Software = sw
	}

	return netmodel.FingerprintingReport{Service: enriched}, nil
}

func isHTTPLike(serviceName string) bool {
	switch strings.ToLower(serviceName) {
	case "http", "https", "http-alt", "https-alt":
		return true
	default:
		return false
	}
}

func matchBanner(banner string) *netmodel.Software {
	for _, p := range bannerPatterns {
		m := p.re.FindStringSubmatch(banner)
		if m == nil {
			continue
		}
		version := ""
		if len(m) > 1 {
			version = m[1]
		}
		return &netmodel.Software{Name: p.name, Version: version}
	}
	return nil
}
