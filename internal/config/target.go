package config

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/vserrors"
)

// TargetFlags mirrors the CLI's mutually-exclusive target selectors (spec
// §6). Exactly one of (IPv4Target/IPv6Target/HostnameTarget in
// combination) or URITarget may be set.
type TargetFlags struct {
	IPv4Target     string
	IPv6Target     string
	HostnameTarget string
	URITarget      string
}

var defaultPortByScheme = map[string]int{"http": 80, "https": 443}

// BuiltTarget is the result of resolving the CLI's target flags: the
// TargetInfo to scan, and — only when the target came from a URI — the
// pre-identified NetworkService spec §6 says URI derivation produces,
// which lets the workflow skip port scanning for that endpoint.
type BuiltTarget struct {
	Target       netmodel.TargetInfo
	SeedServices []netmodel.NetworkService
}

// BuildTarget validates flags and derives the target to scan. ctx bounds
// the DNS resolution a URI target requires.
func BuildTarget(ctx context.Context, flags TargetFlags) (BuiltTarget, error) {
	hasIP := flags.IPv4Target != "" || flags.IPv6Target != ""
	hasHostname := flags.HostnameTarget != ""
	hasURI := flags.URITarget != ""

	if hasURI && (hasIP || hasHostname) {
		return BuiltTarget{}, vserrors.InvalidArgument{
			Flag: "uri-target", Reason: "conflicts with --ip-v4-target/--ip-v6-target/--hostname-target",
		}
	}
	if !hasURI && !hasIP && !hasHostname {
		return BuiltTarget{}, vserrors.InvalidArgument{
			Flag: "ip-v4-target/ip-v6-target/hostname-target/uri-target", Reason: "at least one target selector is required",
		}
	}

	if hasURI {
		return buildURITarget(ctx, flags.URITarget)
	}
	return buildExplicitTarget(flags)
}

func buildExplicitTarget(flags TargetFlags) (BuiltTarget, error) {
	var endpoints []netmodel.NetworkEndpoint

	switch {
	case flags.IPv4Target != "" && flags.HostnameTarget != "":
		ip := net.ParseIP(flags.IPv4Target)
		if ip == nil {
			return BuiltTarget{}, vserrors.InvalidArgument{Flag: "ip-v4-target", Reason: "not a valid IP address"}
		}
		endpoints = append(endpoints, netmodel.NewIPHostnameEndpoint(ip, flags.HostnameTarget))
	case flags.IPv6Target != "" && flags.HostnameTarget != "":
		ip := net.ParseIP(flags.IPv6Target)
		if ip == nil {
			return BuiltTarget{}, vserrors.InvalidArgument{Flag: "ip-v6-target", Reason: "not a valid IP address"}
		}
		endpoints = append(endpoints, netmodel.NewIPHostnameEndpoint(ip, flags.HostnameTarget))
	case flags.IPv4Target != "":
		ip := net.ParseIP(flags.IPv4Target)
		if ip == nil {
			return BuiltTarget{}, vserrors.InvalidArgument{Flag: "ip-v4-target", Reason: "not a valid IP address"}
		}
		endpoints = append(endpoints, netmodel.NewIPEndpoint(ip))
	case flags.IPv6Target != "":
		ip := net.ParseIP(flags.IPv6Target)
		if ip == nil {
			return BuiltTarget{}, vserrors.InvalidArgument{Flag: "ip-v6-target", Reason: "not a valid IP address"}
		}
		endpoints = append(endpoints, netmodel.NewIPEndpoint(ip))
	case flags.HostnameTarget != "":
		endpoints = append(endpoints, netmodel.NewHostnameEndpoint(flags.HostnameTarget))
	}

	return BuiltTarget{Target: netmodel.TargetInfo{Endpoints: endpoints}}, nil
}

// buildURITarget implements spec §6's URI target derivation: resolve the
// host to an A/AAAA record, build an IP_HOSTNAME_PORT endpoint, and
// pre-identify the service so the workflow need not port-scan for it.
func buildURITarget(ctx context.Context, raw string) (BuiltTarget, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return BuiltTarget{}, vserrors.InvalidArgument{Flag: "uri-target", Reason: "not a valid URI"}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return BuiltTarget{}, vserrors.InvalidArgument{Flag: "uri-target", Reason: "scheme must be http or https"}
	}

	host := u.Hostname()
	port := defaultPortByScheme[scheme]
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return BuiltTarget{}, vserrors.InvalidArgument{Flag: "uri-target", Reason: "invalid port"}
		}
	}

	ip, err := resolveHost(ctx, host)
	if err != nil {
		return BuiltTarget{}, vserrors.InvalidArgument{Flag: "uri-target", Reason: "could not resolve host: " + err.Error()}
	}

	endpoint := netmodel.NewIPHostnameEndpoint(ip, host)
	endpoint, err = endpoint.WithPort(port)
	if err != nil {
		return BuiltTarget{}, vserrors.InvalidArgument{Flag: "uri-target", Reason: err.Error()}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	service := netmodel.NetworkService{
		Endpoint:    endpoint,
		Transport:   netmodel.TCP,
		ServiceName: scheme,
		Context: &netmodel.ServiceContext{
			WebService: &netmodel.WebServiceContext{ApplicationRoot: path},
		},
	}

	return BuiltTarget{
		Target:       netmodel.TargetInfo{Endpoints: []netmodel.NetworkEndpoint{endpoint}},
		SeedServices: []netmodel.NetworkService{service},
	}, nil
}

func resolveHost(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	return addrs[0].IP, nil
}
