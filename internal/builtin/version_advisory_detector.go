package builtin

import (
	"context"
	"time"

	goversion "github.com/aquasecurity/go-version/pkg/version"

	"github.com/ironclad-labs/vulnscan/internal/advisory"
	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
)

// softwareAdvisory pairs the version a piece of software must be at or
// above with the advisory raised when it isn't.
type softwareAdvisory struct {
	Software advisory.Advisory
	FixedIn  string
}

// advisoryEntry pairs the software name BannerFingerprinter produces with
// its known advisories.
type advisoryEntry struct {
	Name       string
	Advisories []softwareAdvisory
}

// advisoryTable is a small, in-memory stand-in for a real vulnerability
// feed (e.g. NVD/OSV). It is an ordered slice, not a map, so
// Descriptor's advisory list — and --dump-advisories' output — comes out
// in the same order every run (spec §6: "Order is registry order").
var advisoryTable = []advisoryEntry{
	{
		Name: "OpenSSH",
		Advisories: []softwareAdvisory{
			{
				Software: advisory.Advisory{
					MainID:      advisory.AdvisoryID{Publisher: "vulnscan", Value: "VS-2023-0001"},
					Severity:    "HIGH",
					Title:       "OpenSSH pre-auth double-free",
					Description: "OpenSSH versions before 9.3p2 are affected by a pre-authentication double-free vulnerability.",
				},
				FixedIn: "9.3.2",
			},
		},
	},
	{
		Name: "nginx",
		Advisories: []softwareAdvisory{
			{
				Software: advisory.Advisory{
					MainID:      advisory.AdvisoryID{Publisher: "vulnscan", Value: "VS-2023-0002"},
					Severity:    "MEDIUM",
					Title:       "nginx DNS resolver off-by-one",
					Description: "nginx versions before 1.21.0 contain an off-by-one error in the DNS resolver.",
				},
				FixedIn: "1.21.0",
			},
		},
	},
	{
		Name: "Apache",
		Advisories: []softwareAdvisory{
			{
				Software: advisory.Advisory{
					MainID:      advisory.AdvisoryID{Publisher: "vulnscan", Value: "VS-2023-0003"},
					Severity:    "CRITICAL",
					Title:       "Apache HTTP Server path traversal",
					Description: "Apache HTTP Server versions before 2.4.51 are vulnerable to path traversal and remote code execution.",
				},
				FixedIn: "2.4.51",
			},
		},
	},
	{
		Name: "vsFTPd",
		Advisories: []softwareAdvisory{
			{
				Software: advisory.Advisory{
					MainID:      advisory.AdvisoryID{Publisher: "vulnscan", Value: "VS-2023-0004"},
					Severity:    "LOW",
					Title:       "vsFTPd information disclosure",
					Description: "vsFTPd versions before 3.0.5 may disclose directory listings to unauthenticated users.",
				},
				FixedIn: "3.0.5",
			},
		},
	},
}

// advisoriesFor returns the advisories registered for the given software
// name, in table order.
func advisoriesFor(name string) ([]softwareAdvisory, bool) {
	for _, entry := range advisoryTable {
		if entry.Name == name {
			return entry.Advisories, true
		}
	}
	return nil, false
}

// VersionAdvisoryDetector reports a finding when a matched service's
// Software.Version is older than the corresponding advisory's FixedIn,
// using aquasecurity/go-version for the semantic comparison.
type VersionAdvisoryDetector struct{}

// NewVersionAdvisoryDetector builds a VersionAdvisoryDetector.
func NewVersionAdvisoryDetector() *VersionAdvisoryDetector {
	return &VersionAdvisoryDetector{}
}

// Descriptor identifies this plugin; empty selectors mean it is offered
// every service the manager discovers (permissive-missing, spec §4.1).
func (d *VersionAdvisoryDetector) Descriptor() plugin.PluginDescriptor {
	var advisories []advisory.Advisory
	for _, entry := range advisoryTable {
		for _, a := range entry.Advisories {
			advisories = append(advisories, a.Software)
		}
	}
	return plugin.PluginDescriptor{
		Type:        plugin.VulnDetection,
		Name:        "VersionAdvisoryDetector",
		Version:     "1.0.0",
		Description: "Flags services whose fingerprinted software version predates a known fix.",
		Author:      "vulnscan",
		Advisories:  advisories,
	}
}

// Detect compares each matched service's Software.Version against
// advisoryTable, reporting a DetectionReport for every version older than
// FixedIn.
func (d *VersionAdvisoryDetector) Detect(ctx context.Context, report netmodel.ReconnaissanceReport, matched []netmodel.NetworkService) ([]netmodel.DetectionReport, error) {
	var findings []netmodel.DetectionReport

	for _, svc := range matched {
		if svc.Software == nil || svc.Software.Version == "" {
			continue
		}
		entries, ok := advisoriesFor(svc.Software.Name)
		if !ok {
			continue
		}

		current, err := goversion.Parse(svc.Software.Version)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			fixed, err := goversion.Parse(entry.FixedIn)
			if err != nil {
				continue
			}
			if current.LessThan(fixed) {
				findings = append(findings, netmodel.DetectionReport{
					Target:        report.Target,
					Service:       svc,
					Vulnerability: entry.Software,
					Timestamp:     time.Now(),
				})
			}
		}
	}

	return findings, nil
}
