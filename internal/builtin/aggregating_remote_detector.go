package builtin

import (
	"context"
	"time"

	"github.com/ironclad-labs/vulnscan/internal/advisory"
	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
)

// remoteSubDefinition is one logical detector AggregatingRemoteDetector
// fronts: its own descriptor (selectors + the advisory it raises) plus the
// fixed advisory it reports for each service the manager matches it
// against.
type remoteSubDefinition struct {
	descriptor plugin.PluginDescriptor
	advisory   advisory.Advisory
}

// AggregatingRemoteDetector stands in for "many plugins behind one runtime
// instance" (spec §4.3): a single registered detector whose GetAllPlugins
// exposes several independently-selecting sub-definitions. The wire
// protocol a production remote detector would use to reach an
// out-of-process plugin runtime is out of scope (spec.md §1); this
// implementation holds its sub-definitions in memory.
type AggregatingRemoteDetector struct {
	subs []remoteSubDefinition
}

// NewAggregatingRemoteDetector builds an AggregatingRemoteDetector with a
// small fixed set of sub-definitions illustrating each selector axis.
func NewAggregatingRemoteDetector() *AggregatingRemoteDetector {
	return &AggregatingRemoteDetector{
		subs: []remoteSubDefinition{
			{
				descriptor: plugin.PluginDescriptor{
					Type:    plugin.RemoteVulnDetection,
					Name:    "RemoteWebExposureCheck",
					Version: "1.0.0",
					Author:  "vulnscan",
					Selectors: plugin.Selectors{
						ForWebService: true,
					},
				},
				advisory: advisory.Advisory{
					MainID:      advisory.AdvisoryID{Publisher: "vulnscan", Value: "VS-REMOTE-0001"},
					Severity:    "LOW",
					Title:       "Web service exposed without TLS enforcement check",
					Description: "A web-identified service was reached without verifying a TLS enforcement policy.",
				},
			},
			{
				descriptor: plugin.PluginDescriptor{
					Type:    plugin.RemoteVulnDetection,
					Name:    "RemoteDatabaseExposureCheck",
					Version: "1.0.0",
					Author:  "vulnscan",
					Selectors: plugin.Selectors{
						ServiceNames: plugin.NewStringSet("mysql", "postgresql", "redis"),
					},
				},
				advisory: advisory.Advisory{
					MainID:      advisory.AdvisoryID{Publisher: "vulnscan", Value: "VS-REMOTE-0002"},
					Severity:    "HIGH",
					Title:       "Database service reachable on an untrusted network",
					Description: "A database service was discovered listening on an interface reachable from the scan target.",
				},
			},
			{
				descriptor: plugin.PluginDescriptor{
					Type:    plugin.RemoteVulnDetection,
					Name:    "RemoteLegacyOSCheck",
					Version: "1.0.0",
					Author:  "vulnscan",
					Selectors: plugin.Selectors{
						OSClass: &plugin.OSClassSelector{
							Families: plugin.NewStringSet("windows-xp", "windows-2003", "centos-6"),
						},
					},
				},
				advisory: advisory.Advisory{
					MainID:      advisory.AdvisoryID{Publisher: "vulnscan", Value: "VS-REMOTE-0003"},
					Severity:    "CRITICAL",
					Title:       "End-of-life operating system detected",
					Description: "The target's OS class matches a known end-of-life family with no vendor security updates.",
				},
			},
		},
	}
}

// Descriptor identifies AggregatingRemoteDetector itself (the registry
// entry); its sub-definitions are separate descriptors surfaced through
// GetAllPlugins.
func (d *AggregatingRemoteDetector) Descriptor() plugin.PluginDescriptor {
	return plugin.PluginDescriptor{
		Type:        plugin.RemoteVulnDetection,
		Name:        "AggregatingRemoteDetector",
		Version:     "1.0.0",
		Description: "Fronts several logical detector sub-definitions behind one runtime instance.",
		Author:      "vulnscan",
	}
}

// GetAllPlugins returns every sub-definition's descriptor.
func (d *AggregatingRemoteDetector) GetAllPlugins() []plugin.PluginDescriptor {
	out := make([]plugin.PluginDescriptor, len(d.subs))
	for i, s := range d.subs {
		out[i] = s.descriptor
	}
	return out
}

// Detect reports one finding for every service each sub-definition was
// matched against, using the pre-populated, immutable
// subMatches the manager built (see SPEC_FULL.md §9).
func (d *AggregatingRemoteDetector) Detect(ctx context.Context, report netmodel.ReconnaissanceReport, subMatches []plugin.SubDefinitionMatch) ([]netmodel.DetectionReport, error) {
	var findings []netmodel.DetectionReport

	for _, match := range subMatches {
		if len(match.MatchedServices) == 0 {
			continue
		}
		sub := d.subByName(match.Descriptor.Name)
		if sub == nil {
			continue
		}
		for _, svc := range match.MatchedServices {
			findings = append(findings, netmodel.DetectionReport{
				Target:        report.Target,
				Service:       svc,
				Vulnerability: sub.advisory,
				Timestamp:     time.Now(),
			})
		}
	}

	return findings, nil
}

func (d *AggregatingRemoteDetector) subByName(name string) *remoteSubDefinition {
	for i := range d.subs {
		if d.subs[i].descriptor.Name == name {
			return &d.subs[i]
		}
	}
	return nil
}
