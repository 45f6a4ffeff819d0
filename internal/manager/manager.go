// Package manager implements the plugin manager: the query-facing façade
// over the registry that the scan workflow consults at each phase (spec
// §4.3).
package manager

import (
	"github.com/ironclad-labs/vulnscan/internal/matcher"
	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
	"github.com/ironclad-labs/vulnscan/internal/registry"
)

// Manager is the query façade over an immutable Registry.
type Manager struct {
	reg *registry.Registry
}

// New builds a Manager over reg.
func New(reg *registry.Registry) *Manager {
	return &Manager{reg: reg}
}

// GetPortScanners returns every port scanner in the registry with empty
// MatchedServices — port scanners run before any service exists.
func (m *Manager) GetPortScanners() []plugin.MatchingResult[plugin.PortScanner] {
	entries := m.reg.PortScanners()
	out := make([]plugin.MatchingResult[plugin.PortScanner], 0, len(entries))
	for _, e := range entries {
		out = append(out, plugin.MatchingResult[plugin.PortScanner]{Descriptor: e.Descriptor, Plugin: e.Plugin})
	}
	return out
}

// GetPortScanner returns the first port scanner in registration order, if
// any.
func (m *Manager) GetPortScanner() (plugin.MatchingResult[plugin.PortScanner], bool) {
	entries := m.reg.PortScanners()
	if len(entries) == 0 {
		return plugin.MatchingResult[plugin.PortScanner]{}, false
	}
	e := entries[0]
	return plugin.MatchingResult[plugin.PortScanner]{Descriptor: e.Descriptor, Plugin: e.Plugin}, true
}

// GetServiceFingerprinter returns the first fingerprinter in registration
// order whose selectors are non-empty and match service. A fingerprinter
// with no selectors at all is skipped — fingerprinting requires declared
// intent (spec §4.3, preserved per the open question in spec §9).
func (m *Manager) GetServiceFingerprinter(service netmodel.NetworkService) (plugin.MatchingResult[plugin.ServiceFingerprinter], bool) {
	for _, e := range m.reg.Fingerprinters() {
		if e.Descriptor.Selectors.Empty() {
			continue
		}
		if matcher.MatchesService(e.Descriptor.Selectors, service) {
			return plugin.MatchingResult[plugin.ServiceFingerprinter]{
				Descriptor:      e.Descriptor,
				Plugin:          e.Plugin,
				MatchedServices: []netmodel.NetworkService{service},
			}, true
		}
	}
	return plugin.MatchingResult[plugin.ServiceFingerprinter]{}, false
}

// DetectorMatch is one detector selected for a reconnaissance report:
// either a regular detector with its matched services, or a remote
// detector with its per-sub-definition matches.
type DetectorMatch struct {
	Descriptor plugin.PluginDescriptor
	Detector   plugin.VulnDetector
	Remote     plugin.RemoteVulnDetector
	Matched    []netmodel.NetworkService
	SubMatches []plugin.SubDefinitionMatch
}

// IsRemote reports whether this match is against a remote detector.
func (d DetectorMatch) IsRemote() bool { return d.Remote != nil }

// GetVulnDetectors computes the applicable vuln detectors for report,
// then applies the configured include/exclude name filters as the final
// step (spec §4.3). Matching is by exact descriptor name; an include list
// naming an unregistered detector silently yields nothing for that name
// (spec §9 open question, resolved as silent).
func (m *Manager) GetVulnDetectors(report netmodel.ReconnaissanceReport, include, exclude []string) []DetectorMatch {
	var out []DetectorMatch

	for _, e := range m.reg.Detectors() {
		if !matcher.MatchesOS(e.Descriptor.Selectors, report.Target) {
			continue
		}

		if e.IsRemote() {
			subs := e.Remote.GetAllPlugins()
			subMatches := make([]plugin.SubDefinitionMatch, len(subs))
			for i, sub := range subs {
				subMatches[i] = plugin.SubDefinitionMatch{
					Descriptor:      sub,
					MatchedServices: matcher.FilterServices(sub.Selectors, report.Services, report.Target),
				}
			}
			out = append(out, DetectorMatch{
				Descriptor: e.Descriptor,
				Remote:     e.Remote,
				SubMatches: subMatches,
			})
			continue
		}

		matched := matcher.FilterServices(e.Descriptor.Selectors, report.Services, report.Target)
		if len(matched) == 0 {
			continue
		}
		out = append(out, DetectorMatch{
			Descriptor: e.Descriptor,
			Detector:   e.Detector,
			Matched:    matched,
		})
	}

	return applyNameFilters(out, include, exclude)
}

// applyNameFilters keeps matching by exact descriptor name (spec §4.3),
// unlike the selector matcher's case-insensitive service-name sets.
func applyNameFilters(matches []DetectorMatch, include, exclude []string) []DetectorMatch {
	if len(include) == 0 && len(exclude) == 0 {
		return matches
	}
	includeSet := make(map[string]struct{}, len(include))
	for _, n := range include {
		includeSet[n] = struct{}{}
	}
	excludeSet := make(map[string]struct{}, len(exclude))
	for _, n := range exclude {
		excludeSet[n] = struct{}{}
	}

	out := make([]DetectorMatch, 0, len(matches))
	for _, m := range matches {
		if len(includeSet) > 0 {
			if _, ok := includeSet[m.Descriptor.Name]; !ok {
				continue
			}
		}
		if len(excludeSet) > 0 {
			if _, ok := excludeSet[m.Descriptor.Name]; ok {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
