// Package registry implements the process-wide plugin catalog (spec §4.2):
// built once at startup from registered bootstrap bindings, immutable
// thereafter, preserving registration order.
package registry

import (
	"github.com/hashicorp/go-multierror"

	"github.com/ironclad-labs/vulnscan/internal/advisory"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
	"github.com/ironclad-labs/vulnscan/internal/vserrors"
)

// PortScannerEntry pairs a descriptor with its port-scanner instance.
type PortScannerEntry struct {
	Descriptor plugin.PluginDescriptor
	Plugin     plugin.PortScanner
}

// FingerprinterEntry pairs a descriptor with its fingerprinter instance.
type FingerprinterEntry struct {
	Descriptor plugin.PluginDescriptor
	Plugin     plugin.ServiceFingerprinter
}

// DetectorEntry pairs a descriptor with either a regular detector or a
// remote detector (exactly one of Detector/Remote is non-nil).
type DetectorEntry struct {
	Descriptor plugin.PluginDescriptor
	Detector   plugin.VulnDetector
	Remote     plugin.RemoteVulnDetector
}

// IsRemote reports whether this entry is a remote detector.
func (e DetectorEntry) IsRemote() bool {
	return e.Remote != nil
}

// Registry is the immutable, process-wide plugin catalog.
type Registry struct {
	portScanners   []PortScannerEntry
	fingerprinters []FingerprinterEntry
	detectors      []DetectorEntry
	byName         map[string]plugin.PluginDescriptor
}

// PortScanners returns every registered port scanner in registration order.
func (r *Registry) PortScanners() []PortScannerEntry { return r.portScanners }

// Fingerprinters returns every registered fingerprinter in registration order.
func (r *Registry) Fingerprinters() []FingerprinterEntry { return r.fingerprinters }

// Detectors returns every registered detector (regular and remote) in
// registration order.
func (r *Registry) Detectors() []DetectorEntry { return r.detectors }

// ByName looks up a descriptor by its unique name.
func (r *Registry) ByName(name string) (plugin.PluginDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// AllAdvisories collects every descriptor's advisories, in registration
// order (port scanners, then fingerprinters, then detectors), for
// --dump-advisories (spec §6).
func (r *Registry) AllAdvisories() []advisory.Advisory {
	var out []advisory.Advisory
	for _, e := range r.portScanners {
		out = append(out, e.Descriptor.Advisories...)
	}
	for _, e := range r.fingerprinters {
		out = append(out, e.Descriptor.Advisories...)
	}
	for _, e := range r.detectors {
		out = append(out, e.Descriptor.Advisories...)
		if e.IsRemote() {
			for _, sub := range e.Remote.GetAllPlugins() {
				out = append(out, sub.Advisories...)
			}
		}
	}
	return out
}

// Builder accumulates bootstrap bindings before Build validates and
// freezes them into a Registry. Duplicate names across ANY kind are a
// fatal error, surfaced (aggregated, if there's more than one) at Build.
type Builder struct {
	portScanners   []PortScannerEntry
	fingerprinters []FingerprinterEntry
	detectors      []DetectorEntry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddPortScanner registers a port-scanner binding.
func (b *Builder) AddPortScanner(d plugin.PluginDescriptor, p plugin.PortScanner) *Builder {
	b.portScanners = append(b.portScanners, PortScannerEntry{Descriptor: d, Plugin: p})
	return b
}

// AddFingerprinter registers a fingerprinter binding.
func (b *Builder) AddFingerprinter(d plugin.PluginDescriptor, p plugin.ServiceFingerprinter) *Builder {
	b.fingerprinters = append(b.fingerprinters, FingerprinterEntry{Descriptor: d, Plugin: p})
	return b
}

// AddDetector registers a regular (non-remote) vuln-detector binding.
func (b *Builder) AddDetector(d plugin.PluginDescriptor, det plugin.VulnDetector) *Builder {
	b.detectors = append(b.detectors, DetectorEntry{Descriptor: d, Detector: det})
	return b
}

// AddRemoteDetector registers a remote vuln-detector binding.
func (b *Builder) AddRemoteDetector(d plugin.PluginDescriptor, rd plugin.RemoteVulnDetector) *Builder {
	b.detectors = append(b.detectors, DetectorEntry{Descriptor: d, Remote: rd})
	return b
}

// Build validates name uniqueness across every registered binding and
// returns the frozen Registry, or a DuplicatePluginName error (aggregated
// via go-multierror when more than one name collides).
func (b *Builder) Build() (*Registry, error) {
	byName := make(map[string]plugin.PluginDescriptor)
	var errs *multierror.Error

	register := func(d plugin.PluginDescriptor) {
		if _, exists := byName[d.Name]; exists {
			errs = multierror.Append(errs, vserrors.DuplicatePluginName{Name: d.Name})
			return
		}
		byName[d.Name] = d
	}

	for _, e := range b.portScanners {
		register(e.Descriptor)
	}
	for _, e := range b.fingerprinters {
		register(e.Descriptor)
	}
	for _, e := range b.detectors {
		register(e.Descriptor)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Registry{
		portScanners:   b.portScanners,
		fingerprinters: b.fingerprinters,
		detectors:      b.detectors,
		byName:         byName,
	}, nil
}
