package plugin

import (
	"context"

	"github.com/ironclad-labs/vulnscan/internal/netmodel"
)

// PortScanner discovers open services on a target.
type PortScanner interface {
	Scan(ctx context.Context, target netmodel.TargetInfo) (netmodel.PortScanningReport, error)
}

// ServiceFingerprinter enriches a single service with detected
// software/version/context.
type ServiceFingerprinter interface {
	Fingerprint(ctx context.Context, target netmodel.TargetInfo, service netmodel.NetworkService) (netmodel.FingerprintingReport, error)
}

// VulnDetector reports vulnerabilities for the services it was matched
// against.
type VulnDetector interface {
	Detect(ctx context.Context, report netmodel.ReconnaissanceReport, matched []netmodel.NetworkService) ([]netmodel.DetectionReport, error)
}

// SubDefinitionMatch is one logical plugin definition fronted by a
// RemoteVulnDetector, together with the services matched against it.
type SubDefinitionMatch struct {
	Descriptor      PluginDescriptor
	MatchedServices []netmodel.NetworkService
}

// RemoteVulnDetector fronts many logical detector definitions behind one
// runtime instance (e.g. proxying to an out-of-process plugin runtime). The
// manager computes per-sub-definition matches once and hands the complete,
// immutable set to Detect — there is no mutable accumulator on the
// detector itself (see SPEC_FULL.md §9).
type RemoteVulnDetector interface {
	GetAllPlugins() []PluginDescriptor
	Detect(ctx context.Context, report netmodel.ReconnaissanceReport, subMatches []SubDefinitionMatch) ([]netmodel.DetectionReport, error)
}

// MatchingResult pairs a matched plugin instance with its descriptor and
// the ordered subset of services it was matched against.
type MatchingResult[P any] struct {
	Descriptor      PluginDescriptor
	Plugin          P
	MatchedServices []netmodel.NetworkService
}
