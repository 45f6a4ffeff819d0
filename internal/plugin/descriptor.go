package plugin

import "github.com/ironclad-labs/vulnscan/internal/advisory"

// Type classifies a plugin descriptor.
type Type string

const (
	PortScan            Type = "PORT_SCAN"
	ServiceFingerprint  Type = "SERVICE_FINGERPRINT"
	VulnDetection       Type = "VULN_DETECTION"
	RemoteVulnDetection Type = "REMOTE_VULN_DETECTION"
)

// OSClassSelector restricts a plugin to targets whose OS-class guesses
// satisfy it. A nil OSClassSelector means "no OS constraint".
type OSClassSelector struct {
	Vendors     StringSet
	Families    StringSet
	MinAccuracy int
}

// Selectors declares the conditions under which a plugin applies. Every
// field is independently optional; an absent constraint matches everything
// ("permissive-missing" — see the matcher package).
type Selectors struct {
	ServiceNames  StringSet
	SoftwareName  string // empty means "no constraint"
	OSClass       *OSClassSelector
	ForWebService bool
}

// Empty reports whether the selector set imposes no constraint at all. Used
// by the plugin manager to skip fingerprinters that declared no intent.
func (s Selectors) Empty() bool {
	return s.ServiceNames.Empty() && s.SoftwareName == "" && s.OSClass == nil && !s.ForWebService
}

// PluginDescriptor is the immutable identity record attached to every
// plugin at registration time. Name is the unique identity used for
// registry lookups and CLI include/exclude filters.
type PluginDescriptor struct {
	Type        Type
	Name        string
	Version     string
	Description string
	Author      string
	Selectors   Selectors
	Advisories  []advisory.Advisory
}
