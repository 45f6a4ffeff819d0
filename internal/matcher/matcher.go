// Package matcher implements the pure, side-effect-free predicates that
// decide which plugins apply to which services. Nothing in this package
// performs I/O or can fail — matching is total over its inputs.
package matcher

import (
	"strings"

	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
)

// webServiceNames is the canonical recognized set of service names denoting
// HTTP/HTTPS traffic.
var webServiceNames = plugin.NewStringSet(
	"http", "https", "http-proxy", "http-alt", "https-alt", "ssl/http", "ssl/https",
)

// IsWebService reports whether serviceName is in the canonical web-service
// set, case-insensitively.
func IsWebService(serviceName string) bool {
	return webServiceNames.Contains(serviceName)
}

// matchesServiceName implements the service-name predicate: true if the
// selector has no service-name constraint, the service carries no service
// name, or the lowercased service name is in the selector's set.
func matchesServiceName(sel plugin.Selectors, svc netmodel.NetworkService) bool {
	if sel.ServiceNames.Empty() {
		return true
	}
	if svc.ServiceName == "" {
		return true
	}
	return sel.ServiceNames.Contains(svc.ServiceName)
}

// matchesSoftware implements the software predicate.
func matchesSoftware(sel plugin.Selectors, svc netmodel.NetworkService) bool {
	if sel.SoftwareName == "" {
		return true
	}
	if svc.Software == nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(svc.Software.Name), strings.TrimSpace(sel.SoftwareName))
}

// matchesWebService implements the web-service predicate.
func matchesWebService(sel plugin.Selectors, svc netmodel.NetworkService) bool {
	if !sel.ForWebService {
		return true
	}
	return IsWebService(svc.ServiceName)
}

// MatchesService is the conjunction of the service-level predicates
// (service-name, software, web-service). OS-class is a target-level
// predicate evaluated separately by MatchesOS.
func MatchesService(sel plugin.Selectors, svc netmodel.NetworkService) bool {
	return matchesServiceName(sel, svc) && matchesSoftware(sel, svc) && matchesWebService(sel, svc)
}

// MatchesOS implements the os-class predicate: true if the selector has no
// OS constraint, or some OS-class guess on the target satisfies the
// vendor/family/minAccuracy constraints.
func MatchesOS(sel plugin.Selectors, target netmodel.TargetInfo) bool {
	if sel.OSClass == nil {
		return true
	}
	for _, osc := range target.OSClasses {
		if !sel.OSClass.Vendors.Empty() && !sel.OSClass.Vendors.Contains(osc.Vendor) {
			continue
		}
		if !sel.OSClass.Families.Empty() && !sel.OSClass.Families.Contains(osc.OSFamily) {
			continue
		}
		if osc.Accuracy < sel.OSClass.MinAccuracy {
			continue
		}
		return true
	}
	return false
}

// FilterServices returns, in input order, the subset of services for which
// MatchesService holds. If the OS predicate fails on target, it returns an
// empty list regardless of services.
func FilterServices(sel plugin.Selectors, services []netmodel.NetworkService, target netmodel.TargetInfo) []netmodel.NetworkService {
	if !MatchesOS(sel, target) {
		return nil
	}
	out := make([]netmodel.NetworkService, 0, len(services))
	for _, svc := range services {
		if MatchesService(sel, svc) {
			out = append(out, svc)
		}
	}
	return out
}
