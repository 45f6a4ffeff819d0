package netmodel

import "fmt"

// Transport is the transport-layer protocol a service was discovered on.
type Transport string

const (
	TCP Transport = "TCP"
	UDP Transport = "UDP"
)

// Software identifies a piece of software and, optionally, its version.
type Software struct {
	Name    string
	Version string
}

// WebServiceContext carries HTTP-specific enrichment for a service
// recognized as web traffic (see matcher.IsWebService).
type WebServiceContext struct {
	ApplicationRoot string
}

// ServiceContext is a container for service-kind-specific enrichment.
// Currently only web services carry one.
type ServiceContext struct {
	WebService *WebServiceContext
}

// NetworkService is a network endpoint plus transport and whatever service
// identification has been established so far. ServiceName's canonical form
// is lowercase, but it is stored as given and matched case-insensitively;
// an empty ServiceName means "not yet identified".
type NetworkService struct {
	Endpoint    NetworkEndpoint
	Transport   Transport
	ServiceName string
	Software    *Software
	Context     *ServiceContext
}

// Key identifies a service by endpoint+transport+port. The scan workflow
// does not use it: fingerprinting results replace services by position.
func (s NetworkService) Key() string {
	return fmt.Sprintf("%s|%s", s.Endpoint.Key(), s.Transport)
}
