package manager

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
	"github.com/ironclad-labs/vulnscan/internal/registry"
)

type fakePortScanner struct{}

func (fakePortScanner) Scan(ctx context.Context, target netmodel.TargetInfo) (netmodel.PortScanningReport, error) {
	return netmodel.PortScanningReport{Target: target}, nil
}

type fakeFingerprinter struct{}

func (fakeFingerprinter) Fingerprint(ctx context.Context, target netmodel.TargetInfo, service netmodel.NetworkService) (netmodel.FingerprintingReport, error) {
	return netmodel.FingerprintingReport{Service: service}, nil
}

type fakeDetector struct{ name string }

func (f fakeDetector) Detect(ctx context.Context, report netmodel.ReconnaissanceReport, matched []netmodel.NetworkService) ([]netmodel.DetectionReport, error) {
	return nil, nil
}

type fakeRemoteDetector struct {
	subs []plugin.PluginDescriptor
}

func (f fakeRemoteDetector) GetAllPlugins() []plugin.PluginDescriptor { return f.subs }
func (f fakeRemoteDetector) Detect(ctx context.Context, report netmodel.ReconnaissanceReport, subMatches []plugin.SubDefinitionMatch) ([]netmodel.DetectionReport, error) {
	return nil, nil
}

func endpointPort(port int) netmodel.NetworkEndpoint {
	ep, _ := netmodel.NewHostnameEndpoint("target").WithPort(port)
	return ep
}

func svc(name string, port int) netmodel.NetworkService {
	return netmodel.NetworkService{Endpoint: endpointPort(port), Transport: netmodel.TCP, ServiceName: name}
}

func TestGetPortScanners_RegistrationOrder(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddPortScanner(plugin.PluginDescriptor{Name: "First"}, fakePortScanner{}).
		AddPortScanner(plugin.PluginDescriptor{Name: "Second"}, fakePortScanner{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	scanners := mgr.GetPortScanners()
	if len(scanners) != 2 || scanners[0].Descriptor.Name != "First" {
		t.Fatalf("expected [First, Second] in order, got %+v", scanners)
	}

	first, ok := mgr.GetPortScanner()
	if !ok || first.Descriptor.Name != scanners[0].Descriptor.Name {
		t.Fatalf("GetPortScanner should return the same descriptor as GetPortScanners()[0]")
	}
}

func TestGetPortScanner_EmptyRegistry(t *testing.T) {
	reg, err := registry.NewBuilder().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	if _, ok := mgr.GetPortScanner(); ok {
		t.Fatal("expected no port scanner when none is registered")
	}
}

func TestGetVulnDetectors_EmptySelectorsMatchEverything(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddDetector(plugin.PluginDescriptor{Name: "CatchAll"}, fakeDetector{"CatchAll"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	services := []netmodel.NetworkService{svc("http", 80), svc("ssh", 22)}
	report := netmodel.ReconnaissanceReport{Services: services}

	matches := mgr.GetVulnDetectors(report, nil, nil)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if diff := cmp.Diff(services, matches[0].Matched); diff != "" {
		t.Fatalf("a detector with empty selectors should match every service (-want +got):\n%s", diff)
	}
}

func TestGetVulnDetectors_ServiceNameSelector(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddDetector(plugin.PluginDescriptor{
			Name:      "HTTPOnly",
			Selectors: plugin.Selectors{ServiceNames: plugin.NewStringSet("http")},
		}, fakeDetector{"HTTPOnly"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	http := svc("http", 80)
	https := svc("https", 443)
	untagged := svc("", 12345)
	report := netmodel.ReconnaissanceReport{Services: []netmodel.NetworkService{http, https, untagged}}

	matches := mgr.GetVulnDetectors(report, nil, nil)
	want := []netmodel.NetworkService{http, untagged}
	if diff := cmp.Diff(want, matches[0].Matched); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGetVulnDetectors_SoftwareSelector(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddDetector(plugin.PluginDescriptor{
			Name:      "JenkinsOnly",
			Selectors: plugin.Selectors{SoftwareName: "Jenkins"},
		}, fakeDetector{"JenkinsOnly"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	wordpress := svc("wordpress-http", 80)
	wordpress.Software = &netmodel.Software{Name: "WordPress"}
	jenkins := svc("jenkins-https", 443)
	jenkins.Software = &netmodel.Software{Name: "Jenkins"}
	untagged := svc("", 12345)
	report := netmodel.ReconnaissanceReport{Services: []netmodel.NetworkService{wordpress, jenkins, untagged}}

	matches := mgr.GetVulnDetectors(report, nil, nil)
	want := []netmodel.NetworkService{jenkins, untagged}
	if diff := cmp.Diff(want, matches[0].Matched); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGetVulnDetectors_OSClassSelector(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddDetector(plugin.PluginDescriptor{
			Name:      "FakeOSOnly",
			Selectors: plugin.Selectors{OSClass: &plugin.OSClassSelector{Families: plugin.NewStringSet("FakeOS")}},
		}, fakeDetector{"FakeOSOnly"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	services := []netmodel.NetworkService{svc("wordpress-http", 80), svc("jenkins-https", 443), svc("", 12345)}
	report := netmodel.ReconnaissanceReport{
		Target:   netmodel.TargetInfo{OSClasses: []netmodel.OSClass{{Vendor: "Vendor", OSFamily: "FakeOS", Accuracy: 99}}},
		Services: services,
	}

	matches := mgr.GetVulnDetectors(report, nil, nil)
	if diff := cmp.Diff(services, matches[0].Matched); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGetVulnDetectors_RemoteDetectorSubMatches(t *testing.T) {
	subs := []plugin.PluginDescriptor{
		{Name: "Sub1", Selectors: plugin.Selectors{ServiceNames: plugin.NewStringSet("http")}},
		{Name: "Sub2", Selectors: plugin.Selectors{SoftwareName: "Jenkins"}},
		{Name: "Sub3", Selectors: plugin.Selectors{OSClass: &plugin.OSClassSelector{Families: plugin.NewStringSet("FakeOS")}}},
		{Name: "Sub4", Selectors: plugin.Selectors{
			ServiceNames: plugin.NewStringSet("http"),
			OSClass:      &plugin.OSClassSelector{Families: plugin.NewStringSet("FakeOS"), MinAccuracy: 90},
		}},
	}
	remote := fakeRemoteDetector{subs: subs}

	reg, err := registry.NewBuilder().
		AddRemoteDetector(plugin.PluginDescriptor{Name: "Remote"}, remote).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	wordpress := svc("http", 80)
	wordpress.Software = &netmodel.Software{Name: "WordPress"}
	jenkins := svc("jenkins-https", 443)
	jenkins.Software = &netmodel.Software{Name: "Jenkins"}
	untagged := svc("", 12345)
	services := []netmodel.NetworkService{wordpress, jenkins, untagged}

	report := netmodel.ReconnaissanceReport{
		Target:   netmodel.TargetInfo{OSClasses: []netmodel.OSClass{{OSFamily: "FakeOS", Accuracy: 96}}},
		Services: services,
	}

	matches := mgr.GetVulnDetectors(report, nil, nil)
	if len(matches) != 1 || !matches[0].IsRemote() {
		t.Fatalf("expected exactly one remote match, got %+v", matches)
	}

	subMatches := matches[0].SubMatches
	if len(subMatches) != 4 {
		t.Fatalf("expected 4 sub-definition matches, got %d", len(subMatches))
	}

	wantByName := map[string][]netmodel.NetworkService{
		"Sub1": {wordpress, untagged},
		"Sub2": {jenkins, untagged},
		"Sub3": {wordpress, jenkins, untagged},
		"Sub4": {wordpress, untagged},
	}
	for _, sm := range subMatches {
		if diff := cmp.Diff(wantByName[sm.Descriptor.Name], sm.MatchedServices); diff != "" {
			t.Fatalf("sub-definition %s mismatch (-want +got):\n%s", sm.Descriptor.Name, diff)
		}
	}
}

func TestGetVulnDetectors_IncludeExcludeFilters(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddDetector(plugin.PluginDescriptor{Name: "FakeVulnDetector"}, fakeDetector{"FakeVulnDetector"}).
		AddDetector(plugin.PluginDescriptor{Name: "OtherDetector"}, fakeDetector{"OtherDetector"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)
	report := netmodel.ReconnaissanceReport{Services: []netmodel.NetworkService{svc("http", 80)}}

	included := mgr.GetVulnDetectors(report, []string{"FakeVulnDetector"}, nil)
	if len(included) != 1 || included[0].Descriptor.Name != "FakeVulnDetector" {
		t.Fatalf("expected only FakeVulnDetector, got %+v", included)
	}

	excluded := mgr.GetVulnDetectors(report, nil, []string{"FakeVulnDetector"})
	if len(excluded) != 1 || excluded[0].Descriptor.Name != "OtherDetector" {
		t.Fatalf("expected only OtherDetector, got %+v", excluded)
	}
}

func TestGetVulnDetectors_IncludeUnknownNameYieldsNothing(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddDetector(plugin.PluginDescriptor{Name: "Known"}, fakeDetector{"Known"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)
	report := netmodel.ReconnaissanceReport{Services: []netmodel.NetworkService{svc("http", 80)}}

	matches := mgr.GetVulnDetectors(report, []string{"Unknown"}, nil)
	if len(matches) != 0 {
		t.Fatalf("expected no matches for an unknown include name, got %+v", matches)
	}
}

func TestGetServiceFingerprinter_SkipsEmptySelectors(t *testing.T) {
	reg, err := registry.NewBuilder().
		AddFingerprinter(plugin.PluginDescriptor{Name: "NoIntent"}, fakeFingerprinter{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mgr := New(reg)

	if _, ok := mgr.GetServiceFingerprinter(svc("http", 80)); ok {
		t.Fatal("a fingerprinter with no selectors should never be offered a service")
	}
}
