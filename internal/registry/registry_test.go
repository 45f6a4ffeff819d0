package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
	"github.com/ironclad-labs/vulnscan/internal/vserrors"
)

type fakePortScanner struct{ name string }

func (f fakePortScanner) Scan(ctx context.Context, target netmodel.TargetInfo) (netmodel.PortScanningReport, error) {
	return netmodel.PortScanningReport{Target: target}, nil
}

func descriptor(name string, typ plugin.Type) plugin.PluginDescriptor {
	return plugin.PluginDescriptor{Type: typ, Name: name, Version: "1.0.0"}
}

func TestBuilder_BuildPreservesRegistrationOrder(t *testing.T) {
	b := NewBuilder()
	b.AddPortScanner(descriptor("First", plugin.PortScan), fakePortScanner{"First"})
	b.AddPortScanner(descriptor("Second", plugin.PortScan), fakePortScanner{"Second"})

	reg, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	scanners := reg.PortScanners()
	if len(scanners) != 2 {
		t.Fatalf("expected 2 port scanners, got %d", len(scanners))
	}
	if scanners[0].Descriptor.Name != "First" || scanners[1].Descriptor.Name != "Second" {
		t.Fatalf("registration order not preserved: %+v", scanners)
	}
}

func TestBuilder_Build_DuplicateNameAcrossKinds(t *testing.T) {
	b := NewBuilder()
	b.AddPortScanner(descriptor("Dup", plugin.PortScan), fakePortScanner{"Dup"})
	b.AddFingerprinter(descriptor("Dup", plugin.ServiceFingerprint), nil)

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected a duplicate-name error")
	}

	var dup vserrors.DuplicatePluginName
	if !errors.As(err, &dup) {
		t.Fatalf("expected a DuplicatePluginName error, got %v", err)
	}
	if dup.Name != "Dup" {
		t.Fatalf("expected duplicate name %q, got %q", "Dup", dup.Name)
	}
}

func TestBuilder_Build_MultipleDuplicatesAggregated(t *testing.T) {
	b := NewBuilder()
	b.AddPortScanner(descriptor("A", plugin.PortScan), fakePortScanner{"A"})
	b.AddPortScanner(descriptor("A", plugin.PortScan), fakePortScanner{"A"})
	b.AddFingerprinter(descriptor("B", plugin.ServiceFingerprint), nil)
	b.AddFingerprinter(descriptor("B", plugin.ServiceFingerprint), nil)

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected an aggregated error")
	}
	if want := "2 error"; !contains(err.Error(), want) {
		t.Fatalf("expected multierror to report 2 errors, got: %v", err)
	}
}

func TestRegistry_ByName(t *testing.T) {
	b := NewBuilder()
	b.AddPortScanner(descriptor("Known", plugin.PortScan), fakePortScanner{"Known"})

	reg, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := reg.ByName("Known"); !ok {
		t.Fatal("expected to find the registered descriptor")
	}
	if _, ok := reg.ByName("Unknown"); ok {
		t.Fatal("expected no match for an unregistered name")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
