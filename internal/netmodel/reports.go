package netmodel

import (
	"time"

	"github.com/ironclad-labs/vulnscan/internal/advisory"
)

// PortScanningReport is the output of the port-scan phase: a target plus
// the services discovered open on it.
type PortScanningReport struct {
	Target   TargetInfo
	Services []NetworkService
}

// FingerprintingReport is produced once per service by a ServiceFingerprinter
// and merged back into the reconnaissance report by the scan workflow.
type FingerprintingReport struct {
	Service NetworkService
}

// ReconnaissanceReport is the port-scanning report with services enriched
// by fingerprinting (and, after phase 3, web-service context).
type ReconnaissanceReport struct {
	Target   TargetInfo
	Services []NetworkService
}

// DetectionReport is one vulnerability finding against one service.
type DetectionReport struct {
	Target        TargetInfo
	Service       NetworkService
	Vulnerability advisory.Advisory
	Timestamp     time.Time
}

// ScanFinding is a flattened finding in the final scan report; it carries
// exactly the fields of a DetectionReport.
type ScanFinding = DetectionReport

// ScanStatus is the terminal status of a full scan run.
type ScanStatus string

const (
	StatusSucceeded           ScanStatus = "SUCCEEDED"
	StatusPartiallySucceeded  ScanStatus = "PARTIALLY_SUCCEEDED"
	StatusFailed              ScanStatus = "FAILED"
)

// ScanResults is the final output of a scan workflow run.
type ScanResults struct {
	// ScanID correlates this run's log lines; it has no bearing on
	// scan semantics.
	ScanID          string
	Status          ScanStatus
	StatusMessage   string
	Duration        time.Duration
	Reconnaissance  ReconnaissanceReport
	Findings        []ScanFinding
}
