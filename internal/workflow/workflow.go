// Package workflow implements the four-phase scan pipeline: port scan,
// service fingerprint, web-service enrichment, vuln detection (spec §4.5).
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/ironclad-labs/vulnscan/internal/engine"
	"github.com/ironclad-labs/vulnscan/internal/logging"
	"github.com/ironclad-labs/vulnscan/internal/manager"
	"github.com/ironclad-labs/vulnscan/internal/matcher"
	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/vserrors"
)

// DefaultApplicationRoot is the default web-service application root set
// during phase 3 when a web service has none.
const DefaultApplicationRoot = "/"

// GracePeriod is a drain allowance for in-flight plugins after the overall
// deadline expires. Run does not apply it: once RunOptions.Deadline passes,
// every pending await ends at once with the context error and counts as a
// failed plugin, so a scan whose detectors are all still running ends FAILED.
const GracePeriod = 30 * time.Second

// Workflow stitches the plugin manager and execution engine into the
// four-phase scan pipeline.
type Workflow struct {
	manager *manager.Manager
	engine  *engine.Engine
	logger  *logging.Logger
}

// New builds a Workflow.
func New(mgr *manager.Manager, eng *engine.Engine, logger *logging.Logger) *Workflow {
	return &Workflow{manager: mgr, engine: eng, logger: logger}
}

// RunOptions parameterizes a single scan run.
type RunOptions struct {
	Include []string
	Exclude []string
	// Deadline, if non-zero, bounds the whole scan; see spec §5.
	Deadline time.Duration
	// SeedServices, when non-empty, are already-identified services (e.g.
	// derived from a --uri-target) that skip the port-scan phase entirely
	// for that target, per spec §6's URI derivation.
	SeedServices []netmodel.NetworkService
}

// Run executes the full scan pipeline against target and returns the
// final ScanResults. Run never returns an error: every failure mode is
// reflected in the returned ScanResults.Status/StatusMessage.
func (w *Workflow) Run(ctx context.Context, target netmodel.TargetInfo, opts RunOptions) *netmodel.ScanResults {
	start := time.Now()
	scanID := uuid.New().String()
	logger := w.logger.With(map[string]interface{}{"scan_id": scanID})

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	var portReport netmodel.PortScanningReport
	if len(opts.SeedServices) > 0 {
		portReport = netmodel.PortScanningReport{Target: target, Services: opts.SeedServices}
		logger.Infof("port scan phase skipped: %d service(s) pre-identified from target derivation", len(opts.SeedServices))
	} else {
		var failure error
		portReport, failure = w.runPortScan(ctx, target)
		if failure != nil {
			logger.Errorf("port scan phase failed: %v", failure)
			return &netmodel.ScanResults{
				ScanID:        scanID,
				Status:        netmodel.StatusFailed,
				StatusMessage: failure.Error(),
				Duration:      time.Since(start),
			}
		}
		logger.Infof("port scan phase complete: %d services discovered", len(portReport.Services))
	}

	reconReport := w.runFingerprinting(ctx, portReport)
	w.runWebServiceEnrichment(&reconReport, DefaultApplicationRoot)

	findings, status, message := w.runVulnDetection(ctx, reconReport, opts.Include, opts.Exclude)
	logger.Infof("scan complete: status=%s findings=%d", status, len(findings))

	return &netmodel.ScanResults{
		ScanID:         scanID,
		Status:         status,
		StatusMessage:  message,
		Duration:       time.Since(start),
		Reconnaissance: reconReport,
		Findings:       findings,
	}
}

// runPortScan is phase 1: pick the first matched port scanner and run it
// once. No scanner, or a failed run, fails the whole scan.
func (w *Workflow) runPortScan(ctx context.Context, target netmodel.TargetInfo) (netmodel.PortScanningReport, error) {
	match, ok := w.manager.GetPortScanner()
	if !ok {
		return netmodel.PortScanningReport{}, vserrors.ScanWorkflowFailure{Phase: "port_scan", Reason: "no port scanner is registered"}
	}

	fut := engine.Execute(ctx, w.engine, engine.WorkUnit[netmodel.PortScanningReport]{
		Descriptor: match.Descriptor,
		Run: func(c context.Context) (netmodel.PortScanningReport, error) {
			return match.Plugin.Scan(c, target)
		},
	})

	res, err := fut.Await(ctx)
	if err != nil {
		return netmodel.PortScanningReport{}, vserrors.ScanWorkflowFailure{Phase: "port_scan", Reason: err.Error()}
	}
	if res.Status != engine.Succeeded {
		return netmodel.PortScanningReport{}, vserrors.ScanWorkflowFailure{Phase: "port_scan", Reason: res.Err.Error()}
	}
	return res.Data, nil
}

// runFingerprinting is phase 2: for every discovered service, submit a
// fingerprinter if one matches; merge results back in input order.
// Individual fingerprinter failures never fail the phase — the original
// service survives.
func (w *Workflow) runFingerprinting(ctx context.Context, portReport netmodel.PortScanningReport) netmodel.ReconnaissanceReport {
	futures := make([]*engine.Future[netmodel.FingerprintingReport], len(portReport.Services))

	for i, svc := range portReport.Services {
		match, ok := w.manager.GetServiceFingerprinter(svc)
		if !ok {
			continue
		}
		target := portReport.Target
		svcCopy := svc
		futures[i] = engine.Execute(ctx, w.engine, engine.WorkUnit[netmodel.FingerprintingReport]{
			Descriptor: match.Descriptor,
			Run: func(c context.Context) (netmodel.FingerprintingReport, error) {
				return match.Plugin.Fingerprint(c, target, svcCopy)
			},
		})
	}

	enriched := make([]netmodel.NetworkService, len(portReport.Services))
	for i, svc := range portReport.Services {
		if futures[i] == nil {
			enriched[i] = svc
			continue
		}
		res, err := futures[i].Await(ctx)
		if err != nil || res.Status != engine.Succeeded {
			enriched[i] = svc
			continue
		}
		enriched[i] = res.Data.Service
	}

	return netmodel.ReconnaissanceReport{Target: portReport.Target, Services: enriched}
}

// runWebServiceEnrichment is phase 3: any web-identified service without an
// application root gets the default (or the URI-derived one).
func (w *Workflow) runWebServiceEnrichment(report *netmodel.ReconnaissanceReport, uriRoot string) {
	root := DefaultApplicationRoot
	if uriRoot != "" {
		root = uriRoot
	}

	for i := range report.Services {
		svc := &report.Services[i]
		if !matcher.IsWebService(svc.ServiceName) {
			continue
		}
		if svc.Context != nil && svc.Context.WebService != nil && svc.Context.WebService.ApplicationRoot != "" {
			continue
		}
		if svc.Context == nil {
			svc.Context = &netmodel.ServiceContext{}
		}
		svc.Context.WebService = &netmodel.WebServiceContext{ApplicationRoot: root}
	}
}

// runVulnDetection is phase 4: submit every applicable detector in
// parallel, flatten findings, and derive the final status per spec §4.5.
func (w *Workflow) runVulnDetection(ctx context.Context, report netmodel.ReconnaissanceReport, include, exclude []string) ([]netmodel.ScanFinding, netmodel.ScanStatus, string) {
	detectors := w.manager.GetVulnDetectors(report, include, exclude)
	if len(detectors) == 0 {
		return nil, netmodel.StatusSucceeded, ""
	}

	futures := make([]*engine.Future[[]netmodel.DetectionReport], len(detectors))
	for i, d := range detectors {
		d := d
		futures[i] = engine.Execute(ctx, w.engine, engine.WorkUnit[[]netmodel.DetectionReport]{
			Descriptor: d.Descriptor,
			Run: func(c context.Context) ([]netmodel.DetectionReport, error) {
				if d.IsRemote() {
					return d.Remote.Detect(c, report, d.SubMatches)
				}
				return d.Detector.Detect(c, report, d.Matched)
			},
		})
	}

	var findings []netmodel.ScanFinding
	var failures int
	var causes *multierror.Error

	for i, d := range detectors {
		res, err := futures[i].Await(ctx)
		if err != nil {
			failures++
			causes = multierror.Append(causes, fmt.Errorf("%s: %w", d.Descriptor.Name, err))
			continue
		}
		if res.Status != engine.Succeeded {
			failures++
			causes = multierror.Append(causes, fmt.Errorf("%s: %w", d.Descriptor.Name, res.Err))
			continue
		}
		findings = append(findings, res.Data...)
	}

	switch {
	case failures == len(detectors):
		return findings, netmodel.StatusFailed, "All VulnDetectors failed."
	case failures > 0:
		return findings, netmodel.StatusPartiallySucceeded, causes.ErrorOrNil().Error()
	default:
		return findings, netmodel.StatusSucceeded, ""
	}
}
