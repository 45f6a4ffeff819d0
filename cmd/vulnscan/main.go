package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironclad-labs/vulnscan/internal/advisory"
	"github.com/ironclad-labs/vulnscan/internal/assembly"
	"github.com/ironclad-labs/vulnscan/internal/config"
	"github.com/ironclad-labs/vulnscan/internal/netmodel"
	"github.com/ironclad-labs/vulnscan/internal/vserrors"
	"github.com/ironclad-labs/vulnscan/internal/workflow"
)

// Exit codes per spec §6: 0 SUCCEEDED, 1 FAILED, 2 PARTIALLY_SUCCEEDED, 64
// argument validation failure.
const (
	exitSucceeded         = 0
	exitFailed            = 1
	exitPartiallySucceeded = 2
	exitInvalidArgument    = 64
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		ipv4Target        string
		ipv6Target        string
		hostnameTarget    string
		uriTarget         string
		detectorsInclude  string
		detectorsExclude  string
		dumpAdvisoriesPath string
	)

	cmd := &cobra.Command{
		Use:   "vulnscan",
		Short: "Run the network vulnerability scanner plugin orchestration engine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dumpAdvisoriesPath != "" {
				return dumpAdvisories(dumpAdvisoriesPath)
			}
			return runScan(cmd.Context(), config.TargetFlags{
				IPv4Target:     ipv4Target,
				IPv6Target:     ipv6Target,
				HostnameTarget: hostnameTarget,
				URITarget:      uriTarget,
			}, splitNames(detectorsInclude), splitNames(detectorsExclude))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&ipv4Target, "ip-v4-target", "", "Scan this IPv4 address.")
	flags.StringVar(&ipv6Target, "ip-v6-target", "", "Scan this IPv6 address.")
	flags.StringVar(&hostnameTarget, "hostname-target", "", "Scan this hostname.")
	flags.StringVar(&uriTarget, "uri-target", "", "Scan this URL; derives hostname, port, scheme, and path.")
	flags.StringVar(&detectorsInclude, "detectors-include", "", "Comma-separated whitelist of detector descriptor names.")
	flags.StringVar(&detectorsExclude, "detectors-exclude", "", "Comma-separated blacklist of detector descriptor names.")
	flags.StringVar(&dumpAdvisoriesPath, "dump-advisories", "", "Write every registered detector's advisories to PATH and exit; no scan is performed.")

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr exitError
		if ok := asExitError(err, &exitErr); ok {
			return exitErr.code
		}
		if _, ok := err.(vserrors.InvalidArgument); ok {
			return exitInvalidArgument
		}
		return exitFailed
	}
	return exitSucceeded
}

func asExitError(err error, target *exitError) bool {
	if ee, ok := err.(exitError); ok {
		*target = ee
		return true
	}
	return false
}

func splitNames(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dumpAdvisories(path string) error {
	cfg := assembly.DefaultEngineConfig()
	asm, err := assembly.New(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return vserrors.InvalidArgument{Flag: "dump-advisories", Reason: err.Error()}
	}
	defer f.Close()

	return advisory.WriteDump(f, asm.Registry.AllAdvisories())
}

func runScan(ctx context.Context, flags config.TargetFlags, include, exclude []string) error {
	built, err := config.BuildTarget(ctx, flags)
	if err != nil {
		return err
	}

	engineCfg := config.LoadEngineConfig()
	asm, err := assembly.New(engineCfg)
	if err != nil {
		return err
	}

	results := asm.Workflow.Run(ctx, built.Target, workflow.RunOptions{
		Include:      include,
		Exclude:      exclude,
		Deadline:     engineCfg.Deadline,
		SeedServices: built.SeedServices,
	})

	printResults(results)

	switch results.Status {
	case netmodel.StatusSucceeded:
		return nil
	case netmodel.StatusPartiallySucceeded:
		return exitError{code: exitPartiallySucceeded, message: results.StatusMessage}
	default:
		return exitError{code: exitFailed, message: results.StatusMessage}
	}
}

// exitError carries a non-InvalidArgument, non-zero exit code back through
// cobra's RunE without cobra printing its own generic failure message.
type exitError struct {
	code    int
	message string
}

func (e exitError) Error() string { return e.message }

func printResults(results *netmodel.ScanResults) {
	fmt.Printf("scan_id: %s\n", results.ScanID)
	fmt.Printf("status: %s\n", results.Status)
	if results.StatusMessage != "" {
		fmt.Printf("status_message: %s\n", results.StatusMessage)
	}
	fmt.Printf("duration: %s\n", results.Duration)
	fmt.Printf("services discovered: %d\n", len(results.Reconnaissance.Services))
	fmt.Printf("findings: %d\n", len(results.Findings))
	for _, finding := range results.Findings {
		fmt.Printf("  - %s: %s (%s)\n", finding.Vulnerability.MainID.Value, finding.Vulnerability.Title, finding.Vulnerability.Severity)
	}
}
