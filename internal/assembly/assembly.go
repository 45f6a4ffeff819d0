// Package assembly wires the registry, execution engine, plugin manager,
// and scan workflow together from explicit constructor calls — the
// dependency-injection-container replacement SPEC_FULL.md §9 calls for.
// Production code uses New (the built-in plugin set); NewWithRegistry
// builds one over any caller-supplied registry, e.g. one holding fakes.
package assembly

import (
	"golang.org/x/time/rate"

	"github.com/ironclad-labs/vulnscan/internal/builtin"
	"github.com/ironclad-labs/vulnscan/internal/config"
	"github.com/ironclad-labs/vulnscan/internal/engine"
	"github.com/ironclad-labs/vulnscan/internal/logging"
	"github.com/ironclad-labs/vulnscan/internal/manager"
	"github.com/ironclad-labs/vulnscan/internal/registry"
	"github.com/ironclad-labs/vulnscan/internal/workflow"
)

// Assembly is the fully-wired set of collaborators cmd/vulnscan drives.
type Assembly struct {
	Registry *registry.Registry
	Engine   *engine.Engine
	Manager  *manager.Manager
	Workflow *workflow.Workflow
}

// New builds the default Assembly: the registry populated with
// internal/builtin's plugins, an engine configured from cfg, and the
// manager/workflow layered on top.
func New(cfg config.EngineConfig) (*Assembly, error) {
	reg, err := buildRegistry()
	if err != nil {
		return nil, err
	}
	return NewWithRegistry(reg, cfg), nil
}

// NewWithRegistry builds an Assembly over a caller-supplied registry —
// production code uses internal/builtin's plugins; tests substitute fakes.
func NewWithRegistry(reg *registry.Registry, cfg config.EngineConfig) *Assembly {
	var limiter *rate.Limiter
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = engine.DefaultTimeout
	}

	eng := engine.New(cfg.PoolSize, timeout, limiter, logging.New("execution_engine"))
	mgr := manager.New(reg)
	wf := workflow.New(mgr, eng, logging.New("scan_workflow"))

	return &Assembly{Registry: reg, Engine: eng, Manager: mgr, Workflow: wf}
}

func buildRegistry() (*registry.Registry, error) {
	scanner := builtin.NewTCPConnectScanner()
	fingerprinter := builtin.NewBannerFingerprinter()
	detector := builtin.NewVersionAdvisoryDetector()
	remote := builtin.NewAggregatingRemoteDetector()

	return registry.NewBuilder().
		AddPortScanner(scanner.Descriptor(), scanner).
		AddFingerprinter(fingerprinter.Descriptor(), fingerprinter).
		AddDetector(detector.Descriptor(), detector).
		AddRemoteDetector(remote.Descriptor(), remote).
		Build()
}

// DefaultEngineConfig is an EngineConfig to pass to New when the caller has
// no environment-derived configuration (e.g. quick test setups); New itself
// always uses the cfg it is given.
func DefaultEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		PoolSize: engine.DefaultPoolSize(),
		Timeout:  engine.DefaultTimeout,
		Deadline: 0,
	}
}
