// Package vserrors defines the typed error kinds the core raises, per
// spec §7. Each is a plain value type implementing error so callers can
// use errors.As to recover structured fields.
package vserrors

import (
	"errors"
	"fmt"
	"time"
)

// DuplicatePluginName is a fatal registry-construction error: two
// descriptors were registered under the same name.
type DuplicatePluginName struct {
	Name string
}

func (e DuplicatePluginName) Error() string {
	return fmt.Sprintf("duplicate plugin name: %q", e.Name)
}

// PluginNotFound describes a descriptor lookup miss. Registry.ByName
// reports a miss with a boolean and does not return this error.
type PluginNotFound struct {
	Name string
}

func (e PluginNotFound) Error() string {
	return fmt.Sprintf("plugin not found: %q", e.Name)
}

// PluginExecutionFailed wraps a plugin's thrown/returned error. The engine
// applies this wrapper to any error that isn't already one of the engine's
// own error kinds.
type PluginExecutionFailed struct {
	Name  string
	Cause error
}

func (e PluginExecutionFailed) Error() string {
	return fmt.Sprintf("plugin %q execution failed: %v", e.Name, e.Cause)
}

func (e PluginExecutionFailed) Unwrap() error {
	return e.Cause
}

// TimeoutExceeded is returned when a plugin exceeds its per-execution
// timeout.
type TimeoutExceeded struct {
	Name  string
	Limit time.Duration
}

func (e TimeoutExceeded) Error() string {
	return fmt.Sprintf("plugin %q exceeded timeout of %s", e.Name, e.Limit)
}

// ScanWorkflowFailure is a phase-level failure that short-circuits the
// whole scan (currently only possible from the port-scan phase).
type ScanWorkflowFailure struct {
	Phase  string
	Reason string
}

func (e ScanWorkflowFailure) Error() string {
	return fmt.Sprintf("scan workflow failed in phase %q: %s", e.Phase, e.Reason)
}

// InvalidArgument is a CLI validation error.
type InvalidArgument struct {
	Flag   string
	Reason string
}

func (e InvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument --%s: %s", e.Flag, e.Reason)
}

// IsExecutionFailure reports whether err is already a PluginExecutionFailed
// or TimeoutExceeded, i.e. whether the engine should avoid double-wrapping it.
func IsExecutionFailure(err error) bool {
	var execErr PluginExecutionFailed
	var timeoutErr TimeoutExceeded
	return errors.As(err, &execErr) || errors.As(err, &timeoutErr)
}
