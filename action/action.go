// Package action defines the Action plugin surface: the pluggable leaf
// unit of work the Workflow Executor runs, plus the global registry
// signals reference by name.
package action

import (
	"context"
	"time"

	"github.com/jidogo/runtime/core/directive"
)

// Outcome is what a successful Run produces: a result map merged into the
// caller's state, and an optional directive for the runtime to interpret.
// A nil Directive means a plain result; the error return covers the
// failure half, so every caller handles all four shapes exhaustively.
type Outcome struct {
	Result    map[string]any
	Directive *directive.Directive
}

// Action is an opaque handle to a pluggable unit of work.
type Action interface {
	// Name returns the identifier this action is registered under.
	Name() string

	// Run executes the action against params and context, returning a
	// result map and optionally a directive, or an error.
	Run(ctx context.Context, params, execContext map[string]any) (Outcome, error)
}

// ParamValidator is an optional capability: an Action that wants its
// params checked before Run is invoked implements this. strict mirrors
// the command-level "strict_validation" option: when true, the
// implementation should reject params keys it does not recognize, not
// just missing or malformed ones.
type ParamValidator interface {
	ValidateParams(params map[string]any, strict bool) error
}

// Compensator is an optional capability: an Action that supports
// compensation on terminal error implements this. OnError runs under its
// own timeout (Metadata().Compensation.Timeout) after retries are
// exhausted.
type Compensator interface {
	OnError(ctx context.Context, params map[string]any, cause error, execContext map[string]any) (map[string]any, error)
}

// MetadataProvider is an optional capability exposing static facts about
// an Action, such as whether compensation is enabled.
type MetadataProvider interface {
	Metadata() Metadata
}

// Metadata carries static facts about an Action beyond its Run signature.
type Metadata struct {
	Compensation CompensationMetadata
}

// CompensationMetadata controls whether and how OnError is invoked.
type CompensationMetadata struct {
	Enabled bool
	Timeout time.Duration
}

// MetadataOf returns a's Metadata if it implements MetadataProvider, or
// the zero value (compensation disabled) otherwise.
func MetadataOf(a Action) Metadata {
	if mp, ok := a.(MetadataProvider); ok {
		return mp.Metadata()
	}
	return Metadata{}
}
