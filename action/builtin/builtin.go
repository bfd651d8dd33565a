// Package builtin provides a small set of ready-to-register Actions for
// hosts that want a working chain runner without writing their own leaf
// actions first: a clock read plus filesystem read/list, the smallest
// useful starter set.
package builtin

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jidogo/runtime/action"
	"github.com/jidogo/runtime/core/kerr"
)

// Datetime returns the current time in RFC3339 under the "now" result key.
// It takes no params.
type Datetime struct{}

func (Datetime) Name() string { return "datetime" }

func (Datetime) Run(ctx context.Context, params, execContext map[string]any) (action.Outcome, error) {
	return action.Outcome{Result: map[string]any{"now": time.Now().Format(time.RFC3339)}}, nil
}

// ReadFile reads params["path"] and returns its contents under "contents".
type ReadFile struct{}

func (ReadFile) Name() string { return "read_file" }

func (ReadFile) Run(ctx context.Context, params, execContext map[string]any) (action.Outcome, error) {
	path, _ := params["path"].(string)
	if path == "" {
		return action.Outcome{}, kerr.New(kerr.ValidationError, "read_file: params.path is required", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return action.Outcome{}, kerr.Wrap(kerr.ExecutionError, "read_file", err, map[string]any{"path": path})
	}
	return action.Outcome{Result: map[string]any{"contents": string(data)}}, nil
}

// ListDirectory reads params["path"] and returns the entry names under
// "entries".
type ListDirectory struct{}

func (ListDirectory) Name() string { return "list_directory" }

func (ListDirectory) Run(ctx context.Context, params, execContext map[string]any) (action.Outcome, error) {
	path, _ := params["path"].(string)
	if path == "" {
		return action.Outcome{}, kerr.New(kerr.ValidationError, "list_directory: params.path is required", nil)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return action.Outcome{}, kerr.Wrap(kerr.ExecutionError, "list_directory", err, map[string]any{"path": path})
	}
	names := make([]any, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return action.Outcome{Result: map[string]any{"entries": names}}, nil
}

// RegisterAll registers every builtin action, returning the first
// registration error encountered (an action is normally registered once,
// at process startup, so a conflict signals a programming error in the
// caller rather than something worth partially recovering from).
func RegisterAll() error {
	for _, a := range []action.Action{Datetime{}, ReadFile{}, ListDirectory{}} {
		if err := action.Register(a); err != nil {
			return fmt.Errorf("builtin: register %s: %w", a.Name(), err)
		}
	}
	return nil
}
