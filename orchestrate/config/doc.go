// Package config provides configuration structures for the runtime's
// orchestration components: the signal bus, the instruction chain runner,
// and the single-action workflow executor.
//
// # Default Configuration
//
// Every config type exposes a DefaultXConfig constructor:
//
//	cfg := config.DefaultWorkflowConfig()
//	// Timeout: 5s
//	// MaxRetries: 1
//	// Observer: "slog"
//
// # Configuration Merging
//
// All configuration types support a Merge pattern: a loaded, possibly
// partial, config is merged over a set of defaults.
//
//	cfg := config.DefaultWorkflowConfig()
//	var loaded config.WorkflowConfig
//	json.Unmarshal(data, &loaded)
//	cfg.Merge(&loaded)
//
// Merge semantics by field type:
//
//   - Strings: merge if source is non-empty
//   - Integers/Durations: merge if source is greater than zero
//   - Pointers: merge if source is non-nil
//   - Nested configs: recursive merge
//
// # Boolean fields with non-false defaults
//
// For boolean fields whose default is true, the convention is a pointer
// type with a "Nil"-suffixed field name plus an accessor method, so a
// config loaded from partial JSON can distinguish "unset" (use the
// default) from "explicitly false":
//
//	type SomeConfig struct {
//	    FailFastNil *bool `json:"fail_fast"`
//	}
//
//	func (c *SomeConfig) FailFast() bool {
//	    if c.FailFastNil == nil {
//	        return true
//	    }
//	    return *c.FailFastNil
//	}
//
// Without the pointer, an omitted JSON field unmarshals to the zero value
// and silently overrides a true default. None of the current config types
// needs this (their boolean defaults are all false), but loaded configs
// should follow it when one does.
//
// Configuration only exists during initialization; it is resolved into
// concrete observers, timeouts, and buffer sizes at the point components
// are constructed, and does not persist into runtime state.
package config
