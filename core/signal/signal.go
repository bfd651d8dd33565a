// Package signal defines the Signal and Instruction envelopes that flow
// through an agent's server: the immutable unit of work the Executor
// dequeues, and the (action, params) pairs a command signal carries for
// the Chain Runner to execute.
package signal

import (
	"fmt"
	"sync/atomic"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Signal is an immutable envelope carrying either a command, a directive,
// or an event. Once constructed, a Signal's fields are never mutated; the
// Executor dequeues it exactly once and discards it after its terminal
// event.
type Signal struct {
	ID           string
	Type         string
	Source       string
	Subject      string
	Data         *structpb.Struct
	Instructions []Instruction
	Opts         *structpb.Struct

	// Directive carries the structured control value for a
	// "jido.agent.cmd.directive.*" signal. It is typed any rather than
	// *directive.Directive because core/directive already imports this
	// package for Instruction; only the runtime package, which imports
	// both, type-asserts it back.
	Directive any
}

// Instruction is a single (action, params) pair, the smallest unit of work
// the Workflow Executor runs. Context carries ambient values (e.g. the
// agent's state) injected by the Chain Runner; Opts carries per-instruction
// workflow options (timeout, max_retries, backoff, telemetry).
type Instruction struct {
	Action  string
	Params  *structpb.Struct
	Context *structpb.Struct
	Opts    *structpb.Struct
}

// seq disambiguates IDs generated within the same nanosecond, which happens
// routinely under test and under bursts of signal creation.
var seq atomic.Uint64

// NewID returns an identifier of the form "<agentId>_<nanosecondTimestamp>".
// A counter (modulo 1000) is always appended directly after the timestamp
// digits, since UnixNano is not guaranteed unique at Go's usual scheduling
// granularity.
func NewID(agentID string) string {
	return fmt.Sprintf("%s_%d%d", agentID, time.Now().UnixNano(), seq.Add(1)%1000)
}

// New constructs a Signal, validating its type against the grammar and
// assigning a fresh ID sourced from agentID. data and opts may be nil.
func New(agentID, typ, subject string, data map[string]any, instructions []Instruction, opts map[string]any) (Signal, error) {
	if err := ValidateType(typ); err != nil {
		return Signal{}, err
	}

	dataStruct, err := toStruct(data)
	if err != nil {
		return Signal{}, fmt.Errorf("signal: invalid data: %w", err)
	}

	optsStruct, err := toStruct(opts)
	if err != nil {
		return Signal{}, fmt.Errorf("signal: invalid opts: %w", err)
	}

	return Signal{
		ID:           NewID(agentID),
		Type:         typ,
		Source:       EventSource(agentID),
		Subject:      subject,
		Data:         dataStruct,
		Instructions: instructions,
		Opts:         optsStruct,
	}, nil
}

// Kind classifies this signal by its Type.
func (s Signal) Kind() Kind {
	return Classify(s.Type)
}

// DataMap returns Data as a plain map, or an empty map if Data is nil.
func (s Signal) DataMap() map[string]any {
	return fromStruct(s.Data)
}

// OptsMap returns Opts as a plain map, or an empty map if Opts is nil.
func (s Signal) OptsMap() map[string]any {
	return fromStruct(s.Opts)
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	if m == nil {
		return nil, nil
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s.AsMap()
}

// NewInstruction builds an Instruction, converting params, context, and
// opts from plain maps into the bounded structpb representation. Each
// argument may be nil.
func NewInstruction(action string, params, context, opts map[string]any) (Instruction, error) {
	p, err := toStruct(params)
	if err != nil {
		return Instruction{}, fmt.Errorf("instruction: invalid params: %w", err)
	}
	c, err := toStruct(context)
	if err != nil {
		return Instruction{}, fmt.Errorf("instruction: invalid context: %w", err)
	}
	o, err := toStruct(opts)
	if err != nil {
		return Instruction{}, fmt.Errorf("instruction: invalid opts: %w", err)
	}
	return Instruction{Action: action, Params: p, Context: c, Opts: o}, nil
}

// ParamsMap returns Params as a plain map, or an empty map if Params is nil.
func (i Instruction) ParamsMap() map[string]any {
	return fromStruct(i.Params)
}

// ContextMap returns Context as a plain map, or an empty map if Context is nil.
func (i Instruction) ContextMap() map[string]any {
	return fromStruct(i.Context)
}

// OptsMap returns Opts as a plain map, or an empty map if Opts is nil.
func (i Instruction) OptsMap() map[string]any {
	return fromStruct(i.Opts)
}

// MergeMaps overlays override's keys onto base and returns the result.
// base is not mutated; override wins on key collision.
func MergeMaps(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// NewDirectiveSignal builds a "jido.agent.cmd.directive.<kind>" signal
// whose Directive field carries d (typically a *directive.Directive) for
// the Directive Path to extract via a type assertion.
func NewDirectiveSignal(agentID, kind string, d any) (Signal, error) {
	sig, err := New(agentID, directivePrefix+kind, kind, nil, nil, nil)
	if err != nil {
		return Signal{}, err
	}
	sig.Directive = d
	return sig, nil
}

// ToCommandSignal materializes a pending instruction as a fresh
// "jido.agent.cmd.run" signal: each instruction an agent leaves pending
// becomes a new command signal enqueued at the tail of the server's
// queue.
func ToCommandSignal(agentID string, instr Instruction) Signal {
	return Signal{
		ID:           NewID(agentID),
		Type:         cmdPrefix + "run",
		Source:       EventSource(agentID),
		Subject:      instr.Action,
		Instructions: []Instruction{instr},
	}
}
