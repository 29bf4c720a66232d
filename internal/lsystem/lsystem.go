// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lsystem expands an L-system sentence and interprets its symbols
// as turtle commands that append branches and leaves to a caller-owned
// Geometry.
//
// Expansion and interpretation are interleaved: symbols are visited left
// to right, a symbol with a rule is replaced by a recursive run one level
// deeper, and a symbol without one is interpreted on the spot. Once the
// depth ceiling is reached every symbol is interpreted, rule or not.
package lsystem

import (
	"log/slog"
	"strings"

	"github.com/pdiddy/lsystem-engine/internal/logging"
	"github.com/pdiddy/lsystem-engine/internal/turtle"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// Diagnostics counts the inputs the interpreter tolerated rather than
// rejected. Counters cover every run since the interpreter was created.
type Diagnostics struct {
	// Commands is the number of symbols interpreted.
	Commands int `json:"commands" yaml:"commands"`

	// IgnoredSymbols counts interpreted symbols with no command.
	IgnoredSymbols int `json:"ignored_symbols" yaml:"ignored_symbols"`

	// UnmatchedPops counts ] with nothing to restore.
	UnmatchedPops int `json:"unmatched_pops" yaml:"unmatched_pops"`

	// RejectedWidths counts * commands whose result was not positive.
	RejectedWidths int `json:"rejected_widths" yaml:"rejected_widths"`

	// UnclosedPushes counts [ opened by this interpreter's runs and still
	// open when the last run returned. A later run may close them.
	UnclosedPushes int `json:"unclosed_pushes" yaml:"unclosed_pushes"`

	// DeepestLevel is the deepest recursion level that interpreted a symbol.
	DeepestLevel uint `json:"deepest_level" yaml:"deepest_level"`
}

// Lenient reports whether any malformed input was tolerated.
func (d Diagnostics) Lenient() bool {
	return d.UnmatchedPops > 0 || d.RejectedWidths > 0 || d.UnclosedPushes > 0
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger routes leniency events to log.
func WithLogger(log *slog.Logger) Option {
	return func(in *Interpreter) {
		if log != nil {
			in.log = log
		}
	}
}

// WithAgent drives an existing agent instead of a fresh one.
func WithAgent(a *turtle.Agent) Option {
	return func(in *Interpreter) {
		if a != nil {
			in.agent = a
		}
	}
}

// Interpreter rewrites sentences and commands a turtle. It is not safe for
// concurrent use; parallel runs each need their own Interpreter and
// Geometry.
type Interpreter struct {
	cfg   types.GenerationConfig
	rules types.Rules
	agent *turtle.Agent
	out   *types.Geometry
	log   *slog.Logger
	diag  Diagnostics

	// baseDepth is the agent stack depth at New.
	baseDepth int
}

// New returns an interpreter that appends primitives to out. The caller
// keeps ownership of out; the interpreter only appends to its slices.
func New(cfg types.GenerationConfig, rules types.Rules, out *types.Geometry, opts ...Option) *Interpreter {
	in := &Interpreter{
		cfg:   cfg,
		rules: rules,
		agent: turtle.New(),
		out:   out,
		log:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.baseDepth = in.agent.Depth()
	return in
}

// Config returns the generation constants.
func (in *Interpreter) Config() types.GenerationConfig { return in.cfg }

// Agent returns the turtle driven by the interpreter.
func (in *Interpreter) Agent() *turtle.Agent { return in.agent }

// Diagnostics returns the counters accumulated so far.
func (in *Interpreter) Diagnostics() Diagnostics { return in.diag }

// Run expands and interprets sentence starting at depth 0.
func (in *Interpreter) Run(sentence string) {
	in.RunAt(sentence, 0)
}

// RunAt expands and interprets sentence as if it were found depth levels
// into the rewriting tree.
func (in *Interpreter) RunAt(sentence string, depth uint) {
	walk(in.rules, in.cfg.MaxDepth, sentence, depth, func(c byte, level uint) {
		if level > in.diag.DeepestLevel {
			in.diag.DeepestLevel = level
		}
		in.Process(c)
	})
	in.diag.UnclosedPushes = max(in.agent.Depth()-in.baseDepth, 0)
	if in.diag.UnclosedPushes > 0 {
		in.log.Warn("unclosed push at end of run", "depth", in.diag.UnclosedPushes)
	}
}

// Yield returns the terminal symbols Run would interpret for sentence, in
// order, without moving the turtle or emitting primitives.
func (in *Interpreter) Yield(sentence string) string {
	var sb strings.Builder
	walk(in.rules, in.cfg.MaxDepth, sentence, 0, func(c byte, _ uint) {
		sb.WriteByte(c)
	})
	return sb.String()
}

// walk visits the depth-first terminal yield of sentence. Below maxDepth a
// symbol with a rule recurses into its replacement one level deeper; at
// or beyond maxDepth every symbol is visited as-is.
func walk(rules types.Rules, maxDepth uint, sentence string, depth uint, visit func(c byte, depth uint)) {
	if depth >= maxDepth {
		for i := 0; i < len(sentence); i++ {
			visit(sentence[i], depth)
		}
		return
	}
	for i := 0; i < len(sentence); i++ {
		c := sentence[i]
		if repl, ok := rules[c]; ok {
			walk(rules, maxDepth, repl, depth+1, visit)
			continue
		}
		visit(c, depth)
	}
}
