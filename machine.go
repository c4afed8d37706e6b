// Copyright 2024 The Loom Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package loom implements a step-able interpreter for compiled
// branching-dialogue scripts. The host drives it one call at a time: Advance
// returns the next observable event (a line, a set of options, a command, or
// completion), and SelectOption resumes it after an options event.
package loom // import "github.com/loomlang/loom"

import (
	"fmt"
	"strings"
)

// State enumerates the interpreter's externally visible states.
type State int32

const (
	// Start has not been called.
	StateNotStarted State = iota

	// The interpreter can be advanced.
	StateRunning

	// An OptionsEvent was delivered; SelectOption must be called before the
	// interpreter can be advanced again.
	StateAwaitingSelection

	// A DialogueCompleteEvent was delivered. Only Start leaves this state.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateRunning:
		return "Running"
	case StateAwaitingSelection:
		return "AwaitingSelection"
	case StateComplete:
		return "Complete"
	}
	return fmt.Sprintf("(invalid State %d)", int(s))
}

// Interpreter walks a Script as a pull-based state machine. It holds no
// timers and performs no I/O; between calls its state is frozen. One
// interpreter drives one dialogue stream - hosts wanting concurrent dialogues
// give each its own Interpreter and VariableStorage.
type Interpreter struct {
	// Script to execute.
	Script *Script

	// Variable storage. If nil, Start installs an empty MapVariableStorage.
	// Pass a pre-seeded store to carry values in from a previous session.
	Vars VariableStorage

	// BCP 47 language tag used for format functions in line text.
	// Defaults to "en".
	LangCode string

	// TraceLogf, if set, receives a line per statement processed.
	TraceLogf func(format string, args ...any)

	state   State
	cursor  cursor
	node    *Node     // node the cursor is in
	pending []*Option // eligible options awaiting selection
	interp  *Interpolator
}

// State reports the interpreter's current state.
func (in *Interpreter) State() State { return in.state }

// NodeName reports the title of the node the cursor is in, or "" before
// Start.
func (in *Interpreter) NodeName() string {
	if in.node == nil {
		return ""
	}
	return in.node.Title
}

// Start positions the interpreter at the first statement of the named node
// and transitions to Running. It may be called in any state; variable values
// survive a restart.
func (in *Interpreter) Start(title string) error {
	if in.Script == nil || len(in.Script.Nodes) == 0 {
		return ErrMissingScript
	}
	node, err := in.Script.Node(title)
	if err != nil {
		return err
	}
	if in.Vars == nil {
		in.Vars = NewMapVariableStorage()
	}
	if in.interp == nil || in.interp.Vars != in.Vars {
		lang := in.LangCode
		if lang == "" {
			lang = "en"
		}
		ip, err := NewInterpolator(in.Vars, lang)
		if err != nil {
			return err
		}
		in.interp = ip
	}
	in.node = node
	in.cursor = cursor{frames: []frame{{body: node.Body}}}
	in.pending = nil
	in.state = StateRunning
	return nil
}

// Advance processes statements from the cursor until one produces an event.
// Declarations, assignments, jumps, conditionals, and option blocks with no
// eligible options are consumed silently within the same call. Advance is
// only valid in the Running state. On error the cursor and state are left as
// they were before the call.
func (in *Interpreter) Advance() (Event, error) {
	if in.state != StateRunning {
		return nil, StateMismatchErr{Got: in.state, Want: StateRunning}
	}
	saved, savedNode := in.cursor.clone(), in.node
	ev, err := in.drain()
	if err != nil {
		in.cursor, in.node = saved, savedNode
		return nil, fmt.Errorf("node %q: %w", savedNode.Title, err)
	}
	return ev, nil
}

// SelectOption resumes the interpreter after an OptionsEvent, choosing the
// eligible option with the given index. It transitions back to Running; the
// next Advance continues in the option's nested body, at its jump target, or
// past the option block.
func (in *Interpreter) SelectOption(index int) error {
	if in.state != StateAwaitingSelection {
		return StateMismatchErr{Got: in.state, Want: StateAwaitingSelection}
	}
	if index < 0 || index >= len(in.pending) {
		return fmt.Errorf("%w: %d outside [0, %d)", ErrInvalidOptionIndex, index, len(in.pending))
	}
	opt := in.pending[index]
	in.tracef("%s select %d %q", in.node.Title, index, opt.Text)
	switch {
	case len(opt.Body) > 0:
		in.cursor.push(opt.Body)
	case opt.Target != "":
		if err := in.jumpTo(opt.Target); err != nil {
			return err
		}
	}
	in.pending = nil
	in.state = StateRunning
	return nil
}

// drain is the interpreter's inner loop: it consumes silent statements until
// it reaches a suspension point or an error.
func (in *Interpreter) drain() (Event, error) {
	for {
		st, ok := in.cursor.next()
		if !ok {
			// Node body exhausted with no jump: the dialogue is complete.
			in.tracef("%s complete", in.node.Title)
			in.state = StateComplete
			return DialogueCompleteEvent{Node: in.node.Title}, nil
		}
		in.tracef("%s %s", in.node.Title, FormatStatement(st))
		switch s := st.(type) {
		case *LineStmt:
			text, err := in.interp.Render(s.Text)
			if err != nil {
				return nil, err
			}
			return LineEvent{Text: text}, nil

		case *CommandStmt:
			handled, err := in.execReservedCommand(s)
			if err != nil {
				return nil, fmt.Errorf("command %s: %w", s.Name, err)
			}
			if handled {
				continue
			}
			return CommandEvent{Name: s.Name, Args: append([]string(nil), s.Args...)}, nil

		case *DeclareStmt:
			if err := in.Vars.Declare(s.Name, s.Type, s.Default); err != nil {
				return nil, err
			}

		case *SetStmt:
			v, err := s.Expr.Evaluate(in.Vars)
			if err != nil {
				return nil, err
			}
			if err := in.Vars.SetValue(s.Name, v); err != nil {
				return nil, err
			}

		case *JumpStmt:
			if err := in.jumpTo(s.Target); err != nil {
				return nil, err
			}

		case *IfStmt:
			for _, br := range s.Branches {
				if br.Cond != nil {
					b, err := br.Cond.EvaluateBool(in.Vars)
					if err != nil {
						return nil, err
					}
					if !b {
						continue
					}
				}
				in.cursor.push(br.Body)
				break
			}

		case *OptionsStmt:
			eligible, views, err := in.filterOptions(s)
			if err != nil {
				return nil, err
			}
			if len(eligible) == 0 {
				// Nothing to offer; skip the whole block.
				continue
			}
			in.pending = eligible
			in.state = StateAwaitingSelection
			return OptionsEvent{Options: views}, nil

		default:
			return nil, fmt.Errorf("invalid statement type %T", st)
		}
	}
}

// filterOptions evaluates guards and renders display text for the eligible
// subset. Indices are assigned to the filtered subset, so the host's
// numbering only counts options that are shown.
func (in *Interpreter) filterOptions(s *OptionsStmt) ([]*Option, []OptionView, error) {
	var eligible []*Option
	var views []OptionView
	for i := range s.Options {
		opt := &s.Options[i]
		if opt.Guard != nil {
			b, err := opt.Guard.EvaluateBool(in.Vars)
			if err != nil {
				return nil, nil, fmt.Errorf("option guard: %w", err)
			}
			if !b {
				continue
			}
		}
		text, err := in.interp.Render(opt.Text)
		if err != nil {
			return nil, nil, err
		}
		views = append(views, OptionView{Index: len(eligible), Text: text})
		eligible = append(eligible, opt)
	}
	return eligible, views, nil
}

func (in *Interpreter) jumpTo(title string) error {
	node, err := in.Script.Node(title)
	if err != nil {
		return err
	}
	in.tracef("%s jump -> %s", in.node.Title, title)
	in.node = node
	in.cursor = cursor{frames: []frame{{body: node.Body}}}
	return nil
}

// Reserved command names the interpreter executes itself instead of emitting
// a CommandEvent. "set" and "declare" are inline assignment forms; scripts
// whose compiler already lowers them to Set/Declare statements never hit
// this path.
func (in *Interpreter) execReservedCommand(s *CommandStmt) (bool, error) {
	switch s.Name {
	case "set":
		return true, in.execSetCommand(s.Args)
	case "declare":
		return true, in.execDeclareCommand(s.Args)
	}
	return false, nil
}

// parseAssignment splits command args of the form `$var = expression` (the
// "=" may also be written "to", or omitted) and evaluates the expression.
func (in *Interpreter) parseAssignment(args []string) (string, any, error) {
	if len(args) < 2 {
		return "", nil, fmt.Errorf("want $var = expression, got %q", strings.Join(args, " "))
	}
	name := args[0]
	if !strings.HasPrefix(name, "$") {
		return "", nil, fmt.Errorf("want variable name starting with $, got %q", name)
	}
	rest := args[1:]
	if rest[0] == "=" || rest[0] == "to" {
		rest = rest[1:]
	}
	expr, err := ParseExpression(strings.Join(rest, " "))
	if err != nil {
		return "", nil, err
	}
	v, err := expr.Evaluate(in.Vars)
	if err != nil {
		return "", nil, err
	}
	return name, v, nil
}

func (in *Interpreter) execSetCommand(args []string) error {
	name, v, err := in.parseAssignment(args)
	if err != nil {
		return err
	}
	return in.Vars.SetValue(name, v)
}

func (in *Interpreter) execDeclareCommand(args []string) error {
	name, v, err := in.parseAssignment(args)
	if err != nil {
		return err
	}
	typ, err := TypeOf(v)
	if err != nil {
		return err
	}
	return in.Vars.Declare(name, typ, v)
}

func (in *Interpreter) tracef(format string, args ...any) {
	if in.TraceLogf == nil {
		return
	}
	in.TraceLogf(format, args...)
}

// cursor is the live execution position: a stack of statement frames. The
// bottom frame is a node body; frames above it are nested bodies (conditional
// branches, option bodies) within the same node. A jump replaces the whole
// stack.
type cursor struct {
	frames []frame
}

type frame struct {
	body []Statement
	idx  int
}

// next returns the statement under the cursor and advances past it, popping
// exhausted frames. ok is false when every frame is exhausted.
func (c *cursor) next() (Statement, bool) {
	for len(c.frames) > 0 {
		f := &c.frames[len(c.frames)-1]
		if f.idx < len(f.body) {
			st := f.body[f.idx]
			f.idx++
			return st, true
		}
		c.frames = c.frames[:len(c.frames)-1]
	}
	return nil, false
}

func (c *cursor) push(body []Statement) {
	c.frames = append(c.frames, frame{body: body})
}

// clone copies the cursor so a failed Advance can be rolled back.
func (c *cursor) clone() cursor {
	return cursor{frames: append([]frame(nil), c.frames...)}
}
