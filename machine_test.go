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

package loom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mustScript builds a script the way the loader does, failing the test on
// invalid node references.
func mustScript(t *testing.T, nodes ...*Node) *Script {
	t.Helper()
	s, err := NewScript(nodes)
	if err != nil {
		t.Fatalf("NewScript = error %v", err)
	}
	return s
}

func mustAdvance(t *testing.T, in *Interpreter) Event {
	t.Helper()
	ev, err := in.Advance()
	if err != nil {
		t.Fatalf("Advance() = error %v", err)
	}
	return ev
}

func wantLine(t *testing.T, in *Interpreter, want string) {
	t.Helper()
	ev, ok := mustAdvance(t, in).(LineEvent)
	if !ok {
		t.Fatalf("Advance() = %T, want LineEvent", ev)
	}
	if ev.Text != want {
		t.Errorf("LineEvent.Text = %q, want %q", ev.Text, want)
	}
}

func wantOptions(t *testing.T, in *Interpreter, want []OptionView) OptionsEvent {
	t.Helper()
	ev, ok := mustAdvance(t, in).(OptionsEvent)
	if !ok {
		t.Fatalf("Advance() = %T, want OptionsEvent", ev)
	}
	if diff := cmp.Diff(ev.Options, want); diff != "" {
		t.Errorf("OptionsEvent.Options diff (-got +want):\n%s", diff)
	}
	return ev
}

func TestStartUnknownNode(t *testing.T) {
	in := &Interpreter{Script: mustScript(t, &Node{Title: "Start"})}
	if err := in.Start("NoSuchNode"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Start(NoSuchNode) = error %v, want %v", err, ErrUnknownNode)
	}
	if got := in.State(); got != StateNotStarted {
		t.Errorf("State() = %v, want %v", got, StateNotStarted)
	}
}

func TestStartMissingScript(t *testing.T) {
	in := &Interpreter{}
	if err := in.Start("Start"); !errors.Is(err, ErrMissingScript) {
		t.Errorf("Start() = error %v, want %v", err, ErrMissingScript)
	}
}

func TestAdvanceBeforeStart(t *testing.T) {
	in := &Interpreter{Script: mustScript(t, &Node{Title: "Start"})}
	_, err := in.Advance()
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Advance() = error %v, want %v", err, ErrInvalidStateTransition)
	}
	var mismatch StateMismatchErr
	if !errors.As(err, &mismatch) {
		t.Fatalf("Advance() error is %T, want StateMismatchErr", err)
	}
	if mismatch.Got != StateNotStarted || mismatch.Want != StateRunning {
		t.Errorf("StateMismatchErr = %v, want Got=NotStarted Want=Running", mismatch)
	}
}

// The end-to-end scenario: declaring a variable, setting it from an option
// body, guarding a later option on it, and interpolating it after a jump.
func endToEndScript(t *testing.T) *Script {
	t.Helper()
	return mustScript(t,
		&Node{Title: "Start", Body: []Statement{
			&DeclareStmt{Name: "$my_var", Type: TypeBool, Default: false},
			&LineStmt{Text: "This is a simple line."},
			&OptionsStmt{Options: []Option{
				{Text: "Option 1", Body: []Statement{
					&SetStmt{Name: "$my_var", Expr: MustParseExpression(`true`)},
				}},
				{Text: "Option 2"},
			}},
			&LineStmt{Text: "Some more dialogue."},
			&OptionsStmt{Options: []Option{
				{Text: "Secret option", Guard: MustParseExpression(`$my_var == true`), Target: "Secret"},
				{Text: "Leave", Target: "End"},
			}},
		}},
		&Node{Title: "Secret", Body: []Statement{
			&LineStmt{Text: "my_var is {$my_var}."},
			&JumpStmt{Target: "End"},
		}},
		&Node{Title: "End", Body: []Statement{
			&LineStmt{Text: "The end."},
		}},
	)
}

func TestEndToEnd(t *testing.T) {
	in := &Interpreter{Script: endToEndScript(t)}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	if got := in.State(); got != StateRunning {
		t.Fatalf("State() = %v, want %v", got, StateRunning)
	}

	// The declaration is consumed silently within the same call.
	wantLine(t, in, "This is a simple line.")

	wantOptions(t, in, []OptionView{
		{Index: 0, Text: "Option 1"},
		{Index: 1, Text: "Option 2"},
	})
	if got := in.State(); got != StateAwaitingSelection {
		t.Fatalf("State() = %v, want %v", got, StateAwaitingSelection)
	}
	if err := in.SelectOption(0); err != nil {
		t.Fatalf("SelectOption(0) = error %v", err)
	}

	// Option 1's body sets $my_var silently; the next event is the line
	// after the block.
	wantLine(t, in, "Some more dialogue.")

	// The guarded option is now eligible, and numbering counts only what is
	// shown.
	wantOptions(t, in, []OptionView{
		{Index: 0, Text: "Secret option"},
		{Index: 1, Text: "Leave"},
	})
	if err := in.SelectOption(0); err != nil {
		t.Fatalf("SelectOption(0) = error %v", err)
	}

	wantLine(t, in, "my_var is true.")
	wantLine(t, in, "The end.")

	ev := mustAdvance(t, in)
	complete, ok := ev.(DialogueCompleteEvent)
	if !ok {
		t.Fatalf("Advance() = %T, want DialogueCompleteEvent", ev)
	}
	if complete.Node != "End" {
		t.Errorf("DialogueCompleteEvent.Node = %q, want End", complete.Node)
	}
	if got := in.State(); got != StateComplete {
		t.Errorf("State() = %v, want %v", got, StateComplete)
	}

	// No further Advance succeeds without a new Start.
	if _, err := in.Advance(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Advance() after complete = error %v, want %v", err, ErrInvalidStateTransition)
	}
}

func TestGuardedOptionsFilteredOut(t *testing.T) {
	in := &Interpreter{Script: endToEndScript(t)}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	wantLine(t, in, "This is a simple line.")
	wantOptions(t, in, []OptionView{
		{Index: 0, Text: "Option 1"},
		{Index: 1, Text: "Option 2"},
	})
	// Option 2 leaves $my_var false, so the guarded option stays hidden.
	if err := in.SelectOption(1); err != nil {
		t.Fatalf("SelectOption(1) = error %v", err)
	}
	wantLine(t, in, "Some more dialogue.")
	wantOptions(t, in, []OptionView{
		{Index: 0, Text: "Leave"},
	})
}

func TestSelectOptionOutOfRange(t *testing.T) {
	in := &Interpreter{Script: endToEndScript(t)}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	wantLine(t, in, "This is a simple line.")
	wantOptions(t, in, []OptionView{
		{Index: 0, Text: "Option 1"},
		{Index: 1, Text: "Option 2"},
	})
	for _, index := range []int{-1, 2, 100} {
		if err := in.SelectOption(index); !errors.Is(err, ErrInvalidOptionIndex) {
			t.Errorf("SelectOption(%d) = error %v, want %v", index, err, ErrInvalidOptionIndex)
		}
		if got := in.State(); got != StateAwaitingSelection {
			t.Errorf("State() after bad select = %v, want %v", got, StateAwaitingSelection)
		}
	}
	// A valid selection still works after failed ones.
	if err := in.SelectOption(1); err != nil {
		t.Errorf("SelectOption(1) = error %v", err)
	}
}

func TestSelectOptionWrongState(t *testing.T) {
	in := &Interpreter{Script: endToEndScript(t)}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	if err := in.SelectOption(0); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("SelectOption in Running = error %v, want %v", err, ErrInvalidStateTransition)
	}
}

func TestEmptyEligibleSetSkipsBlock(t *testing.T) {
	script := mustScript(t,
		&Node{Title: "Start", Body: []Statement{
			&DeclareStmt{Name: "$ok", Type: TypeBool, Default: false},
			&OptionsStmt{Options: []Option{
				{Text: "Hidden A", Guard: MustParseExpression(`$ok`)},
				{Text: "Hidden B", Guard: MustParseExpression(`$ok == true`)},
			}},
			&LineStmt{Text: "Skipped right past."},
		}},
	)
	in := &Interpreter{Script: script}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	// No OptionsEvent: the empty block is drained silently.
	wantLine(t, in, "Skipped right past.")
}

func TestUnknownCommandForwarded(t *testing.T) {
	script := mustScript(t,
		&Node{Title: "Start", Body: []Statement{
			&CommandStmt{Name: "a_command_that_doesnt_exist", Args: []string{"arg1", "arg2"}},
			&LineStmt{Text: "Still going."},
		}},
	)
	in := &Interpreter{Script: script}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	ev, ok := mustAdvance(t, in).(CommandEvent)
	if !ok {
		t.Fatalf("Advance() = %T, want CommandEvent", ev)
	}
	want := CommandEvent{Name: "a_command_that_doesnt_exist", Args: []string{"arg1", "arg2"}}
	if diff := cmp.Diff(ev, want); diff != "" {
		t.Errorf("CommandEvent diff (-got +want):\n%s", diff)
	}
	// The cursor advanced past the command.
	wantLine(t, in, "Still going.")
}

func TestReservedCommands(t *testing.T) {
	script := mustScript(t,
		&Node{Title: "Start", Body: []Statement{
			&CommandStmt{Name: "declare", Args: []string{"$my_var", "=", "false"}},
			&CommandStmt{Name: "set", Args: []string{"$my_var", "to", "true"}},
			&LineStmt{Text: "my_var is {$my_var}."},
		}},
	)
	in := &Interpreter{Script: script}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	// Both reserved commands are silent; only the line comes out.
	wantLine(t, in, "my_var is true.")
}

func TestConditionalBranches(t *testing.T) {
	script := mustScript(t,
		&Node{Title: "Start", Body: []Statement{
			&DeclareStmt{Name: "$mood", Type: TypeNumber, Default: float64(0)},
			&IfStmt{Branches: []IfBranch{
				{Cond: MustParseExpression(`$mood > 0`), Body: []Statement{&LineStmt{Text: "Feeling good."}}},
				{Body: []Statement{&LineStmt{Text: "Feeling flat."}}},
			}},
			&SetStmt{Name: "$mood", Expr: MustParseExpression(`$mood + 10`)},
			&IfStmt{Branches: []IfBranch{
				{Cond: MustParseExpression(`$mood > 0`), Body: []Statement{&LineStmt{Text: "Feeling better."}}},
				{Body: []Statement{&LineStmt{Text: "Still flat."}}},
			}},
			&IfStmt{Branches: []IfBranch{
				{Cond: MustParseExpression(`$mood > 100`), Body: []Statement{&LineStmt{Text: "Unreachable."}}},
			}},
			&LineStmt{Text: "Done."},
		}},
	)
	in := &Interpreter{Script: script}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	wantLine(t, in, "Feeling flat.")
	wantLine(t, in, "Feeling better.")
	wantLine(t, in, "Done.")
}

func TestTypeMismatchLeavesStateIntact(t *testing.T) {
	script := mustScript(t,
		&Node{Title: "Start", Body: []Statement{
			&DeclareStmt{Name: "$flag", Type: TypeBool, Default: false},
			&SetStmt{Name: "$flag", Expr: MustParseExpression(`1 + 2`)},
			&LineStmt{Text: "Unreached."},
		}},
	)
	in := &Interpreter{Script: script}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	_, err := in.Advance()
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Advance() = error %v, want %v", err, ErrTypeMismatch)
	}
	if got := in.State(); got != StateRunning {
		t.Errorf("State() after error = %v, want %v", got, StateRunning)
	}
	// The cursor rolled back, so the same error recurs.
	if _, err := in.Advance(); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("second Advance() = error %v, want %v", err, ErrTypeMismatch)
	}
}

func TestRuntimeUnknownJump(t *testing.T) {
	// Bypasses NewScript validation to exercise the run-time check.
	script := &Script{Nodes: map[string]*Node{
		"Start": {Title: "Start", Body: []Statement{
			&JumpStmt{Target: "Nowhere"},
		}},
	}}
	in := &Interpreter{Script: script}
	if err := in.Start("Start"); err != nil {
		t.Fatalf("Start(Start) = error %v", err)
	}
	if _, err := in.Advance(); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Advance() = error %v, want %v", err, ErrUnknownNode)
	}
	if got := in.NodeName(); got != "Start" {
		t.Errorf("NodeName() after failed jump = %q, want Start", got)
	}
}

func TestVariablesSurviveRestart(t *testing.T) {
	script := mustScript(t,
		&Node{Title: "Start", Body: []Statement{
			&DeclareStmt{Name: "$runs", Type: TypeNumber, Default: float64(0)},
			&SetStmt{Name: "$runs", Expr: MustParseExpression(`$runs + 1`)},
			&LineStmt{Text: "Run {$runs}."},
		}},
	)
	in := &Interpreter{Script: script}
	for i, want := range []string{"Run 1.", "Run 2."} {
		if err := in.Start("Start"); err != nil {
			t.Fatalf("Start #%d = error %v", i, err)
		}
		wantLine(t, in, want)
	}
}

func TestRunWithTestPlanHandler(t *testing.T) {
	plan := &TestPlan{Steps: []TestStep{
		{Type: "line", Contents: "This is a simple line."},
		{Type: "option", Contents: "Option 1"},
		{Type: "option", Contents: "Option 2"},
		{Type: "select", Contents: "1"},
		{Type: "line", Contents: "Some more dialogue."},
		{Type: "option", Contents: "Secret option"},
		{Type: "option", Contents: "Leave"},
		{Type: "select", Contents: "1"},
		{Type: "line", Contents: "my_var is true."},
		{Type: "line", Contents: "The end."},
	}}
	in := &Interpreter{Script: endToEndScript(t)}
	if err := in.Run("Start", plan); err != nil {
		t.Fatalf("Run(Start) = error %v", err)
	}
	if err := plan.Complete(); err != nil {
		t.Errorf("testplan incomplete: %v", err)
	}
}
