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
	"fmt"
)

// Various sentinel errors. All errors returned from this package wrap one of
// these, so hosts can classify failures with errors.Is.
var (
	// ErrUnknownNode indicates a start, jump, or option target named a node
	// that isn't in the script.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateDeclaration indicates a variable was declared a second time
	// with a different type or default.
	ErrDuplicateDeclaration = errors.New("duplicate declaration")

	// ErrUndeclaredVariable indicates a variable was read (directly or via
	// interpolation) before being declared.
	ErrUndeclaredVariable = errors.New("undeclared variable")

	// ErrTypeMismatch indicates a value of the wrong type: assigning to a
	// variable of a different declared type, or applying an operator to
	// operands it doesn't accept.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrArithmetic indicates an arithmetic failure, i.e. division by zero.
	ErrArithmetic = errors.New("arithmetic error")

	// ErrInvalidOptionIndex indicates SelectOption was passed an index outside
	// the eligible option range.
	ErrInvalidOptionIndex = errors.New("invalid option index")

	// ErrInvalidStateTransition indicates a call that isn't legal in the
	// interpreter's current state (e.g. Advance while awaiting a selection).
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrMissingScript indicates the interpreter was started without a script.
	ErrMissingScript = errors.New("missing or empty script")
)

// StateMismatchErr reports a call made in the wrong interpreter state. It
// unwraps to ErrInvalidStateTransition.
type StateMismatchErr struct {
	// The interpreter was in state Got, but the call required state Want.
	Got, Want State
}

func (e StateMismatchErr) Error() string {
	return fmt.Sprintf("%v state is %v, want %v", ErrInvalidStateTransition, e.Got, e.Want)
}

func (e StateMismatchErr) Unwrap() error { return ErrInvalidStateTransition }
