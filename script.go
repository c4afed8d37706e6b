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

import "fmt"

// Script is a set of nodes produced by an external compiler, indexed by
// title. Scripts are immutable once built; jumps between nodes are resolved
// by title lookup at run time.
type Script struct {
	Nodes map[string]*Node
}

// Node is a named unit of script.
type Node struct {
	Title string
	Body  []Statement
}

// Statement is one instruction within a node's body. The concrete types are
// LineStmt, CommandStmt, DeclareStmt, SetStmt, JumpStmt, OptionsStmt, and
// IfStmt.
type Statement interface {
	statementTag()
}

// LineStmt is displayable dialogue text. Text may contain {$var} placeholders
// and [markup], which are resolved at display time.
type LineStmt struct {
	Text string
}

// CommandStmt is a command, opaque to the interpreter except for the reserved
// built-in names (see machine.go).
type CommandStmt struct {
	Name string
	Args []string
}

// DeclareStmt declares a variable with a fixed type and default value.
type DeclareStmt struct {
	Name    string
	Type    Type
	Default any
}

// SetStmt assigns the value of an expression to a declared variable.
type SetStmt struct {
	Name string
	Expr *Expression
}

// JumpStmt transfers control to the first statement of another node.
type JumpStmt struct {
	Target string
}

// OptionsStmt presents a choice between options.
type OptionsStmt struct {
	Options []Option
}

// IfStmt guards blocks of statements with conditions. Branches are evaluated
// in order and the first whose condition is true runs; a branch with a nil
// condition is the else branch.
type IfStmt struct {
	Branches []IfBranch
}

// IfBranch is one arm of an IfStmt.
type IfBranch struct {
	Cond *Expression // nil for else
	Body []Statement
}

func (*LineStmt) statementTag()    {}
func (*CommandStmt) statementTag() {}
func (*DeclareStmt) statementTag() {}
func (*SetStmt) statementTag()     {}
func (*JumpStmt) statementTag()    {}
func (*OptionsStmt) statementTag() {}
func (*IfStmt) statementTag()      {}

// Option is one branch choice within an options block. If Guard is non-nil
// the option is only presented when the guard evaluates true. On selection,
// Body runs if non-empty; otherwise control jumps to Target if set; otherwise
// execution proceeds past the block.
type Option struct {
	Text   string
	Guard  *Expression
	Body   []Statement
	Target string
}

// NewScript builds a Script from nodes and validates it.
func NewScript(nodes []*Node) (*Script, error) {
	s := &Script{Nodes: make(map[string]*Node, len(nodes))}
	for _, n := range nodes {
		if _, found := s.Nodes[n.Title]; found {
			return nil, fmt.Errorf("duplicate node title %q", n.Title)
		}
		s.Nodes[n.Title] = n
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Node looks a node up by title.
func (s *Script) Node(title string) (*Node, error) {
	n, found := s.Nodes[title]
	if !found {
		return nil, fmt.Errorf("%w %q", ErrUnknownNode, title)
	}
	return n, nil
}

// Validate checks that every jump and option target in the script resolves
// to a node.
func (s *Script) Validate() error {
	for _, n := range s.Nodes {
		if err := s.validateBody(n.Title, n.Body); err != nil {
			return err
		}
	}
	return nil
}

func (s *Script) validateBody(title string, body []Statement) error {
	for _, st := range body {
		switch t := st.(type) {
		case *JumpStmt:
			if _, found := s.Nodes[t.Target]; !found {
				return fmt.Errorf("node %q jumps to %w %q", title, ErrUnknownNode, t.Target)
			}
		case *OptionsStmt:
			for _, opt := range t.Options {
				if opt.Target != "" {
					if _, found := s.Nodes[opt.Target]; !found {
						return fmt.Errorf("option %q in node %q targets %w %q", opt.Text, title, ErrUnknownNode, opt.Target)
					}
				}
				if err := s.validateBody(title, opt.Body); err != nil {
					return err
				}
			}
		case *IfStmt:
			for _, br := range t.Branches {
				if err := s.validateBody(title, br.Body); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
