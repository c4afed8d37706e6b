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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Compiled scripts arrive as a JSON document owned by the external compiler:
// a list of nodes, each with a body of one-of statement objects. Expressions
// and guards are carried as source strings and parsed here, once, at load
// time; command text is split into name and arguments here too.

// LoadScriptFile is a convenient function for loading a compiled script
// given a file path.
func LoadScriptFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening script file: %w", err)
	}
	defer f.Close()
	s, err := ReadScript(f)
	if err != nil {
		return nil, fmt.Errorf("reading script file %s: %w", path, err)
	}
	return s, nil
}

// LoadScriptFS loads a compiled script from the provided fs.FS. See
// LoadScriptFile for more information.
func LoadScriptFS(fsys fs.FS, path string) (*Script, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading script file: %w", err)
	}
	s, err := ReadScript(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("reading script file %s: %w", path, err)
	}
	return s, nil
}

// ReadScript reads a compiled script document from the reader, parses every
// embedded expression, and validates node references.
func ReadScript(r io.Reader) (*Script, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc scriptDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding script: %w", err)
	}
	nodes := make([]*Node, 0, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		body, err := convertBody(nd.Body)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.Title, err)
		}
		nodes = append(nodes, &Node{Title: nd.Title, Body: body})
	}
	return NewScript(nodes)
}

type scriptDoc struct {
	Nodes []nodeDoc `json:"nodes"`
}

type nodeDoc struct {
	Title string    `json:"title"`
	Body  []stmtDoc `json:"body"`
}

// stmtDoc is a one-of: exactly one field must be set.
type stmtDoc struct {
	Line    *string     `json:"line,omitempty"`
	Command *string     `json:"command,omitempty"`
	Declare *declareDoc `json:"declare,omitempty"`
	Set     *setDoc     `json:"set,omitempty"`
	Jump    *string     `json:"jump,omitempty"`
	If      []branchDoc `json:"if,omitempty"`
	Options []optionDoc `json:"options,omitempty"`
}

type declareDoc struct {
	Var     string `json:"var"`
	Type    string `json:"type"`
	Default any    `json:"default"`
}

type setDoc struct {
	Var  string `json:"var"`
	Expr string `json:"expr"`
}

type branchDoc struct {
	Cond string    `json:"cond,omitempty"` // empty = else branch
	Body []stmtDoc `json:"body"`
}

type optionDoc struct {
	Text string    `json:"text"`
	Cond string    `json:"cond,omitempty"`
	Body []stmtDoc `json:"body,omitempty"`
	Jump string    `json:"jump,omitempty"`
}

func convertBody(docs []stmtDoc) ([]Statement, error) {
	var body []Statement
	for i, d := range docs {
		st, err := convertStmt(d)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		body = append(body, st)
	}
	return body, nil
}

func convertStmt(d stmtDoc) (Statement, error) {
	switch {
	case d.Line != nil:
		return &LineStmt{Text: *d.Line}, nil

	case d.Command != nil:
		name, args := SplitCommandText(*d.Command)
		if name == "" {
			return nil, fmt.Errorf("empty command")
		}
		return &CommandStmt{Name: name, Args: args}, nil

	case d.Declare != nil:
		typ, err := ParseType(d.Declare.Type)
		if err != nil {
			return nil, fmt.Errorf("declare %s: %w", d.Declare.Var, err)
		}
		def := d.Declare.Default
		if def == nil {
			def = zeroValue(typ)
		}
		return &DeclareStmt{Name: d.Declare.Var, Type: typ, Default: def}, nil

	case d.Set != nil:
		expr, err := ParseExpression(d.Set.Expr)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", d.Set.Var, err)
		}
		return &SetStmt{Name: d.Set.Var, Expr: expr}, nil

	case d.Jump != nil:
		return &JumpStmt{Target: *d.Jump}, nil

	case d.If != nil:
		st := &IfStmt{}
		for _, br := range d.If {
			var cond *Expression
			if br.Cond != "" {
				expr, err := ParseExpression(br.Cond)
				if err != nil {
					return nil, err
				}
				cond = expr
			}
			body, err := convertBody(br.Body)
			if err != nil {
				return nil, err
			}
			st.Branches = append(st.Branches, IfBranch{Cond: cond, Body: body})
		}
		return st, nil

	case d.Options != nil:
		st := &OptionsStmt{}
		for _, od := range d.Options {
			var guard *Expression
			if od.Cond != "" {
				expr, err := ParseExpression(od.Cond)
				if err != nil {
					return nil, fmt.Errorf("option %q: %w", od.Text, err)
				}
				guard = expr
			}
			body, err := convertBody(od.Body)
			if err != nil {
				return nil, fmt.Errorf("option %q: %w", od.Text, err)
			}
			st.Options = append(st.Options, Option{
				Text:   od.Text,
				Guard:  guard,
				Body:   body,
				Target: od.Jump,
			})
		}
		return st, nil
	}
	return nil, fmt.Errorf("statement has no recognized form")
}

func zeroValue(typ Type) any {
	switch typ {
	case TypeBool:
		return false
	case TypeNumber:
		return float64(0)
	case TypeString:
		return ""
	}
	return nil
}
