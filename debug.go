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
	"fmt"
	"sort"
	"strings"
)

// FormatStatement prints a statement in a format convenient for debugging.
// The output is intended for human consumption only and may change between
// incremental versions of this package.
func FormatStatement(st Statement) string {
	switch s := st.(type) {
	case *LineStmt:
		return fmt.Sprintf("line %q", s.Text)
	case *CommandStmt:
		if len(s.Args) == 0 {
			return fmt.Sprintf("command %s", s.Name)
		}
		return fmt.Sprintf("command %s %q", s.Name, s.Args)
	case *DeclareStmt:
		return fmt.Sprintf("declare %s %v = %v", s.Name, s.Type, s.Default)
	case *SetStmt:
		return fmt.Sprintf("set %s = %s", s.Name, s.Expr.Source())
	case *JumpStmt:
		return fmt.Sprintf("jump %s", s.Target)
	case *IfStmt:
		return fmt.Sprintf("if [%d branches]", len(s.Branches))
	case *OptionsStmt:
		return fmt.Sprintf("options [%d options]", len(s.Options))
	}
	return fmt.Sprintf("(invalid statement %T)", st)
}

// FormatScript prints a whole script in a format convenient for debugging.
// Nodes are printed in title order; nested bodies are indented.
func FormatScript(s *Script) string {
	titles := make([]string, 0, len(s.Nodes))
	for title := range s.Nodes {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	sb := new(strings.Builder)
	for _, title := range titles {
		fmt.Fprintf(sb, "--- %s ---\n", title)
		formatBody(sb, s.Nodes[title].Body, 1)
		fmt.Fprintln(sb)
	}
	return sb.String()
}

func formatBody(sb *strings.Builder, body []Statement, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, st := range body {
		fmt.Fprintf(sb, "%s%s\n", indent, FormatStatement(st))
		switch s := st.(type) {
		case *IfStmt:
			for _, br := range s.Branches {
				if br.Cond != nil {
					fmt.Fprintf(sb, "%s| %s\n", indent, br.Cond.Source())
				} else {
					fmt.Fprintf(sb, "%s| else\n", indent)
				}
				formatBody(sb, br.Body, depth+1)
			}
		case *OptionsStmt:
			for _, opt := range s.Options {
				fmt.Fprintf(sb, "%s> %q", indent, opt.Text)
				if opt.Guard != nil {
					fmt.Fprintf(sb, " if %s", opt.Guard.Source())
				}
				if opt.Target != "" {
					fmt.Fprintf(sb, " -> %s", opt.Target)
				}
				fmt.Fprintln(sb)
				formatBody(sb, opt.Body, depth+1)
			}
		}
	}
}
