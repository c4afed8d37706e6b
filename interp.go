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
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	cldr "github.com/razor-1/localizer-cldr"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// Interpolator renders line and option text for display: {$var} placeholders
// are substituted from the variable store, and [select], [plural], and
// [ordinal] format functions are expanded using the configured language.
// Rendering happens at display time, never cached, so text always reflects
// the current variable values.
type Interpolator struct {
	Vars VariableStorage
	Lang language.Tag
}

// NewInterpolator creates an Interpolator reading from vars. langCode must be
// a valid BCP 47 language tag.
func NewInterpolator(vars VariableStorage, langCode string) (*Interpolator, error) {
	lang, err := language.Parse(langCode)
	if err != nil {
		return nil, fmt.Errorf("invalid lang code: %w", err)
	}
	return &Interpolator{Vars: vars, Lang: lang}, nil
}

// Render produces the display form of text. Referencing an undeclared
// variable is an error, not an empty substitution. Braces that don't form a
// {$var} placeholder pass through literally.
func (ip *Interpolator) Render(text string) (string, error) {
	pl, err := lineParser.ParseString("", text)
	if err != nil {
		return "", fmt.Errorf("parsing line %q: %w", text, err)
	}
	var sb strings.Builder
	if err := pl.render(&sb, ip); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// lookup resolves a {$var} placeholder to its display string.
func (ip *Interpolator) lookup(name string) (string, error) {
	v, err := ip.Vars.GetValue(name)
	if err != nil {
		return "", err
	}
	return FormatValue(v), nil
}

var (
	// More general than strictly needed: strings inside format functions
	// re-enter the Root rules, so format functions nest.
	lineLexer = lexer.MustStateful(lexer.Rules{
		"Root": {
			{Name: "Escaped", Pattern: `\\[\{\}\[\]"\\]`, Action: nil},
			{Name: "Markup", Pattern: `\[`, Action: lexer.Push("Markup")},
			{Name: "Subst", Pattern: `\{\$[A-Za-z_][A-Za-z0-9_]*\}`, Action: nil},
			{Name: "Char", Pattern: `[%\{\["\\]|[^%\{\["\\]+`, Action: nil},
		},
		"Markup": {
			{Name: "Whitespace", Pattern: `\s+`, Action: nil},
			{Name: "Slash", Pattern: `/`, Action: nil},
			{Name: "Ident", Pattern: `\w+`, Action: nil},
			{Name: "Equals", Pattern: `=`, Action: nil},
			{Name: "String", Pattern: `"`, Action: lexer.Push("String")},
			{Name: "MarkupEnd", Pattern: `\]`, Action: lexer.Pop()},
		},
		"String": {
			{Name: "StringEnd", Pattern: `"`, Action: lexer.Pop()},
			lexer.Include("Root"),
		},
	})

	// A line and the contents of a double-quoted string share a grammar.
	lineParser = participle.MustBuild[parsedString](
		participle.Lexer(lineLexer),
		participle.Elide("Whitespace"),
	)
)

// parsedString is used for both entire lines and the contents of double-
// quoted strings inside format functions.
type parsedString struct {
	Fragments []*fragment `parser:"@@*"`
}

func (p *parsedString) render(sb *strings.Builder, ip *Interpolator) error {
	for _, f := range p.Fragments {
		if err := f.render(sb, ip); err != nil {
			return err
		}
	}
	return nil
}

// fragment is part of a string or line. The parser breaks it into pieces so
// that special pieces (escape sequences, markup, and placeholders) can be
// processed in a special way.
type fragment struct {
	Escaped string        `parser:"@Escaped"`
	Markup  *parsedMarkup `parser:"| Markup @@ MarkupEnd"`
	Subst   string        `parser:"| @Subst"`
	Text    string        `parser:"| @Char"`
}

func (s *fragment) render(sb *strings.Builder, ip *Interpolator) error {
	if s == nil {
		return nil
	}
	switch {
	case s.Escaped != "":
		sb.WriteString(s.Escaped[1:])
	case s.Markup != nil:
		return s.Markup.render(sb, ip)
	case s.Subst != "":
		// Subst token is "{$name}" including the braces.
		v, err := ip.lookup(s.Subst[1 : len(s.Subst)-1])
		if err != nil {
			return err
		}
		sb.WriteString(v)
	default:
		sb.WriteString(s.Text)
	}
	return nil
}

// parsedMarkup is used for format functions (select, plural, ordinal) and
// BBCode-esque markup tags ([b]Bold!?[/b]).
type parsedMarkup struct {
	OpeningSlash string        `parser:"@Slash?"`                  // indicates closing tag of a pair
	Name         string        `parser:"@Ident?"`                  // used for all except close-all tag [/]
	Input        *parsedString `parser:"( String @@ StringEnd )?"` // used for format funcs
	Props        []*parsedProp `parser:"@@*"`                      // key="value" properties
	ClosingSlash string        `parser:"@Slash?"`                  // indicates self-closing tag
}

// maps plural.Form values to identifiers used in plural and ordinal format
// functions
var formKeyTable = []string{
	plural.Other: "other",
	plural.Zero:  "zero",
	plural.One:   "one",
	plural.Two:   "two",
	plural.Few:   "few",
	plural.Many:  "many",
}

func (f *parsedMarkup) render(sb *strings.Builder, ip *Interpolator) error {
	// input is a fragment that needs assembling
	var in string
	if f.Input != nil {
		var inb strings.Builder
		if err := f.Input.render(&inb, ip); err != nil {
			return err
		}
		in = inb.String()
	}

	// function name determines lookup key
	switch f.Name {
	case "select":
		// input chooses which value to interpolate
		// (input == lookup key)
		return f.findAndRender(sb, ip, in, in)

	case "plural":
		ops, err := cldr.NewOperands(in)
		if err != nil {
			return err
		}
		form := plural.Cardinal.MatchPlural(ip.Lang, int(ops.I), int(ops.V), int(ops.W), int(ops.F), int(ops.T))
		if int(form) > len(formKeyTable) {
			return fmt.Errorf("plural form %v not supported", form)
		}
		return f.findAndRender(sb, ip, in, formKeyTable[form])

	case "ordinal":
		ops, err := cldr.NewOperands(in)
		if err != nil {
			return err
		}
		form := plural.Ordinal.MatchPlural(ip.Lang, int(ops.I), int(ops.V), int(ops.W), int(ops.F), int(ops.T))
		if int(form) > len(formKeyTable) {
			return fmt.Errorf("plural form %v not supported", form)
		}
		return f.findAndRender(sb, ip, in, formKeyTable[form])

	default:
		// Something else - remove the markup tag from the output.
		return nil
	}
}

// findAndRender searches f.Props for the option matching the key, and then
// renders that option to sb.
func (f *parsedMarkup) findAndRender(sb *strings.Builder, ip *Interpolator, input, key string) error {
	for _, opt := range f.Props {
		if opt.Key == key {
			return opt.render(sb, ip, input)
		}
	}
	return fmt.Errorf("key %q not found in %#v", key, f.Props)
}

// parsedProp is used for key="value" properties of format funcs and markup
// tags.
type parsedProp struct {
	Key   string        `parser:"@Ident Equals"`
	Value *parsedString `parser:"String @@ StringEnd"`
}

func (p *parsedProp) render(sb *strings.Builder, ip *Interpolator, input string) error {
	// Property values have an additional token that needs to be processed
	// specially (%).
	for _, v := range p.Value.Fragments {
		if v.Text == "%" {
			sb.WriteString(input)
			continue
		}
		if err := v.render(sb, ip); err != nil {
			return err
		}
	}
	return nil
}
