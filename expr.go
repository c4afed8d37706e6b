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

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Expressions are compiled from source strings ("$my_var == true") into small
// trees at script load time, and evaluated against a VariableStorage at run
// time. Evaluation is pure: it reads the store and nothing else.

var (
	exprLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "whitespace", Pattern: `\s+`},
		{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Bool", Pattern: `\b(?:true|false)\b`},
		{Name: "Var", Pattern: `\$[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Op", Pattern: `==|!=|<=|>=|&&|\|\||[-+*/!<>()]`},
	})

	exprParser = participle.MustBuild[Expression](
		participle.Lexer(exprLexer),
		participle.Unquote("String"),
	)
)

// ParseExpression parses an expression source string into an Expression.
func ParseExpression(src string) (*Expression, error) {
	expr, err := exprParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parsing expression %q: %w", src, err)
	}
	expr.src = src
	return expr, nil
}

// MustParseExpression is ParseExpression, panicking on error. Intended for
// expressions written directly in Go code (tests, hand-built scripts).
func MustParseExpression(src string) *Expression {
	expr, err := ParseExpression(src)
	if err != nil {
		panic(err)
	}
	return expr
}

// Expression is a parsed expression tree.
type Expression struct {
	First *andExpr  `parser:"@@"`
	Rest  []*andExpr `parser:"( '||' @@ )*"`

	src string
}

// Source returns the source string the expression was parsed from, if any.
func (e *Expression) Source() string { return e.src }

// Evaluate evaluates the expression against vars, returning a bool, float64,
// or string.
func (e *Expression) Evaluate(vars VariableStorage) (any, error) {
	x, err := e.First.evaluate(vars)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return x, nil
	}
	b, err := valueAsBool(x)
	if err != nil {
		return nil, fmt.Errorf("left of ||: %w", err)
	}
	for _, operand := range e.Rest {
		y, err := operand.evaluate(vars)
		if err != nil {
			return nil, err
		}
		yb, err := valueAsBool(y)
		if err != nil {
			return nil, fmt.Errorf("right of ||: %w", err)
		}
		b = b || yb
	}
	return b, nil
}

// EvaluateBool evaluates the expression and requires a bool result, as used
// for option guards and conditional branches.
func (e *Expression) EvaluateBool(vars VariableStorage) (bool, error) {
	x, err := e.Evaluate(vars)
	if err != nil {
		return false, err
	}
	return valueAsBool(x)
}

type andExpr struct {
	First *cmpExpr  `parser:"@@"`
	Rest  []*cmpExpr `parser:"( '&&' @@ )*"`
}

func (e *andExpr) evaluate(vars VariableStorage) (any, error) {
	x, err := e.First.evaluate(vars)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return x, nil
	}
	b, err := valueAsBool(x)
	if err != nil {
		return nil, fmt.Errorf("left of &&: %w", err)
	}
	for _, operand := range e.Rest {
		y, err := operand.evaluate(vars)
		if err != nil {
			return nil, err
		}
		yb, err := valueAsBool(y)
		if err != nil {
			return nil, fmt.Errorf("right of &&: %w", err)
		}
		b = b && yb
	}
	return b, nil
}

type cmpExpr struct {
	Left  *addExpr `parser:"@@"`
	Op    string   `parser:"( @( '==' | '!=' | '<=' | '>=' | '<' | '>' )"`
	Right *addExpr `parser:"@@ )?"`
}

func (e *cmpExpr) evaluate(vars VariableStorage) (any, error) {
	x, err := e.Left.evaluate(vars)
	if err != nil {
		return nil, err
	}
	if e.Op == "" {
		return x, nil
	}
	y, err := e.Right.evaluate(vars)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "==", "!=":
		xt, err := TypeOf(x)
		if err != nil {
			return nil, err
		}
		yt, err := TypeOf(y)
		if err != nil {
			return nil, err
		}
		if xt != yt {
			return nil, fmt.Errorf("comparing %v with %v: %w", xt, yt, ErrTypeMismatch)
		}
		if e.Op == "==" {
			return x == y, nil
		}
		return x != y, nil
	}
	// Relational operators take numbers only.
	xf, err := valueAsNumber(x)
	if err != nil {
		return nil, fmt.Errorf("left of %s: %w", e.Op, err)
	}
	yf, err := valueAsNumber(y)
	if err != nil {
		return nil, fmt.Errorf("right of %s: %w", e.Op, err)
	}
	switch e.Op {
	case "<":
		return xf < yf, nil
	case "<=":
		return xf <= yf, nil
	case ">":
		return xf > yf, nil
	case ">=":
		return xf >= yf, nil
	}
	return nil, fmt.Errorf("invalid comparison operator %q", e.Op)
}

type addExpr struct {
	First *mulExpr `parser:"@@"`
	Rest  []*addOp `parser:"@@*"`
}

type addOp struct {
	Op   string   `parser:"@( '+' | '-' )"`
	Term *mulExpr `parser:"@@"`
}

func (e *addExpr) evaluate(vars VariableStorage) (any, error) {
	x, err := e.First.evaluate(vars)
	if err != nil {
		return nil, err
	}
	for _, operand := range e.Rest {
		y, err := operand.Term.evaluate(vars)
		if err != nil {
			return nil, err
		}
		x, err = applyAddOp(operand.Op, x, y)
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

// applyAddOp implements + and -. + doubles as string concatenation when both
// operands are strings.
func applyAddOp(op string, x, y any) (any, error) {
	if op == "+" {
		if xs, ok := x.(string); ok {
			ys, ok := y.(string)
			if !ok {
				return nil, fmt.Errorf("right of +: %w [%T != string]", ErrTypeMismatch, y)
			}
			return xs + ys, nil
		}
	}
	xf, err := valueAsNumber(x)
	if err != nil {
		return nil, fmt.Errorf("left of %s: %w", op, err)
	}
	yf, err := valueAsNumber(y)
	if err != nil {
		return nil, fmt.Errorf("right of %s: %w", op, err)
	}
	if op == "+" {
		return xf + yf, nil
	}
	return xf - yf, nil
}

type mulExpr struct {
	First *unaryExpr `parser:"@@"`
	Rest  []*mulOp   `parser:"@@*"`
}

type mulOp struct {
	Op   string     `parser:"@( '*' | '/' )"`
	Term *unaryExpr `parser:"@@"`
}

func (e *mulExpr) evaluate(vars VariableStorage) (any, error) {
	x, err := e.First.evaluate(vars)
	if err != nil {
		return nil, err
	}
	for _, operand := range e.Rest {
		y, err := operand.Term.evaluate(vars)
		if err != nil {
			return nil, err
		}
		xf, err := valueAsNumber(x)
		if err != nil {
			return nil, fmt.Errorf("left of %s: %w", operand.Op, err)
		}
		yf, err := valueAsNumber(y)
		if err != nil {
			return nil, fmt.Errorf("right of %s: %w", operand.Op, err)
		}
		switch operand.Op {
		case "*":
			x = xf * yf
		case "/":
			if yf == 0 {
				return nil, fmt.Errorf("%w: division by zero", ErrArithmetic)
			}
			x = xf / yf
		}
	}
	return x, nil
}

type unaryExpr struct {
	Not  *unaryExpr   `parser:"  '!' @@"`
	Neg  *unaryExpr   `parser:"| '-' @@"`
	Term *primaryExpr `parser:"| @@"`
}

func (e *unaryExpr) evaluate(vars VariableStorage) (any, error) {
	switch {
	case e.Not != nil:
		x, err := e.Not.evaluate(vars)
		if err != nil {
			return nil, err
		}
		b, err := valueAsBool(x)
		if err != nil {
			return nil, fmt.Errorf("operand of !: %w", err)
		}
		return !b, nil
	case e.Neg != nil:
		x, err := e.Neg.evaluate(vars)
		if err != nil {
			return nil, err
		}
		f, err := valueAsNumber(x)
		if err != nil {
			return nil, fmt.Errorf("operand of unary -: %w", err)
		}
		return -f, nil
	default:
		return e.Term.evaluate(vars)
	}
}

type primaryExpr struct {
	Number *float64    `parser:"  @Number"`
	Str    *string     `parser:"| @String"`
	Bool   *string     `parser:"| @Bool"`
	Var    *string     `parser:"| @Var"`
	Paren  *Expression `parser:"| '(' @@ ')'"`
}

func (e *primaryExpr) evaluate(vars VariableStorage) (any, error) {
	switch {
	case e.Number != nil:
		return *e.Number, nil
	case e.Str != nil:
		return *e.Str, nil
	case e.Bool != nil:
		return *e.Bool == "true", nil
	case e.Var != nil:
		v, err := vars.GetValue(*e.Var)
		if err != nil {
			return nil, err
		}
		return v, nil
	case e.Paren != nil:
		return e.Paren.Evaluate(vars)
	}
	return nil, fmt.Errorf("empty expression term")
}
