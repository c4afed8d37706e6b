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
	"strconv"
)

// Type enumerates the value types a script variable can hold. A variable's
// type is fixed when it is declared.
type Type int

const (
	TypeBool Type = iota
	TypeNumber
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	}
	return fmt.Sprintf("(invalid Type %d)", int(t))
}

// ParseType parses the type names used in compiled scripts.
func ParseType(s string) (Type, error) {
	switch s {
	case "bool":
		return TypeBool, nil
	case "number":
		return TypeNumber, nil
	case "string":
		return TypeString, nil
	}
	return 0, fmt.Errorf("%w: unknown type name %q", ErrTypeMismatch, s)
}

// Values are passed around as `any` restricted to bool, float64, and string.
// TypeOf reports the Type of such a value.
func TypeOf(x any) (Type, error) {
	switch x.(type) {
	case bool:
		return TypeBool, nil
	case float64:
		return TypeNumber, nil
	case string:
		return TypeString, nil
	}
	return 0, fmt.Errorf("%w: unsupported value type %T", ErrTypeMismatch, x)
}

// FormatValue renders a value the way it appears when interpolated into line
// text. Numbers drop any trailing zero fraction (3.0 renders as "3").
func FormatValue(x any) string {
	switch t := x.(type) {
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	}
	return fmt.Sprintf("%v", x)
}

func valueAsBool(x any) (bool, error) {
	b, ok := x.(bool)
	if !ok {
		return false, fmt.Errorf("%w [%T != bool]", ErrTypeMismatch, x)
	}
	return b, nil
}

func valueAsNumber(x any) (float64, error) {
	f, ok := x.(float64)
	if !ok {
		return 0, fmt.Errorf("%w [%T != number]", ErrTypeMismatch, x)
	}
	return f, nil
}
