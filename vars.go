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
	"sync"
)

// VariableStorage stores typed script variables. Variable names include the
// leading "$". A variable must be declared before it can be read or assigned,
// and its type is fixed at declaration.
type VariableStorage interface {
	// Declare registers a variable with a type and default value. Declaring
	// the same variable again with an identical type and default is a no-op;
	// any other redeclaration fails with ErrDuplicateDeclaration.
	Declare(name string, typ Type, def any) error

	// GetValue fetches a value, failing with ErrUndeclaredVariable if the
	// variable was never declared.
	GetValue(name string) (any, error)

	// SetValue assigns a value, failing with ErrUndeclaredVariable for unknown
	// variables and ErrTypeMismatch if the value's type differs from the
	// declared type.
	SetValue(name string, value any) error
}

type variable struct {
	typ Type
	def any
	val any
}

// MapVariableStorage implements VariableStorage, in memory, using a map.
// In addition to the core VariableStorage functionality, there are methods
// for accessing the contents as an ordinary map[string]any, which is the hook
// a host can use to persist and later reseed variable state.
type MapVariableStorage struct {
	mu sync.RWMutex
	m  map[string]variable
}

// NewMapVariableStorage creates a new empty MapVariableStorage.
func NewMapVariableStorage() *MapVariableStorage {
	return &MapVariableStorage{
		m: make(map[string]variable),
	}
}

// NewMapVariableStorageFromMap creates a new MapVariableStorage pre-seeded
// with values from src. Seeded variables count as declared, with types
// inferred from the seed values. It does not keep a reference to src.
func NewMapVariableStorageFromMap(src map[string]any) (*MapVariableStorage, error) {
	m := NewMapVariableStorage()
	if err := m.seed(src); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MapVariableStorage) seed(src map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, val := range src {
		typ, err := TypeOf(val)
		if err != nil {
			return fmt.Errorf("seeding %q: %w", name, err)
		}
		m.m[name] = variable{typ: typ, def: val, val: val}
	}
	return nil
}

// Declare registers a variable. See VariableStorage.Declare.
func (m *MapVariableStorage) Declare(name string, typ Type, def any) error {
	dt, err := TypeOf(def)
	if err != nil {
		return fmt.Errorf("declaring %q: %w", name, err)
	}
	if dt != typ {
		return fmt.Errorf("declaring %q: %w [default is %v, want %v]", name, ErrTypeMismatch, dt, typ)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, found := m.m[name]; found {
		// Re-affirming an identical declaration is tolerated.
		if prev.typ == typ && prev.def == def {
			return nil
		}
		return fmt.Errorf("%w of %q", ErrDuplicateDeclaration, name)
	}
	m.m[name] = variable{typ: typ, def: def, val: def}
	return nil
}

// GetValue fetches a value from the storage. See VariableStorage.GetValue.
func (m *MapVariableStorage) GetValue(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, found := m.m[name]
	if !found {
		return nil, fmt.Errorf("%w %q", ErrUndeclaredVariable, name)
	}
	return v.val, nil
}

// SetValue assigns a value in the storage. See VariableStorage.SetValue.
func (m *MapVariableStorage) SetValue(name string, value any) error {
	typ, err := TypeOf(value)
	if err != nil {
		return fmt.Errorf("setting %q: %w", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, found := m.m[name]
	if !found {
		return fmt.Errorf("%w %q", ErrUndeclaredVariable, name)
	}
	if v.typ != typ {
		return fmt.Errorf("setting %q: %w [%v != %v]", name, ErrTypeMismatch, typ, v.typ)
	}
	v.val = value
	m.m[name] = v
	return nil
}

// TypeOfVariable reports the declared type of a variable.
func (m *MapVariableStorage) TypeOfVariable(name string) (Type, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, found := m.m[name]
	if !found {
		return 0, fmt.Errorf("%w %q", ErrUndeclaredVariable, name)
	}
	return v.typ, nil
}

// Clear empties the storage of all variables, declarations included.
func (m *MapVariableStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.m {
		delete(m.m, name)
	}
}

// Contents returns a copy of the current values as a regular map. The
// returned map is a copy, not a reference to the map contained within the
// storage (to avoid accidental data races). Serializing this map is how a
// host persists dialogue state between sessions.
func (m *MapVariableStorage) Contents() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.m))
	for name, v := range m.m {
		out[name] = v.val
	}
	return out
}

// Clone returns a new MapVariableStorage with the same declarations and
// values as the receiver. The clone shares no state with the original, so
// two interpreters can each own one independently.
func (m *MapVariableStorage) Clone() *MapVariableStorage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := NewMapVariableStorage()
	for name, v := range m.m {
		out.m[name] = v
	}
	return out
}

// ReplaceContents replaces current values with values from a regular map, as
// produced by Contents. Declarations are replaced too, with types inferred
// from the values. ReplaceContents copies src, it does not keep a reference
// to src.
func (m *MapVariableStorage) ReplaceContents(src map[string]any) error {
	m.mu.Lock()
	m.m = make(map[string]variable, len(src))
	m.mu.Unlock()
	return m.seed(src)
}
