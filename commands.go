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

import "regexp"

// CommandHandlerFunc executes one named command on behalf of the host.
type CommandHandlerFunc func(args []string) error

// CommandRegistry maps command names to handlers on the host side of the
// boundary. The interpreter itself never consults it: it forwards every
// non-reserved command as a CommandEvent, and the host decides what to do.
// Command vocabularies are open-ended, so an unregistered name is not an
// error here either - Dispatch reports it as unhandled and the host may
// surface that however it likes.
type CommandRegistry struct {
	handlers map[string]CommandHandlerFunc

	// Unhandled, if set, is called for commands with no registered handler.
	Unhandled func(name string, args []string) error
}

// NewCommandRegistry returns an empty CommandRegistry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		handlers: make(map[string]CommandHandlerFunc),
	}
}

// Register associates a handler with a command name, replacing any existing
// handler for that name.
func (r *CommandRegistry) Register(name string, fn CommandHandlerFunc) {
	r.handlers[name] = fn
}

// Handles reports whether a handler is registered for name.
func (r *CommandRegistry) Handles(name string) bool {
	_, found := r.handlers[name]
	return found
}

// Dispatch routes a CommandEvent to its handler. handled reports whether a
// registered handler ran; for unhandled commands the Unhandled fallback runs
// instead, if set.
func (r *CommandRegistry) Dispatch(ev CommandEvent) (handled bool, err error) {
	if fn, found := r.handlers[ev.Name]; found {
		return true, fn(ev.Args)
	}
	if r.Unhandled != nil {
		return false, r.Unhandled(ev.Name, ev.Args)
	}
	return false, nil
}

// Splits command text on whitespace, but keeps double-quoted runs together.
var commandTokens = regexp.MustCompile(`"[^"]+"|\S+`)

// SplitCommandText splits raw command text into a name and arguments.
// Double-quoted arguments stay whole, with the quotes stripped:
// `say "hello there" twice` becomes ("say", ["hello there", "twice"]).
func SplitCommandText(text string) (name string, args []string) {
	for i, tok := range commandTokens.FindAllString(text, -1) {
		if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
			tok = tok[1 : len(tok)-1]
		}
		if i == 0 {
			name = tok
			continue
		}
		args = append(args, tok)
	}
	return name, args
}
