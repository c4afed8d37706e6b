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

// DialogueHandler receives events from Run for hosts that prefer a
// handler-driven surface over stepping the interpreter manually.
type DialogueHandler interface {
	// Line is called with each line of dialogue, interpolated for display.
	Line(text string) error

	// Options is called with the eligible options of an option block, and
	// returns the index of the chosen option.
	Options(options []OptionView) (int, error)

	// Command is called with each command the script asks the host to run.
	Command(name string, args []string) error

	// DialogueComplete is called when the dialogue as a whole is complete.
	// It is passed the title of the node that ended it.
	DialogueComplete(node string) error
}

// Run starts the interpreter at the named node and steps it to completion,
// delivering each event to h. Each handler call is a suspension point: the
// interpreter does not progress until the handler returns, and a handler
// error stops the run.
func (in *Interpreter) Run(startNode string, h DialogueHandler) error {
	if h == nil {
		return fmt.Errorf("nil dialogue handler")
	}
	if err := in.Start(startNode); err != nil {
		return err
	}
	for {
		ev, err := in.Advance()
		if err != nil {
			return err
		}
		switch ev := ev.(type) {
		case LineEvent:
			if err := h.Line(ev.Text); err != nil {
				return fmt.Errorf("handler.Line: %w", err)
			}
		case OptionsEvent:
			index, err := h.Options(ev.Options)
			if err != nil {
				return fmt.Errorf("handler.Options: %w", err)
			}
			if err := in.SelectOption(index); err != nil {
				return err
			}
		case CommandEvent:
			if err := h.Command(ev.Name, ev.Args); err != nil {
				return fmt.Errorf("handler.Command: %w", err)
			}
		case DialogueCompleteEvent:
			if err := h.DialogueComplete(ev.Node); err != nil {
				return fmt.Errorf("handler.DialogueComplete: %w", err)
			}
			return nil
		}
	}
}
