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

import "errors"

// FakeDialogueHandler implements DialogueHandler with minimal, do-nothing
// methods. This is useful both for testing, and for satisfying the interface
// via embedding, e.g.:
//
//	type MyHandler struct {
//	    FakeDialogueHandler
//	}
//	// MyHandler is only interested in Line.
//	func (m MyHandler) Line(text string) error { ... }
//	// All the other DialogueHandler methods provided by FakeDialogueHandler.
type FakeDialogueHandler struct{}

// Line returns nil.
func (FakeDialogueHandler) Line(string) error { return nil }

// Options returns the first option index, or an error if there are no
// options.
func (FakeDialogueHandler) Options(options []OptionView) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options delivered")
	}
	return options[0].Index, nil
}

// Command returns nil.
func (FakeDialogueHandler) Command(string, []string) error { return nil }

// DialogueComplete returns nil.
func (FakeDialogueHandler) DialogueComplete(string) error { return nil }
