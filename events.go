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

// Event is what Advance hands back to the host each time the interpreter
// suspends. The concrete types are LineEvent, OptionsEvent, CommandEvent, and
// DialogueCompleteEvent. Silent statements (declarations, assignments, jumps,
// conditionals) never produce events.
type Event interface {
	dialogueEventTag()
}

// LineEvent carries one line of dialogue, fully interpolated for display.
type LineEvent struct {
	Text string
}

// OptionsEvent carries the eligible options of an option block. Indices are
// contiguous from 0 and correspond to the filtered eligible subset, not the
// authored positions; pass one of them to SelectOption.
type OptionsEvent struct {
	Options []OptionView
}

// OptionView is one presentable option.
type OptionView struct {
	Index int
	Text  string
}

// CommandEvent carries a command for the host to execute. The interpreter
// attaches no meaning to the name; unrecognized commands are the host's
// concern, not an interpreter error.
type CommandEvent struct {
	Name string
	Args []string
}

// DialogueCompleteEvent reports that the dialogue has finished. Node is the
// title of the node that ended it.
type DialogueCompleteEvent struct {
	Node string
}

func (LineEvent) dialogueEventTag()             {}
func (OptionsEvent) dialogueEventTag()          {}
func (CommandEvent) dialogueEventTag()          {}
func (DialogueCompleteEvent) dialogueEventTag() {}
