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

// loomrunner plays a compiled dialogue script in the terminal. Lines advance
// on space or enter, options are chosen with the digit keys, and commands
// the runner does not recognize are shown in the transcript.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/loomlang/loom"
)

var (
	scriptPath = flag.String("script", "", "Path to the compiled script (.loom.json)")
	startNode  = flag.String("start", "Start", "Node to start the dialogue from")
	langCode   = flag.String("lang", "en", "BCP 47 language tag for line formatting")
)

var (
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	chosenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

type model struct {
	in  *loom.Interpreter
	reg *loom.CommandRegistry

	transcript []string
	options    []loom.OptionView
	done       bool
	err        error
	width      int
}

func newModel(in *loom.Interpreter) *model {
	m := &model{in: in, reg: loom.NewCommandRegistry(), width: 80}
	m.reg.Unhandled = func(name string, args []string) error {
		text := name
		if len(args) > 0 {
			text += " " + strings.Join(args, " ")
		}
		m.transcript = append(m.transcript, noteStyle.Render("<<"+text+">>"))
		return nil
	}
	return m
}

func (m *model) Init() tea.Cmd {
	m.step()
	return nil
}

// step advances the dialogue until it produces something for the player:
// a line, a set of options, the end, or an error. Commands are dispatched
// and skipped over.
func (m *model) step() {
	for {
		ev, err := m.in.Advance()
		if err != nil {
			m.err = err
			return
		}
		switch ev := ev.(type) {
		case loom.LineEvent:
			m.transcript = append(m.transcript, lineStyle.Render(ev.Text))
			return

		case loom.OptionsEvent:
			m.options = ev.Options
			return

		case loom.CommandEvent:
			if _, err := m.reg.Dispatch(ev); err != nil {
				m.err = err
				return
			}

		case loom.DialogueCompleteEvent:
			m.transcript = append(m.transcript,
				noteStyle.Render(fmt.Sprintf("(dialogue complete: %s)", ev.Node)))
			m.done = true
			return
		}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		key := msg.String()
		switch {
		case key == "q" || key == "ctrl+c":
			return m, tea.Quit

		case m.err != nil || m.done:
			return m, tea.Quit

		case m.options != nil:
			n, err := strconv.Atoi(key)
			if err != nil || n < 1 || n > len(m.options) {
				return m, nil
			}
			choice := m.options[n-1]
			if err := m.in.SelectOption(choice.Index); err != nil {
				m.err = err
				return m, nil
			}
			m.transcript = append(m.transcript, chosenStyle.Render("> "+choice.Text))
			m.options = nil
			m.step()

		case key == " " || key == "enter":
			m.step()
		}
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder
	for _, entry := range m.transcript {
		b.WriteString(entry)
		b.WriteString("\n")
	}
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("press any key to quit"))
	case m.options != nil:
		b.WriteString("\n")
		for i, opt := range m.options {
			b.WriteString(optionStyle.Render(fmt.Sprintf("  %d. %s", i+1, opt.Text)))
			b.WriteString("\n")
		}
		b.WriteString(promptStyle.Render("choose an option (1-" + strconv.Itoa(len(m.options)) + ")"))
	case m.done:
		b.WriteString(promptStyle.Render("press any key to quit"))
	default:
		b.WriteString(promptStyle.Render("space to continue, q to quit"))
	}
	b.WriteString("\n")
	return wordwrap.String(b.String(), m.width)
}

func main() {
	flag.Parse()
	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "usage: loomrunner --script=path/to/script.loom.json [--start=Start] [--lang=en]")
		os.Exit(1)
	}

	if os.Getenv("LOOM_DEBUG") != "" {
		f, err := tea.LogToFile("loomrunner-debug.log", "loomrunner")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	script, err := loom.LoadScriptFile(*scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Loading script: %v\n", err)
		os.Exit(1)
	}

	in := &loom.Interpreter{
		Script:   script,
		LangCode: *langCode,
	}
	if err := in.Start(*startNode); err != nil {
		fmt.Fprintf(os.Stderr, "Starting dialogue: %v\n", err)
		os.Exit(1)
	}

	if _, err := tea.NewProgram(newModel(in)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
