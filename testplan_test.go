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
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestAllTestPlans runs every script in testdata against its testplan.
func TestAllTestPlans(t *testing.T) {
	planFiles, err := filepath.Glob("testdata/*.testplan")
	if err != nil {
		t.Fatalf("Glob = error %v", err)
	}
	if len(planFiles) == 0 {
		t.Fatal("Glob matched no testplans")
	}
	for _, planFile := range planFiles {
		planFile := planFile
		t.Run(filepath.Base(planFile), func(t *testing.T) {
			scriptFile := strings.TrimSuffix(planFile, ".testplan") + ".loom.json"
			script, err := LoadScriptFile(scriptFile)
			if err != nil {
				t.Fatalf("LoadScriptFile(%q) = error %v", scriptFile, err)
			}
			plan, err := LoadTestPlanFile(planFile)
			if err != nil {
				t.Fatalf("LoadTestPlanFile(%q) = error %v", planFile, err)
			}
			in := &Interpreter{
				Script:    script,
				TraceLogf: t.Logf,
			}
			if err := in.Run("Start", plan); err != nil {
				t.Fatalf("Run(Start) = error %v", err)
			}
			if err := plan.Complete(); err != nil {
				t.Errorf("testplan incomplete: %v", err)
			}
		})
	}
}

func TestReadTestPlan(t *testing.T) {
	const doc = `# a comment
line: Hello.

option: Yes
option: No
select: 2
command: wave left
line: Bye.
stop
line: ignored after stop
`
	plan, err := ReadTestPlan(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadTestPlan = error %v", err)
	}
	want := []TestStep{
		{Type: "line", Contents: "Hello."},
		{Type: "option", Contents: "Yes"},
		{Type: "option", Contents: "No"},
		{Type: "select", Contents: "2"},
		{Type: "command", Contents: "wave left"},
		{Type: "line", Contents: "Bye."},
	}
	if diff := cmp.Diff(plan.Steps, want); diff != "" {
		t.Errorf("Steps diff (-got +want):\n%s", diff)
	}
}

func TestReadTestPlanMalformed(t *testing.T) {
	if _, err := ReadTestPlan(strings.NewReader("just some words\n")); err == nil {
		t.Error("ReadTestPlan(malformed) = nil error, want error")
	}
}

func TestTestPlanMismatch(t *testing.T) {
	plan := &TestPlan{Steps: []TestStep{
		{Type: "line", Contents: "Expected."},
	}}
	if err := plan.Line("Something else."); err == nil {
		t.Error("Line(mismatch) = nil error, want error")
	}
}
