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

// loomdump prints a compiled dialogue script in a readable form.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/loomlang/loom"
)

var scriptPath = flag.String("script", "", "Path to the compiled script (.loom.json)")

func main() {
	flag.Parse()
	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "usage: loomdump --script=path/to/script.loom.json")
		os.Exit(1)
	}
	script, err := loom.LoadScriptFile(*scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Loading script: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(loom.FormatScript(script))
}
