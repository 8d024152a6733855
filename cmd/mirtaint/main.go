// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mirtaint/mirtaint/analysis/config"
	"github.com/mirtaint/mirtaint/analysis/ir"
	"github.com/mirtaint/mirtaint/analysis/ir/iryaml"
	"github.com/mirtaint/mirtaint/analysis/taint"
	"github.com/mirtaint/mirtaint/internal/formatutil"
	"github.com/mirtaint/mirtaint/internal/funcutil"
)

var (
	configPath = flag.String("config", "", "Config file path for taint analysis")
	funcFilter = flag.String("function", "", "Only analyze the function with this name")
)

const usage = ` Perform taint analysis on declarative IR programs.
Usage:
    mirtaint [options] <program file(s)>
Examples:
% mirtaint -config config.yaml program.yaml
The config file seeds taints per function; without it, all entry states are empty.
`

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.NewDefault()
	if *configPath != "" {
		config.SetGlobalConfig(*configPath)
		loaded, err := config.LoadGlobal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	logger := config.NewLogGroup(cfg)

	var bodies []*ir.Body
	for _, filename := range flag.Args() {
		program, err := iryaml.Load(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load program: %v\n", err)
			os.Exit(1)
		}
		built, err := program.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not build program %s: %v\n", filename, err)
			os.Exit(1)
		}
		bodies = append(bodies, built...)
	}
	if *funcFilter != "" {
		filtered := bodies[:0]
		for _, b := range bodies {
			if b.Name == *funcFilter {
				filtered = append(filtered, b)
			}
		}
		bodies = filtered
		if len(bodies) == 0 {
			fmt.Fprintf(os.Stderr, "no function named %q in the loaded programs\n", *funcFilter)
			os.Exit(1)
		}
	}

	logger.Infof(formatutil.Faint("Analyzing %d function(s)"), len(bodies))
	start := time.Now()
	results, err := taint.NewAnalyzer(logger, cfg).AnalyzeAll(bodies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("Analysis took %3.4f s", time.Since(start).Seconds())

	for _, res := range results {
		printResult(res)
	}
}

func printResult(res *taint.Result) {
	// function names come from a user-provided file; strip any escape sequences
	name := formatutil.Sanitize(res.Body.Name)
	fmt.Printf("%s (%d block visits)\n", formatutil.Bold(name), res.Iterations)
	for b := range res.Body.Blocks {
		entry := formatLocals(res.EntrySet(ir.BlockIndex(b)).Locals())
		exit := formatLocals(res.ExitSet(ir.BlockIndex(b)).Locals())
		fmt.Printf("  %s entry %s  exit %s\n", formatutil.Cyan(fmt.Sprintf("bb%-3d", b)), entry, exit)
	}
	for _, u := range res.Unsupported {
		fmt.Printf("  %s %s\n", formatutil.Yellow("approximated:"), u)
	}
}

func formatLocals(locals []int) string {
	if len(locals) == 0 {
		return formatutil.Green("{}")
	}
	names := funcutil.Map(locals, func(l int) string { return fmt.Sprintf("_%d", l) })
	return formatutil.Red("{" + strings.Join(names, ", ") + "}")
}
