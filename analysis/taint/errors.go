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

package taint

import (
	"fmt"
	"strings"

	"github.com/mirtaint/mirtaint/analysis/ir"
)

// An UnsupportedConstruct records one instruction whose taint effect the analysis approximated as
// "no effect". The approximation is conservative for generated taint but can miss kills, so the
// records are kept on the result for audit.
type UnsupportedConstruct struct {
	// Function is the name of the body the construct appears in.
	Function string

	// Loc is the position of the instruction.
	Loc ir.Location

	// Construct names the instruction shape, e.g. "aggregate rvalue".
	Construct string
}

func (u UnsupportedConstruct) String() string {
	return fmt.Sprintf("%s at %v in %s", u.Construct, u.Loc, u.Function)
}

// An UnsupportedError is returned instead of a result when the strict option is set and the
// analysis met constructs it can only approximate.
type UnsupportedError struct {
	Constructs []UnsupportedConstruct
}

func (e *UnsupportedError) Error() string {
	names := make([]string, len(e.Constructs))
	for i, c := range e.Constructs {
		names[i] = c.String()
	}
	return fmt.Sprintf("analysis requires approximating %d unsupported construct(s): %s",
		len(e.Constructs), strings.Join(names, "; "))
}

// A NonConvergenceError reports that the fixed-point iteration exceeded its cap. Since the domain
// is a finite lattice and join is monotone union, this indicates a transfer-function bug
// violating monotonicity, not a property of the analyzed program.
type NonConvergenceError struct {
	Function   string
	Iterations int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("analysis of %s did not converge after %d iterations (internal invariant violated)",
		e.Function, e.Iterations)
}
