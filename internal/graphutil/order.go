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

package graphutil

import (
	"sort"

	"github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/mirtaint/mirtaint/internal/funcutil"
)

// PriorityOrder returns a priority for every block such that, ignoring back edges, a block has a
// lower priority than its successors. Processing lower priorities first in a forward dataflow
// worklist visits a block after its forward predecessors and reduces the number of re-visits.
//
// Priorities are derived from the topological order of the strongly connected component
// condensation; blocks in the same component (a loop) share a priority.
func PriorityOrder(c CFG) []int {
	sccs := topo.TarjanSCC(c)
	priority := make([]int, c.Order())
	// TarjanSCC returns components in reverse topological order
	for i, scc := range sccs {
		p := len(sccs) - 1 - i
		for _, node := range scc {
			priority[node.ID()] = p
		}
	}
	return priority
}

// Loops returns the strongly connected components of the CFG that contain a cycle, each as a
// sorted list of block indices.
func Loops(c CFG) [][]int {
	var loops [][]int
	for _, scc := range topo.TarjanSCC(c) {
		if len(scc) == 1 {
			id := scc[0].ID()
			if !c.HasEdgeFromTo(id, id) {
				continue
			}
		}
		loop := make([]int, len(scc))
		for i, node := range scc {
			loop[i] = int(node.ID())
		}
		sort.Ints(loop)
		loops = append(loops, loop)
	}
	return loops
}

// Unreachable returns the blocks that cannot be reached from root, in increasing order.
func Unreachable(c CFG, root int) []int {
	unreachable := make(map[int]bool, c.Order())
	for i := 0; i < c.Order(); i++ {
		unreachable[i] = true
	}
	if root >= 0 && root < c.Order() {
		unreachable[root] = false
		graph.BFS(c, root, func(_, w int, _ int64) {
			unreachable[w] = false
		})
	}
	return funcutil.SetToOrderedSlice(unreachable)
}
