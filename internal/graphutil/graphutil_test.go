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
	"reflect"
	"testing"
)

func cfgFrom(succs [][]int) CFG {
	return NewCFG(len(succs), func(i int) []int { return succs[i] })
}

func TestPriorityOrderChainWithLoop(t *testing.T) {
	// 0 -> 1 -> 2 -> 1 (loop), 2 -> 3
	c := cfgFrom([][]int{{1}, {2}, {1, 3}, {}})
	p := PriorityOrder(c)
	if p[0] >= p[1] {
		t.Errorf("entry should come before the loop: p = %v", p)
	}
	if p[1] != p[2] {
		t.Errorf("blocks of one loop should share a priority: p = %v", p)
	}
	if p[3] <= p[1] {
		t.Errorf("loop exit should come after the loop: p = %v", p)
	}
}

func TestPriorityOrderDiamond(t *testing.T) {
	c := cfgFrom([][]int{{1, 2}, {3}, {3}, {}})
	p := PriorityOrder(c)
	if p[0] >= p[1] || p[0] >= p[2] {
		t.Errorf("entry should have the lowest priority: p = %v", p)
	}
	if p[3] <= p[1] || p[3] <= p[2] {
		t.Errorf("merge block should have the highest priority: p = %v", p)
	}
}

func TestLoops(t *testing.T) {
	c := cfgFrom([][]int{{1}, {2}, {1, 3}, {3}})
	loops := Loops(c)
	want := [][]int{{1, 2}, {3}} // 3 has a self-loop
	if len(loops) != 2 {
		t.Fatalf("expected 2 loops, got %v", loops)
	}
	for _, w := range want {
		found := false
		for _, l := range loops {
			if reflect.DeepEqual(l, w) {
				found = true
			}
		}
		if !found {
			t.Errorf("loop %v not found in %v", w, loops)
		}
	}
}

func TestLoopsNoneInDag(t *testing.T) {
	c := cfgFrom([][]int{{1, 2}, {3}, {3}, {}})
	if loops := Loops(c); len(loops) != 0 {
		t.Errorf("a DAG has no loops, got %v", loops)
	}
}

func TestUnreachable(t *testing.T) {
	// 3 and 4 are cut off from 0
	c := cfgFrom([][]int{{1}, {2}, {}, {4}, {}})
	if got := Unreachable(c, 0); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("Unreachable = %v, want [3 4]", got)
	}
	if got := Unreachable(cfgFrom([][]int{{1}, {}}), 0); got != nil {
		t.Errorf("all blocks reachable, got %v", got)
	}
}

func TestDirectedEdges(t *testing.T) {
	c := cfgFrom([][]int{{1, 1, 2}, {2}, {}})
	if !c.HasEdgeFromTo(0, 1) || c.HasEdgeFromTo(1, 0) {
		t.Errorf("edge direction not respected")
	}
	if !c.HasEdgeBetween(1, 0) {
		t.Errorf("HasEdgeBetween should ignore direction")
	}
	if c.Edge(0, 2) == nil || c.Edge(2, 0) != nil {
		t.Errorf("Edge should exist only in the stored direction")
	}

	// duplicate targets are deduplicated by the iterators
	from := c.From(0)
	count := 0
	for from.Next() {
		count++
	}
	if count != 2 {
		t.Errorf("From(0) should iterate 2 distinct successors, got %d", count)
	}

	to := c.To(2)
	var preds []int64
	for to.Next() {
		preds = append(preds, to.Node().ID())
	}
	if len(preds) != 2 {
		t.Errorf("To(2) should iterate 2 predecessors, got %v", preds)
	}
}

func TestNodesIterator(t *testing.T) {
	c := cfgFrom([][]int{{1}, {2}, {}})
	nodes := c.Nodes()
	if nodes.Len() != 3 {
		t.Errorf("fresh iterator should have 3 remaining, got %d", nodes.Len())
	}
	var ids []int64
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	if !reflect.DeepEqual(ids, []int64{0, 1, 2}) {
		t.Errorf("iterated ids = %v", ids)
	}
	nodes.Reset()
	if !nodes.Next() || nodes.Node().ID() != 0 {
		t.Errorf("iterator should restart after Reset")
	}
}
