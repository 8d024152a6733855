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

// Package graphutil provides graph views and orderings over control-flow graphs, identified by
// dense integer block indices.
package graphutil

import (
	"gonum.org/v1/gonum/graph"
)

// CFG is an adjacency view over the blocks of a function body. It is an abstraction to work with
// existing graph libraries: it implements the graph.Iterator interface of yourbasic/graph and the
// graph.Directed interface of gonum.
type CFG struct {
	// succs is the successor relation: succs[i] lists the blocks block i jumps to.
	succs [][]int

	// preds is the reversed relation, fed by NewCFG.
	preds [][]int
}

// NewCFG builds a CFG view over order blocks, with successors given by succs.
func NewCFG(order int, succs func(int) []int) CFG {
	c := CFG{
		succs: make([][]int, order),
		preds: make([][]int, order),
	}
	for i := 0; i < order; i++ {
		c.succs[i] = succs(i)
		for _, j := range c.succs[i] {
			c.preds[j] = append(c.preds[j], i)
		}
	}
	return c
}

// Order returns the number of blocks; it implements the graph.Iterator interface of
// yourbasic/graph.
func (c CFG) Order() int {
	return len(c.succs)
}

// Visit calls do for every edge out of block v; it implements the graph.Iterator interface of
// yourbasic/graph.
func (c CFG) Visit(v int, do func(w int, cost int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(c.succs) {
		return false
	}
	for _, w := range c.succs[v] {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// *************** gonum graph.Directed implementation **********************

// Node implements the gonum graph.Graph interface.
func (c CFG) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(c.succs)) {
		return nil
	}
	return BlockNode(id)
}

// Nodes returns an iterator over all blocks.
func (c CFG) Nodes() graph.Nodes {
	ids := make([]int64, len(c.succs))
	for i := range ids {
		ids[i] = int64(i)
	}
	return &nodeSet{ids: ids, cur: -1}
}

// From returns an iterator over the successors of the given block.
func (c CFG) From(id int64) graph.Nodes {
	return c.neighborSet(c.succs, id)
}

// To returns an iterator over the predecessors of the given block.
func (c CFG) To(id int64) graph.Nodes {
	return c.neighborSet(c.preds, id)
}

func (c CFG) neighborSet(rel [][]int, id int64) graph.Nodes {
	if id < 0 || id >= int64(len(rel)) {
		return &nodeSet{cur: -1}
	}
	seen := make(map[int64]bool, len(rel[id]))
	var ids []int64
	for _, w := range rel[id] {
		// a terminator may name the same target twice
		if !seen[int64(w)] {
			seen[int64(w)] = true
			ids = append(ids, int64(w))
		}
	}
	return &nodeSet{ids: ids, cur: -1}
}

// HasEdgeFromTo returns true when there is a directed edge from block uid to block vid.
func (c CFG) HasEdgeFromTo(uid, vid int64) bool {
	if uid < 0 || uid >= int64(len(c.succs)) {
		return false
	}
	for _, w := range c.succs[uid] {
		if int64(w) == vid {
			return true
		}
	}
	return false
}

// HasEdgeBetween returns true when an edge exists between the two blocks in either direction.
func (c CFG) HasEdgeBetween(xid, yid int64) bool {
	return c.HasEdgeFromTo(xid, yid) || c.HasEdgeFromTo(yid, xid)
}

// Edge returns the edge between the two block identifiers (nil if none exists).
func (c CFG) Edge(uid, vid int64) graph.Edge {
	if c.HasEdgeFromTo(uid, vid) {
		return BlockEdge{from: BlockNode(uid), to: BlockNode(vid)}
	}
	return nil
}

// BlockNode wraps a block index to implement the gonum graph.Node interface.
type BlockNode int64

// ID returns the block index as a node id.
func (n BlockNode) ID() int64 {
	return int64(n)
}

// BlockEdge implements the gonum graph.Edge interface.
type BlockEdge struct {
	from BlockNode
	to   BlockNode
}

// From returns the origin of the edge.
func (e BlockEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge.
func (e BlockEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge.
func (e BlockEdge) ReversedEdge() graph.Edge {
	return BlockEdge{from: e.to, to: e.from}
}

// nodeSet implements the gonum graph.Nodes interface, an iterator over a set of block nodes.
type nodeSet struct {
	ids []int64
	cur int
}

// Next moves the iterator to the next node and returns true if one exists.
func (ns *nodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of nodes remaining in the iterator.
func (ns *nodeSet) Len() int {
	return len(ns.ids) - ns.cur - 1
}

// Reset rewinds the iterator to before the first node.
func (ns *nodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node.
func (ns *nodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return BlockNode(ns.ids[ns.cur])
}
