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

// Package lattice implements the abstract domain of the may-taint analysis: finite sets of local
// indices ordered by inclusion, with union as the join operator. The empty set is bottom and means
// "definitely untainted".
package lattice

import (
	"fmt"

	"golang.org/x/tools/container/intsets"
)

// A TaintSet is the abstract state of the analysis at one program point. Membership of a local
// index means the local may carry tainted data at that point.
//
// A TaintSet is created with a fixed size and panics when queried or mutated with an index outside
// [0, size). An out-of-range index is a bug in the IR provider, not a recoverable condition.
//
// TaintSet values must not be copied; use Copy.
type TaintSet struct {
	size int
	bits intsets.Sparse
}

// Bottom returns the empty taint set over size locals.
func Bottom(size int) *TaintSet {
	if size < 0 {
		panic(fmt.Sprintf("lattice: negative taint set size %d", size))
	}
	return &TaintSet{size: size}
}

// Size returns the number of locals the set ranges over. The size of a set never changes.
func (s *TaintSet) Size() int {
	return s.size
}

func (s *TaintSet) checkBounds(local int) {
	if local < 0 || local >= s.size {
		panic(fmt.Sprintf("lattice: local %d out of range [0, %d)", local, s.size))
	}
}

// Contains returns true when local is possibly tainted in this state.
func (s *TaintSet) Contains(local int) bool {
	s.checkBounds(local)
	return s.bits.Has(local)
}

// Set marks local as possibly tainted.
func (s *TaintSet) Set(local int) {
	s.checkBounds(local)
	s.bits.Insert(local)
}

// Clear marks local as untainted.
func (s *TaintSet) Clear(local int) {
	s.checkBounds(local)
	s.bits.Remove(local)
}

// Join unions other into s and reports whether s changed. This is the only join operator of the
// analysis. Both sets must range over the same number of locals.
func (s *TaintSet) Join(other *TaintSet) bool {
	if s.size != other.size {
		panic(fmt.Sprintf("lattice: join of taint sets with sizes %d and %d", s.size, other.size))
	}
	return s.bits.UnionWith(&other.bits)
}

// Equal returns true when both sets contain exactly the same locals.
func (s *TaintSet) Equal(other *TaintSet) bool {
	return s.size == other.size && s.bits.Equals(&other.bits)
}

// Copy returns an independent copy of s.
func (s *TaintSet) Copy() *TaintSet {
	c := &TaintSet{size: s.size}
	c.bits.Copy(&s.bits)
	return c
}

// Len returns the number of possibly tainted locals.
func (s *TaintSet) Len() int {
	return s.bits.Len()
}

// Locals returns the possibly tainted locals in increasing order.
func (s *TaintSet) Locals() []int {
	return s.bits.AppendTo(nil)
}

func (s *TaintSet) String() string {
	return s.bits.String()
}
