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

/*
Package taint implements a forward, intra-procedural may-taint analysis over the control-flow
graph of an ir.Body. For every basic block it computes the set of locals that may carry a value
derived from a taint source, as a fixed point of a monotone worklist iteration with union as the
join operator. The main entry point is the [Analyzer] and its [Analyzer.Analyze] function, which
returns a [Result] with per-block entry and exit taint sets and a per-statement query.

The analysis is conservative: instruction shapes it does not model leave the state unchanged, and
every such approximation is recorded on the result as an [UnsupportedConstruct] so that callers
can audit the gaps (or reject them outright with the strict option). The effect of a call's return
value is a named extension point ([CallReturnEffect]); the default leaves the destination local
untouched, which is unsound by omission and therefore also recorded.

Identifying sources and sinks, and reporting flows, are external collaborators: seeds come from
configuration or the caller, and the sink-checking pass consumes [Result.TaintedAt].
*/
package taint
