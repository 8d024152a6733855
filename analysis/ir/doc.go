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
Package ir defines the intermediate representation consumed by the taint analysis: function bodies
made of basic blocks, each an ordered list of statements closed by exactly one terminator.

Instruction shapes are closed tagged variants (a Kind field matched explicitly), so every consumer
switches over the full set of cases and the shapes the analysis does not model are deliberate
cases instead of a silent default branch.

The package only describes programs; it performs no analysis. Bodies are typically built
programmatically by a host pipeline, or declaratively through the iryaml subpackage.
*/
package ir
