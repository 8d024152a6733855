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
Package config implements the yaml configuration of analysis runs and the leveled logging used
across the analyses.

A config file names taint problems (which locals of which functions start out tainted) and engine
options (log level, iteration cap, strict handling of approximated constructs):

	log-level: 3
	strict: false
	taint-problems:
	  - function: "handler"
	    seed: [1, 2]
*/
package config
