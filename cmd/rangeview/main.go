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
	"fmt"
	"os"

	"github.com/ssarange/rangeview/analysis/ranges"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	args := os.Args[2:]
	cmd := os.Args[1]

	var strategy ranges.Strategy
	var interprocedural bool
	switch cmd {
	case "intra-cousot":
		strategy, interprocedural = ranges.Cousot, false
	case "intra-cropdfs":
		strategy, interprocedural = ranges.CropDFS, false
	case "inter-cousot":
		strategy, interprocedural = ranges.Cousot, true
	case "inter-cropdfs":
		strategy, interprocedural = ranges.CropDFS, true
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}

	flags, err := NewFlags(cmd, args)
	if err != nil {
		errExit(err)
	}
	if err := Run(flags, strategy, interprocedural); err != nil {
		errExit(err)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(2)
}
