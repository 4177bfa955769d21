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

	"github.com/ssarange/rangeview/analysis/config"
)

const usage = `rangeview: integer range analysis for Go programs
Usage:
  rangeview [subcommand] [options] <package path(s)>
Subcommands:
  - intra-cousot: intra-procedural analysis with the Cousot widen/narrow strategy
  - intra-cropdfs: intra-procedural analysis with the CropDFS growth/crop strategy
  - inter-cousot: whole-program (inter-procedural) analysis with the Cousot strategy
  - inter-cropdfs: whole-program (inter-procedural) analysis with the CropDFS strategy
Examples:
  rangeview intra-cousot --config=config.yaml ./...
  rangeview inter-cropdfs --config=config.yaml ./...`

// Flags holds one subcommand invocation's parsed command-line arguments (§4.N).
type Flags struct {
	FlagSet      *flag.FlagSet
	ConfigPath   string
	Verbose      bool
	ExcludePaths []string
}

// NewFlags parses a subcommand's common flags (-config, -verbose, -exclude) plus whatever package paths
// remain, sharing the teacher's flag.FlagSet-per-subcommand convention.
func NewFlags(name string, args []string) (Flags, error) {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := cmd.String("config", "", "config file path for analysis")
	verbose := cmd.Bool("verbose", false, "verbose printing on standard output")
	exclude := cmd.String("exclude", "", "comma-separated list of file or directory paths to exclude from analysis")
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", usage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
	if err := cmd.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command %s with args %v: %w", name, args, err)
	}
	var excludePaths []string
	if *exclude != "" {
		excludePaths = strings.Split(*exclude, ",")
	}
	return Flags{FlagSet: cmd, ConfigPath: *configPath, Verbose: *verbose, ExcludePaths: excludePaths}, nil
}

// LoadConfig loads the config file at configPath, or returns a default config when configPath is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.NewDefault(), nil
	}
	return config.Load(configPath)
}
