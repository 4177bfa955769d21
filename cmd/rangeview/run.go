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
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/ssarange/rangeview/analysis"
	"github.com/ssarange/rangeview/analysis/config"
	"github.com/ssarange/rangeview/analysis/ranges"
	"github.com/ssarange/rangeview/internal/formatutil"
	"github.com/ssarange/rangeview/internal/funcutil"
)

// Run loads the program named by flags' remaining arguments, builds a constraint graph per function, connects
// the inter-procedural matcher when interprocedural is set, solves every graph, and reports the results
// (§4.N). It mirrors the teacher's per-subcommand Run(flags) entrypoint convention.
func Run(flags Flags, strategy ranges.Strategy, interprocedural bool) error {
	cfg, err := LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	cfg.Interprocedural = interprocedural
	if len(flags.ExcludePaths) > 0 {
		cfg.Exclude = flags.ExcludePaths
	}

	loaded, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}

	cache, err := ranges.NewCache(loaded.Program, cfg)
	if err != nil {
		return fmt.Errorf("could not build analysis cache: %w", err)
	}
	cache.Log.Infof("%s", formatutil.Faint("rangeview - analyzing with strategy "+strategy.String()))

	fns := sortedFunctions(loaded.Program)
	cache.Log.Debugf("functions considered: %v", funcutil.Map(fns, (*ssa.Function).String))

	if cfg.ReportStats {
		allFuncs := ssautil.AllFunctions(loaded.Program)
		ssaStats := analysis.SSAStatistics(&allFuncs, nil)
		cache.Log.Infof("program has %d functions (%d non-empty), %d blocks, %d instructions",
			ssaStats.NumberOfFunctions, ssaStats.NumberOfNonemptyFunctions,
			ssaStats.NumberOfBlocks, ssaStats.NumberOfInstructions)
	}

	excludeAbs := analysis.MakeAbsolute(cfg.Exclude)
	graphs := map[*ssa.Function]*ranges.ConstraintGraph{}
	buildDurs := map[*ssa.Function]time.Duration{}
	for _, fn := range fns {
		if len(fn.Blocks) == 0 || !cfg.MatchPkgFilter(pkgPath(fn)) {
			continue
		}
		if analysis.IsExcluded(loaded.Program, fn, excludeAbs) {
			cache.Log.Debugf("skipping excluded function %s", fn.String())
			continue
		}
		buildStart := time.Now()
		g := ranges.NewConstraintGraph(cache.Width)
		g.BuildGraph(fn)
		buildDurs[fn] = time.Since(buildStart)
		graphs[fn] = g
	}

	if cfg.Interprocedural {
		ranges.ConnectCalls(cache.Cache, graphs)
	}

	for _, fn := range fns {
		g, ok := graphs[fn]
		if !ok {
			continue
		}
		start := time.Now()
		g.FindIntervals(strategy)
		elapsed := time.Since(start)

		if cfg.ReportStats {
			stats := ranges.CollectStats(g, fn.String(), buildDurs[fn], elapsed)
			stats.WriteReport(os.Stdout)
		}
		if cfg.DumpDot && cfg.ReportsDir != "" {
			if err := dumpDot(cfg.ReportsDir, fn, g); err != nil {
				cache.Log.Warnf("could not dump dot for %s: %v", fn.String(), err)
			}
		}
		if cfg.Verbose() {
			reportRanges(cache, fn, g)
		}
	}

	return nil
}

func sortedFunctions(prog *ssa.Program) []*ssa.Function {
	all := ssautil.AllFunctions(prog)
	out := make([]*ssa.Function, 0, len(all))
	for fn := range all {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func pkgPath(fn *ssa.Function) string {
	if fn.Package() == nil || fn.Package().Pkg == nil {
		return ""
	}
	return fn.Package().Pkg.Path()
}

func dumpDot(dir string, fn *ssa.Function, g *ranges.ConstraintGraph) error {
	b, err := g.DumpDot(fn.String())
	if err != nil {
		return err
	}
	name := filepath.Join(dir, sanitizeFileName(fn.String())+".dot")
	return os.WriteFile(name, b, 0644)
}

func sanitizeFileName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func reportRanges(cache *ranges.Cache, fn *ssa.Function, g *ranges.ConstraintGraph) {
	cache.Log.Debugf("%s", formatutil.Bold(fn.String()))
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			v, ok := instr.(ssa.Value)
			if !ok {
				continue
			}
			r := g.GetRange(v)
			if r.IsUnknown() {
				continue
			}
			cache.Log.Debugf("  %s = %s", v.Name(), r.String())
		}
	}
}
