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

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config controls how the range analysis driver loads a program and which fixpoint strategy it runs.
// To add elements to a config file, add fields to this struct. If some field is not defined in the config
// file, it will be empty/zero in the struct. Private fields are not populated from a yaml file, but computed
// after initialization.
type Config struct {
	Options

	sourceFile string

	// statsReportFile is a file name in ReportsDir when ReportStats is true
	statsReportFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp
}

type Options struct {
	// ReportsDir is the directory where all the reports (stats, dot dumps) will be stored. If the yaml config
	// file this config struct has been loaded from does not specify a ReportsDir but sets ReportStats or DumpDot
	// to true, then a new directory named *-report is created for it in the folder of that config file.
	ReportsDir string `yaml:"reports-dir"`

	// PkgFilter restricts graph construction to functions whose package matches the prefix/regex.
	PkgFilter string `yaml:"pkg-filter"`

	// Strategy selects the fixpoint strategy: StrategyCousot (widen/narrow) or StrategyCropDFS
	// (growth/crop). Defaults to StrategyCousot.
	Strategy string `yaml:"strategy"`

	// Interprocedural enables the inter-procedural matcher connecting actual/formal parameters and call-site
	// return values across the whole-program call graph. When false, only intra-procedural constraint graphs
	// are built.
	Interprocedural bool `yaml:"interprocedural"`

	// BitWidthOverride, when > 0, overrides the bit width used for the saturating Min/Max sentinels instead of
	// computing it from the maximum integer type width observed in the loaded program.
	BitWidthOverride int `yaml:"bit-width-override"`

	// ReportStats specifies whether phase timings and per-kind VarNode counters should be reported. The
	// rangeview driver writes each function's report to standard output, not to the reports directory.
	ReportStats bool `yaml:"report-stats"`

	// DumpDot specifies whether the constraint graph should be dumped in DOT format to the reports directory.
	DumpDot bool `yaml:"dump-dot"`

	// MaxCallDepth sets a call depth limit, checked by ExceedsMaxCallDepth.
	// Default is -1. If provided MaxCallDepth is <= 0, then it is ignored.
	// The inter-procedural matcher (ranges.ConnectCalls) does not consult this limit.
	MaxCallDepth int `yaml:"max-call-depth"`

	// LogLevel controls the verbosity of the tool.
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings.
	SilenceWarn bool `yaml:"silence-warn"`

	// Exclude lists source file or directory paths (relative to the working directory, or absolute) whose
	// functions are skipped entirely when building constraint graphs.
	Exclude []string `yaml:"exclude"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:      "",
		statsReportFile: "",
		Options: Options{
			ReportsDir:       "",
			PkgFilter:        "",
			Strategy:         StrategyCousot,
			Interprocedural:  false,
			BitWidthOverride: 0,
			ReportStats:      false,
			DumpDot:          false,
			MaxCallDepth:     DefaultMaxCallDepth,
			LogLevel:         int(InfoLevel),
			SilenceWarn:      false,
		},
	}
}

// Load reads a configuration from a yaml file.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	if cfg.ReportStats || cfg.DumpDot {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	// Set the MaxCallDepth default if it is 0 (unset in yaml)
	if cfg.MaxCallDepth == 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}

	if cfg.Strategy == "" {
		cfg.Strategy = StrategyCousot
	}
	if cfg.Strategy != StrategyCousot && cfg.Strategy != StrategyCropDFS {
		return nil, fmt.Errorf("unknown strategy %q, expected %q or %q", cfg.Strategy, StrategyCousot, StrategyCropDFS)
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	return cfg, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
	} else {
		err := os.Mkdir(c.ReportsDir, 0750)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("could not create directory %s", c.ReportsDir)
			}
		}
	}
	return nil
}

// StatsReportFile returns the file name that will contain the stats report, once one has been written.
func (c *Config) StatsReportFile() string {
	return c.statsReportFile
}

// SetStatsReportFile records the file name the stats report was written to.
func (c *Config) SetStatsReportFile(filename string) {
	c.statsReportFile = filename
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function
// safely considers the case where a filter has been specified by the user, but it could not be compiled to a
// regex: the safe case is to check whether the package filter string is a prefix of the pkgname.
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}

// Verbose returns true if the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxCallDepth returns true if d exceeds the maximum call depth parameter of the configuration.
// If the configuration setting is <= 0, the limit is ignored and this always returns false.
func (c Config) ExceedsMaxCallDepth(d int) bool {
	if c.MaxCallDepth <= 0 {
		return false
	}
	return d > c.MaxCallDepth
}
