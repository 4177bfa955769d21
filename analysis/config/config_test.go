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
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return filename
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if c.Strategy != StrategyCousot {
		t.Errorf("default strategy should be %q, got %q", StrategyCousot, c.Strategy)
	}
	if c.Interprocedural {
		t.Errorf("default should not enable interprocedural analysis")
	}
	if c.MaxCallDepth != DefaultMaxCallDepth {
		t.Errorf("default max call depth should be %d, got %d", DefaultMaxCallDepth, c.MaxCallDepth)
	}
	if c.LogLevel != int(InfoLevel) {
		t.Errorf("default log level should be Info")
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if c != nil || err == nil {
		t.Errorf("expected error and nil config when loading a non-existent file")
	}
}

func TestLoadBadFormatFileReturnsError(t *testing.T) {
	filename := writeTempConfig(t, "options: [this is not a mapping")
	c, err := Load(filename)
	if c != nil || err == nil {
		t.Errorf("expected error and nil config when loading a malformed yaml file")
	}
}

func TestLoadUnknownStrategyReturnsError(t *testing.T) {
	filename := writeTempConfig(t, "options:\n  strategy: bogus\n")
	c, err := Load(filename)
	if c != nil || err == nil {
		t.Errorf("expected error and nil config when strategy is unrecognized")
	}
}

func TestLoadMinimalConfig(t *testing.T) {
	filename := writeTempConfig(t, "options:\n  log-level: 5\n")
	c, err := Load(filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.LogLevel != int(TraceLevel) {
		t.Errorf("expected trace log level, got %d", c.LogLevel)
	}
	// unset fields should still carry their defaults
	if c.Strategy != StrategyCousot {
		t.Errorf("expected default strategy when unspecified, got %q", c.Strategy)
	}
	if c.MaxCallDepth != DefaultMaxCallDepth {
		t.Errorf("expected default max call depth when unspecified, got %d", c.MaxCallDepth)
	}
}

func TestLoadFullConfig(t *testing.T) {
	filename := writeTempConfig(t, `options:
  log-level: 4
  strategy: cropdfs
  interprocedural: true
  bit-width-override: 64
  report-stats: true
  dump-dot: true
  pkg-filter: example.com/foo
  max-call-depth: 12
  silence-warn: true
`)
	c, err := Load(filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.LogLevel != int(DebugLevel) {
		t.Error("full config should have set debug log level")
	}
	if c.Strategy != StrategyCropDFS {
		t.Error("full config should have set cropdfs strategy")
	}
	if !c.Interprocedural {
		t.Error("full config should have enabled interprocedural analysis")
	}
	if c.BitWidthOverride != 64 {
		t.Error("full config should have set bit-width-override to 64")
	}
	if !c.ReportStats || !c.DumpDot {
		t.Error("full config should have enabled report-stats and dump-dot")
	}
	if c.ReportsDir == "" {
		t.Error("reports-dir should be created automatically when report-stats or dump-dot is set")
	}
	if !c.MatchPkgFilter("example.com/foo/bar") {
		t.Error("pkg-filter should match packages with the given prefix")
	}
	if c.MatchPkgFilter("example.com/other") {
		t.Error("pkg-filter should not match unrelated packages")
	}
	if c.MaxCallDepth != 12 {
		t.Error("full config should have set max-call-depth to 12")
	}
	if !c.SilenceWarn {
		t.Error("full config should have set silence-warn")
	}
	if !c.Verbose() {
		t.Error("debug level should be verbose")
	}
	if c.ExceedsMaxCallDepth(10) {
		t.Error("depth 10 should not exceed max-call-depth 12")
	}
	if !c.ExceedsMaxCallDepth(13) {
		t.Error("depth 13 should exceed max-call-depth 12")
	}
	os.RemoveAll(c.ReportsDir)
}
