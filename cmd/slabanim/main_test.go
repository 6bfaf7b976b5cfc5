package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestRunWritesReportsAndHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	reports := filepath.Join(dir, "reports")

	var out bytes.Buffer
	err := run([]string{
		"-script", "../../examples/tower.slab",
		"-report", reports,
		"-db", db,
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"coll0", "coll3", "recorded run"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	for _, f := range []string{"curves.png", "timeline.html"} {
		if _, err := os.Stat(filepath.Join(reports, f)); err != nil {
			t.Errorf("missing report %s: %v", f, err)
		}
	}

	id := regexp.MustCompile(`recorded run (\S+)`).FindStringSubmatch(text)
	if id == nil {
		t.Fatalf("no run id in output:\n%s", text)
	}

	out.Reset()
	if err := run([]string{"-db", db, "-history", "5"}, &out); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), id[1]) {
		t.Errorf("history does not list %s:\n%s", id[1], out.String())
	}

	out.Reset()
	if err := run([]string{"-db", db, "-show", id[1]}, &out); err != nil {
		t.Fatalf("show: %v", err)
	}
	if got := strings.Count(out.String(), "coll"); got != 4 {
		t.Errorf("expected 4 scheduled units, got %d:\n%s", got, out.String())
	}
}

func TestRunFlagsOverrideScript(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{
		"-script", "../../examples/tower.slab",
		"-slices", "2",
		"-duration", "6",
		"-no-report",
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out.String(), "coll2") {
		t.Errorf("expected 2 slabs:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "coll1") {
		t.Errorf("missing coll1:\n%s", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"-script", "does-not-exist.slab"},
		{"-script", "../../examples/tower.slab", "-slices", "0", "-no-report"},
		{"-script", "../../examples/tower.slab", "-objects", "ghost", "-no-report"},
		{"-history", "3"},
		{"-bogus"},
	}
	for _, args := range cases {
		var out bytes.Buffer
		if err := run(args, &out); err == nil {
			t.Errorf("run(%q): expected error", args)
		}
	}
}
