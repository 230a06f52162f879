package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReport_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "report.zip")

	conf := ReporterConfig{Destination: dest}
	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	srcPath := filepath.Join(tmpDir, "input.css")
	if err := os.WriteFile(srcPath, []byte("color:red;"), 0644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}

	rpt.Store("input/input.css", srcPath)
	rpt.Store("missing.log", filepath.Join(tmpDir, "does-not-exist"))
	rpt.StoreData("trace/normalize", []byte("state-1"))
	rpt.StoreData("trace/normalize", []byte("state-2")) // versioned, not overwritten

	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	arc, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("report is not a readable zip: %v", err)
	}
	defer arc.Close()

	names := make(map[string]string)
	for _, f := range arc.File {
		r, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(r)
		r.Close()
		names[f.Name] = string(data)
	}

	if _, ok := names["MANIFEST"]; !ok {
		t.Error("report lacks MANIFEST")
	}
	if names["input/input.css"] != "color:red;" {
		t.Errorf("input file content = %q", names["input/input.css"])
	}
	if _, ok := names["missing.log"]; ok {
		t.Error("absent files must be skipped, not archived")
	}

	traces := 0
	for name := range names {
		if strings.HasPrefix(name, "trace/normalize") {
			traces++
		}
	}
	if traces != 2 {
		t.Errorf("got %d trace entries, want both versions", traces)
	}
}

func TestReport_NilIsNoop(t *testing.T) {
	var rpt *Report

	rpt.Store("a", "b")
	rpt.StoreData("c", []byte("d"))
	if err := rpt.Close(); err != nil {
		t.Errorf("nil report Close() error = %v", err)
	}
	if rpt.Name() != "" {
		t.Errorf("nil report Name() = %q, want empty", rpt.Name())
	}
}
