package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/dhuston/livingmap/pkg/layout"
)

const testGraphJSON = `{
	"nodes": [
		{"id": "alice", "type": "person", "label": "Alice"},
		{"id": "platform", "type": "team"},
		{"id": "roadmap", "type": "project"}
	],
	"edges": [
		{"source": "alice", "target": "platform", "type": "member_of"},
		{"source": "platform", "target": "roadmap", "type": "owns"}
	]
}`

func newTestCLI() *CLI {
	return New(os.Stderr, log.ErrorLevel)
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newTestCLI().RootCommand()

	want := []string{"fetch", "layout", "render", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single", "png", []string{"png"}},
		{"multiple", "dot,svg,png", []string{"dot", "svg", "png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(input, []byte(testGraphJSON), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.layout.json")

	root := newTestCLI().RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"layout", input,
		"-o", output,
		"--no-cache",
		"--iterations", "30",
		"--seed", "42",
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("layout command failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var out layout.RunOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("output is not valid layout JSON: %v", err)
	}
	if len(out.Positions) != 3 {
		t.Errorf("got %d positions, want 3", len(out.Positions))
	}
	if out.Seed != 42 {
		t.Errorf("seed = %d, want 42", out.Seed)
	}
}

func TestLayoutCommandDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "team.json")
	if err := os.WriteFile(input, []byte(testGraphJSON), 0644); err != nil {
		t.Fatal(err)
	}

	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"layout", input, "--no-cache", "--iterations", "10"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("layout command failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "team.layout.json")); err != nil {
		t.Errorf("expected default output next to input: %v", err)
	}
}

func TestLayoutCommandMissingInput(t *testing.T) {
	root := newTestCLI().RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"layout", filepath.Join(t.TempDir(), "nope.json")})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestRenderCommandDOT(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(input, []byte(testGraphJSON), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "graph")

	root := newTestCLI().RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"render", input,
		"-o", output,
		"--formats", "dot",
		"--no-cache",
		"--iterations", "30",
		"--seed", "42",
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("render command failed: %v", err)
	}

	data, err := os.ReadFile(output + ".dot")
	if err != nil {
		t.Fatalf("read dot output: %v", err)
	}
	if !bytes.Contains(data, []byte("graph G {")) {
		t.Error("dot output missing graph header")
	}
	if !bytes.Contains(data, []byte(`"alice"`)) {
		t.Error("dot output missing node")
	}
}
