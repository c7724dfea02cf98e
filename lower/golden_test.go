package lower

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"github.com/RobertoMalatesta/descripten/ast"
)

// TestGoldenFixtures runs every fixture under testdata: each bundles a
// YAML-encoded program (the shape the external parser hands the
// lowering) with the dump lines its IR must contain. The structural
// invariants are checked on every fixture through mustLower.
func TestGoldenFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no fixtures under testdata")
	}

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txt"), func(t *testing.T) {
			arc, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}

			var programSrc, contains []byte
			for _, f := range arc.Files {
				switch f.Name {
				case "program.yaml":
					programSrc = f.Data
				case "contains":
					contains = f.Data
				default:
					t.Fatalf("unexpected fixture section %q", f.Name)
				}
			}
			if programSrc == nil || contains == nil {
				t.Fatal("fixture must carry program.yaml and contains sections")
			}

			var doc yaml.Node
			if err := yaml.Unmarshal(programSrc, &doc); err != nil {
				t.Fatalf("program.yaml: %v", err)
			}
			if len(doc.Content) != 1 {
				t.Fatalf("program.yaml: %d documents, want 1", len(doc.Content))
			}
			program, err := ast.DecodeProgram(doc.Content[0])
			if err != nil {
				t.Fatalf("program.yaml: %v", err)
			}

			m := mustLower(t, program)
			dump := m.Dump()

			for _, line := range strings.Split(string(contains), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				if !strings.Contains(dump, line) {
					t.Errorf("dump does not contain %q; dump:\n%s", line, dump)
				}
			}
		})
	}
}
