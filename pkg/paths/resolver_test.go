package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	root := t.TempDir()
	r := NewResolver(root)
	r.WorkDir = t.TempDir()
	return r, root
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveAPIPrefix(t *testing.T) {
	r, root := newTestResolver(t)
	want := filepath.Join(root, "output", "task_1", "1.png")
	writeFile(t, want)

	got, tried, err := r.Resolve("/api/images/task_1/1.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v (tried %v)", err, tried)
	}
	if got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveURLSchemeStripped(t *testing.T) {
	r, root := newTestResolver(t)
	want := filepath.Join(root, "output", "task_2", "cover.png")
	writeFile(t, want)

	got, _, err := r.Resolve("http://localhost:5000/api/images/task_2/cover.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveOutputFallsBackToHistory(t *testing.T) {
	r, root := newTestResolver(t)
	archived := filepath.Join(root, "history", "task_3", "2.png")
	writeFile(t, archived)

	got, tried, err := r.Resolve("/output/task_3/2.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v (tried %v)", err, tried)
	}
	if got != archived {
		t.Errorf("resolved %q, want history fallback %q", got, archived)
	}

	// The output/ candidate must be tried before the history/ one.
	outputIdx, historyIdx := -1, -1
	for i, c := range tried {
		switch c {
		case filepath.Join(root, "output", "task_3", "2.png"):
			outputIdx = i
		case archived:
			historyIdx = i
		}
	}
	if outputIdx == -1 || historyIdx == -1 || outputIdx > historyIdx {
		t.Errorf("candidate order wrong: output=%d history=%d (%v)", outputIdx, historyIdx, tried)
	}
}

func TestResolveAbsolutePath(t *testing.T) {
	r, _ := newTestResolver(t)
	abs := filepath.Join(t.TempDir(), "direct.png")
	writeFile(t, abs)

	got, _, err := r.Resolve(abs)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != abs {
		t.Errorf("resolved %q, want %q", got, abs)
	}
}

func TestResolveRelativePrefersProjectRoot(t *testing.T) {
	r, root := newTestResolver(t)
	inRoot := filepath.Join(root, "assets", "a.png")
	writeFile(t, inRoot)
	writeFile(t, filepath.Join(r.WorkDir, "assets", "a.png"))

	got, _, err := r.Resolve("assets/a.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != inRoot {
		t.Errorf("resolved %q, want project-root candidate %q", got, inRoot)
	}
}

func TestCandidatesDeterministicAndDeduplicated(t *testing.T) {
	r, _ := newTestResolver(t)

	first := r.Candidates("/output/task_9/3.png")
	second := r.Candidates("/output/task_9/3.png")

	if len(first) == 0 {
		t.Fatal("expected candidates")
	}
	if len(first) != len(second) {
		t.Fatalf("candidate count differs across calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("candidate %d differs: %q vs %q", i, first[i], second[i])
		}
	}

	seen := map[string]bool{}
	for _, c := range first {
		if seen[c] {
			t.Errorf("duplicate candidate %q", c)
		}
		seen[c] = true
	}
}

func TestResolveMissingFile(t *testing.T) {
	r, _ := newTestResolver(t)

	_, tried, err := r.Resolve("/api/images/nope/missing.png")
	if err == nil {
		t.Fatal("expected resolution failure")
	}
	if len(tried) == 0 {
		t.Error("expected the tried list to be preserved on failure")
	}
}

func TestResolveEmptyReference(t *testing.T) {
	r, _ := newTestResolver(t)

	if _, _, err := r.Resolve("   "); err == nil {
		t.Fatal("expected failure for blank reference")
	}
}
