// Package paths resolves logical image references to files on disk.
//
// The frontend hands the publisher URL-ish strings ("/api/images/task_1/1.png",
// "output/task_1/1.png", absolute paths); the resolver maps each to an ordered
// list of filesystem candidates and returns the first that exists.
package paths

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotResolved is returned when no candidate for a reference exists on disk.
var ErrNotResolved = errors.New("image reference did not resolve to an existing file")

// Resolver maps logical image references into the project tree.
type Resolver struct {
	// ProjectRoot anchors the output/ and history/ directories.
	ProjectRoot string

	// WorkDir is the fallback base for relative references. Empty means the
	// process working directory.
	WorkDir string
}

// NewResolver creates a resolver anchored at projectRoot.
func NewResolver(projectRoot string) *Resolver {
	return &Resolver{ProjectRoot: projectRoot}
}

// Resolve returns the first existing filesystem location for raw, along with
// the ordered, de-duplicated candidate trace that was searched. The trace is
// returned on failure too, so callers can log what was tried.
func (r *Resolver) Resolve(raw string) (string, []string, error) {
	candidates := r.Candidates(raw)
	if len(candidates) == 0 {
		return "", nil, fmt.Errorf("%w: empty reference", ErrNotResolved)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, candidates, nil
		}
	}

	return "", candidates, fmt.Errorf("%w: %q (tried %d locations)", ErrNotResolved, raw, len(candidates))
}

// Candidates generates the ordered search list for raw without touching the
// filesystem. Order encodes preference; duplicates are removed by absolute
// form, keeping the first occurrence.
func (r *Resolver) Candidates(raw string) []string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	// Strip a recognized URL scheme and host, keeping only the path.
	if parsed, err := url.Parse(value); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		value = parsed.Path
	}
	value = strings.ReplaceAll(value, "\\", "/")

	var candidates []string

	if filepath.IsAbs(value) {
		candidates = append(candidates, value)
	}

	// Frontend API form: /api/images/task_x/1.png -> output/task_x/1.png
	if rel, ok := cutAnyPrefix(value, "/api/images/", "api/images/"); ok {
		candidates = append(candidates, filepath.Join(r.ProjectRoot, "output", rel))
	}

	// Output form: /output/task_x/1.png, with a history/ fallback for images
	// that have been archived under the same relative suffix.
	if rel, ok := cutAnyPrefix(value, "/output/", "output/"); ok {
		candidates = append(candidates,
			filepath.Join(r.ProjectRoot, "output", rel),
			filepath.Join(r.ProjectRoot, "history", rel),
		)
	}

	// Any other relative form: project root first, then the working directory.
	if !filepath.IsAbs(value) {
		rel := strings.TrimLeft(value, "/")
		candidates = append(candidates, filepath.Join(r.ProjectRoot, rel))
		candidates = append(candidates, filepath.Join(r.workDir(), rel))
	}

	return dedupeByAbs(candidates)
}

func (r *Resolver) workDir() string {
	if r.WorkDir != "" {
		return r.WorkDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func cutAnyPrefix(s string, prefixes ...string) (string, bool) {
	for _, prefix := range prefixes {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			return rest, true
		}
	}
	return "", false
}

func dedupeByAbs(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := c
		if abs, err := filepath.Abs(c); err == nil {
			key = abs
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	return result
}
