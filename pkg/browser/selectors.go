package browser

import (
	"errors"
	"fmt"
)

// ErrControlNotFound is returned when no candidate in an ordered locator
// list matched a usable control.
var ErrControlNotFound = errors.New("no matching control for any locator candidate")

// CandidateList is an ordered set of locator descriptors for one logical UI
// action. Order encodes preference, not equivalence: candidates are probed
// first to last and probing stops at the first success.
type CandidateList []string

// FirstMatch probes candidates in order and returns the first matching
// control together with the selector that hit. Probe failures on individual
// candidates are skipped. When nothing matches, the error wraps
// ErrControlNotFound.
func FirstMatch(surface ControlSurface, candidates CandidateList) (Control, string, error) {
	for _, selector := range candidates {
		control, err := surface.Find(selector)
		if err != nil {
			continue
		}
		if control != nil {
			return control, selector, nil
		}
	}
	return nil, "", fmt.Errorf("%w (%d candidates)", ErrControlNotFound, len(candidates))
}

// ClickFirst clicks the first matching candidate and returns the selector
// that hit.
func ClickFirst(surface ControlSurface, candidates CandidateList) (string, error) {
	control, selector, err := FirstMatch(surface, candidates)
	if err != nil {
		return "", err
	}
	if err := control.Click(); err != nil {
		return selector, fmt.Errorf("click %q: %w", selector, err)
	}
	return selector, nil
}

// SetFilesFirst scans every surface for candidates in order and assigns
// paths to the first control that accepts them. Each surface is scanned
// fully before moving to the next; the scan stops on the first success.
func SetFilesFirst(surfaces []ControlSurface, candidates CandidateList, paths []string) (string, error) {
	for _, surface := range surfaces {
		for _, selector := range candidates {
			controls, err := surface.FindAll(selector)
			if err != nil {
				continue
			}
			for _, control := range controls {
				if err := control.SetFiles(paths); err == nil {
					return selector, nil
				}
			}
		}
	}
	return "", fmt.Errorf("file input: %w", ErrControlNotFound)
}
