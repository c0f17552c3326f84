package publish

import (
	"errors"
	"fmt"
)

// Request is one publish job. Title and content limits are enforced once,
// at the start of the flow; downstream stages use the truncated values
// as-is.
type Request struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	ImageRefs []string `json:"image_paths"`
	Tags      []string `json:"tags"`

	// TraceID correlates the request's log lines. Empty means unlabeled.
	TraceID string `json:"-"`
}

// Result is the structured outcome of a publish. Err carries the typed
// failure for callers that branch on cause; ErrorMessage is the
// human-readable reason surfaced to the API envelope.
type Result struct {
	Success      bool   `json:"success"`
	NoteID       string `json:"note_id,omitempty"`
	URL          string `json:"url,omitempty"`
	ErrorMessage string `json:"error,omitempty"`

	Err error `json:"-"`
}

// TagsOutcome reports the best-effort tag stage. By construction it carries
// no failure that can abort a publish; a skipped stage is recorded here and
// logged, nothing more.
type TagsOutcome struct {
	Attempted int
	Added     int
	Skipped   bool
	Reason    string
}

// Failure taxonomy. Navigation and control failures deliberately leave the
// browser open for inspection; the login failure aborts before any page
// mutation.
var (
	// ErrInvalidRequest means the request was rejected before touching the
	// page: empty title or no image references at all.
	ErrInvalidRequest = errors.New("invalid publish request")

	// ErrLoginRequired means the passive precondition check reported
	// logged-out.
	ErrLoginRequired = errors.New("not logged in")

	// ErrNavigationFailed means the retry ladder for the publish page was
	// exhausted.
	ErrNavigationFailed = errors.New("publish page navigation failed")

	// ErrNoImages means the request carried no image reference that
	// resolved to an existing file.
	ErrNoImages = errors.New("no usable image")

	// ErrEditorNotReady means the title/content editors never mounted
	// within the bounded wait.
	ErrEditorNotReady = errors.New("editor not ready")

	// ErrVerificationFailed means the submit click went through but no note
	// identity could be confirmed afterward.
	ErrVerificationFailed = errors.New("publish result unconfirmed")
)

func traceLabel(traceID string) string {
	if traceID == "" {
		return "[publish:-]"
	}
	return fmt.Sprintf("[publish:%s]", traceID)
}

func failure(err error, message string) *Result {
	return &Result{ErrorMessage: message, Err: err}
}
