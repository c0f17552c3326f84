package browser

import "errors"

// ErrLaunchFailed means every browser launch channel in the fallback chain
// was exhausted. Fatal: there is no browser to drive.
var ErrLaunchFailed = errors.New("browser launch failed")
