package browser

import "time"

// Options configures the managed browser session.
type Options struct {
	// DataDir holds the persisted credential artifacts. Defaults to "data"
	// under the working directory.
	DataDir string

	// Headless controls whether the browser runs without a visible window.
	// QR login requires a visible window, so the default is headed.
	Headless bool
}

// UserInfo identifies the logged-in platform account.
type UserInfo struct {
	Name string `json:"name"`
}

// LoginStatus is the outcome of a login-state check. A check never raises;
// failures surface through Error with LoggedIn=false.
type LoginStatus struct {
	LoggedIn  bool      `json:"logged_in"`
	UserInfo  *UserInfo `json:"user_info,omitempty"`
	LastCheck time.Time `json:"last_check"`
	Error     string    `json:"error,omitempty"`
}

// GotoOptions configures one navigation attempt.
type GotoOptions struct {
	// WaitUntil is the load condition to wait for: "load",
	// "domcontentloaded", "networkidle" or "commit".
	WaitUntil string

	// TimeoutMs bounds the navigation, in milliseconds. 0 means the driver
	// default.
	TimeoutMs float64
}

const (
	// CreatorHomeURL is the platform's creator entry point.
	CreatorHomeURL = "https://creator.xiaohongshu.com/"

	// Desktop viewport and UA. A mobile UA makes the platform report that
	// web publishing is unsupported.
	viewportWidth  = 1366
	viewportHeight = 900
	desktopUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	// Credential artifact file names, fixed single-account identity.
	cookiesFileName      = "xiaohongshu_cookies.json"
	storageStateFileName = "xiaohongshu_storage_state.json"

	// PlaceholderUserName is used when a logged-in user marker exists but
	// carries no readable text.
	PlaceholderUserName = "小红书用户"
)

// loginKeywords are negative signals: any of these visible on the page means
// the user is not logged in, regardless of positive markers.
var loginKeywords = []string{"立即登录", "扫码登录", "手机号登录", "验证码登录", "登录后"}

// userMarkerSelectors are positive signals probed in order; the first with
// non-empty text supplies the user identity.
var userMarkerSelectors = CandidateList{
	`[class*="user-name"]`,
	`[class*="nickname"]`,
	`[class*="avatar"]`,
	`[class*="user"]`,
}
