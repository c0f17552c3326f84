package publish

import "github.com/creatorkit/redpub/pkg/browser"

// Publish page URLs. Navigation is two-stage: the bootstrap page first,
// then the image-post variant; going straight to target=image renders an
// incomplete page.
const (
	bootstrapPublishURL = "https://creator.xiaohongshu.com/publish/publish?from=tab_switch"
	imageTargetURL      = "https://creator.xiaohongshu.com/publish/publish?from=tab_switch&target=image"
	fallbackPublishURL  = "https://creator.xiaohongshu.com/publish/publish"

	publishedNoteURLFormat = "https://www.xiaohongshu.com/explore/%s"
)

// navAttempts is the retry ladder applied to each navigation stage.
var navAttempts = []browser.GotoOptions{
	{WaitUntil: "domcontentloaded", TimeoutMs: 20000},
	{WaitUntil: "domcontentloaded", TimeoutMs: 30000},
	{WaitUntil: "commit", TimeoutMs: 20000},
}

// The candidate lists below encode selector preference against the current
// creator UI, most specific first. They are data, not code: when the
// platform reshuffles its markup, these lists are the only thing that
// should need editing.

var uploadEntryCandidates = browser.CandidateList{
	`text=上传图片`,
	`text=添加图片`,
	`text=上传`,
	`text=选择图片`,
	`button:has-text("上传")`,
	`[class*="upload"]`,
	`[class*="Upload"]`,
	`[data-testid*="upload"]`,
}

var fileInputCandidates = browser.CandidateList{
	`input[type="file"]`,
	`input[accept*="image"]`,
	`[class*="upload"] input[type="file"]`,
	`[class*="Upload"] input[type="file"]`,
}

var editorReadyCandidates = browser.CandidateList{
	`textarea[placeholder="填写标题会有更多赞哦"]`,
	`input[placeholder="填写标题会有更多赞哦"]`,
	`[data-placeholder="输入正文描述，真诚有价值的分享予人温暖"]`,
	`div[data-placeholder*="输入正文描述"]`,
	`textarea[placeholder*="标题"]`,
	`input[placeholder*="标题"]`,
	`div[contenteditable="true"]`,
}

var titleCandidates = browser.CandidateList{
	`textarea[placeholder="填写标题会有更多赞哦"]`,
	`input[placeholder="填写标题会有更多赞哦"]`,
	`textarea[placeholder*="标题"]`,
	`input[placeholder*="标题"]`,
	`input[class*="title"]`,
	`textarea[class*="title"]`,
	`[contenteditable="true"][class*="title"]`,
	`div[placeholder*="标题"]`,
}

var contentCandidates = browser.CandidateList{
	`[data-placeholder="输入正文描述，真诚有价值的分享予人温暖"]`,
	`div[data-placeholder*="输入正文描述"]`,
	`div[contenteditable="true"]`,
	`textarea[placeholder*="正文"]`,
	`[class*="content"] [contenteditable="true"]`,
	`[class*="editor"]`,
}

var tagEntryCandidates = browser.CandidateList{
	`button:has-text("添加话题")`,
	`button:has-text("添加标签")`,
	`button:has-text("新建标签")`,
	`text=新建标签`,
	`.d-modal-header:has-text("新建标签")`,
	`[class*="d-modal-header"]:has-text("新建标签")`,
}

var tagInputCandidates = browser.CandidateList{
	`input[placeholder*="添加标签"]`,
	`input[placeholder*="话题"]`,
	`input[placeholder*="搜索"]`,
	`input[class*="tag"]`,
}

var submitCandidates = browser.CandidateList{
	`button:has-text("发布")`,
	`button[class*="publish"]`,
	`div:has-text("发布")`,
}
