package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refined struct {
	Title   string   `json:"optimized_title"`
	Content string   `json:"optimized_content"`
	Tags    []string `json:"tags"`
}

func TestExtractJSONDirect(t *testing.T) {
	var out refined
	err := ExtractJSON(`{"optimized_title": "标题", "tags": ["a", "b"]}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "标题", out.Title)
	assert.Equal(t, []string{"a", "b"}, out.Tags)
}

func TestExtractJSONFencedBlock(t *testing.T) {
	text := "优化结果如下：\n```json\n{\"optimized_title\": \"新标题\"}\n```\n希望有帮助！"
	var out refined
	require.NoError(t, ExtractJSON(text, &out))
	assert.Equal(t, "新标题", out.Title)
}

func TestExtractJSONFencedBlockWithoutLanguage(t *testing.T) {
	text := "```\n{\"optimized_content\": \"正文\"}\n```"
	var out refined
	require.NoError(t, ExtractJSON(text, &out))
	assert.Equal(t, "正文", out.Content)
}

func TestExtractJSONBraceSubstring(t *testing.T) {
	text := `好的，这是优化后的内容 {"optimized_title": "夹在文本里的标题"} 请查收。`
	var out refined
	require.NoError(t, ExtractJSON(text, &out))
	assert.Equal(t, "夹在文本里的标题", out.Title)
}

func TestExtractJSONStageOrder(t *testing.T) {
	// A fenced block beats a loose brace pair later in the text.
	text := "```json\n{\"optimized_title\": \"fenced\"}\n```\n另见 {\"optimized_title\": \"loose\"}"
	var out refined
	require.NoError(t, ExtractJSON(text, &out))
	assert.Equal(t, "fenced", out.Title)
}

func TestExtractJSONNothingParsable(t *testing.T) {
	var out refined
	err := ExtractJSON("这里没有任何结构化数据", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtractJSONBrokenEverywhere(t *testing.T) {
	var out refined
	err := ExtractJSON("```json\n{broken\n``` and {also broken", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}
