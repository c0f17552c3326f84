package refine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/creatorkit/redpub/pkg/config"
	"github.com/creatorkit/redpub/pkg/llm"
	"github.com/creatorkit/redpub/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	response string
	err      error
	prompts  []string
	configs  []llm.GenerateConfig
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (string, error) {
	p.prompts = append(p.prompts, prompt)
	p.configs = append(p.configs, cfg)
	return p.response, p.err
}

func newService(provider llm.Provider) *Service {
	active := config.Provider{Model: "test-model", Temperature: 0.7, MaxOutputTokens: 4000}
	return NewService(provider, active, logging.Discard())
}

func TestRefineTitle(t *testing.T) {
	provider := &scriptedProvider{response: "  ✨周末宝藏去处大公开！\n"}
	result := newService(provider).RefineTitle(context.Background(), "周末好去处")

	require.True(t, result.Success)
	assert.Equal(t, "✨周末宝藏去处大公开！", result.OptimizedTitle)
	assert.Contains(t, provider.prompts[0], "周末好去处")
	assert.Equal(t, "test-model", provider.configs[0].Model)
	assert.Equal(t, 0.7, provider.configs[0].Temperature)
}

func TestRefineTitleEnforcesLengthLimit(t *testing.T) {
	provider := &scriptedProvider{response: strings.Repeat("好", 30)}
	result := newService(provider).RefineTitle(context.Background(), "原标题")

	require.True(t, result.Success)
	assert.Equal(t, strings.Repeat("好", 20), result.OptimizedTitle)
}

func TestRefineTitleProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("rate limited")}
	result := newService(provider).RefineTitle(context.Background(), "标题")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "rate limited")
}

func TestRefineContent(t *testing.T) {
	provider := &scriptedProvider{response: "✨ 开头抓眼球\n\n正文内容\n\n你们觉得呢？"}
	result := newService(provider).RefineContent(context.Background(), "原正文")

	require.True(t, result.Success)
	assert.Equal(t, "✨ 开头抓眼球\n\n正文内容\n\n你们觉得呢？", result.OptimizedContent)
	assert.Contains(t, provider.prompts[0], "原正文")
}

func TestRefineAllParsesJSON(t *testing.T) {
	provider := &scriptedProvider{response: "```json\n" +
		`{"optimized_title": "新标题", "optimized_content": "新正文", "tags": ["旅行", "美食"]}` +
		"\n```"}
	result := newService(provider).RefineAll(context.Background(), "旧标题", "旧正文")

	require.True(t, result.Success)
	assert.Equal(t, "新标题", result.OptimizedTitle)
	assert.Equal(t, "新正文", result.OptimizedContent)
	assert.Equal(t, []string{"旅行", "美食"}, result.Tags)
}

func TestRefineAllUnparsableKeepsRawText(t *testing.T) {
	provider := &scriptedProvider{response: "模型没有按要求输出 JSON，只给了一段文本"}
	result := newService(provider).RefineAll(context.Background(), "旧标题", "旧正文")

	require.True(t, result.Success)
	assert.Equal(t, "旧标题", result.OptimizedTitle)
	assert.Equal(t, "模型没有按要求输出 JSON，只给了一段文本", result.OptimizedContent)
	assert.Empty(t, result.Tags)
}

func TestRefineAllEmptyFieldsFallBackToOriginals(t *testing.T) {
	provider := &scriptedProvider{response: `{"optimized_title": "", "optimized_content": "", "tags": []}`}
	result := newService(provider).RefineAll(context.Background(), "旧标题", "旧正文")

	require.True(t, result.Success)
	assert.Equal(t, "旧标题", result.OptimizedTitle)
	assert.Equal(t, "旧正文", result.OptimizedContent)
}

func TestRefineAllTruncatesTitle(t *testing.T) {
	long := strings.Repeat("标", 25)
	provider := &scriptedProvider{response: `{"optimized_title": "` + long + `", "optimized_content": "正文"}`}
	result := newService(provider).RefineAll(context.Background(), "旧标题", "旧正文")

	require.True(t, result.Success)
	assert.Equal(t, strings.Repeat("标", 20), result.OptimizedTitle)
}

func TestRefineAllProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection refused")}
	result := newService(provider).RefineAll(context.Background(), "标题", "正文")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "connection refused")
}
