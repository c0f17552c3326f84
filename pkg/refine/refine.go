// Package refine optimizes note copy for the platform: catchier titles,
// conversational body text and suggested tags, produced by the configured
// text-generation backend.
package refine

import (
	"context"
	"fmt"
	"strings"

	"github.com/creatorkit/redpub/pkg/config"
	"github.com/creatorkit/redpub/pkg/llm"
	"github.com/creatorkit/redpub/pkg/llm/parser"
	"github.com/creatorkit/redpub/pkg/logging"
	"github.com/creatorkit/redpub/pkg/textutil"
)

const titlePrompt = `你是一个小红书内容优化专家。请根据以下规则优化标题：

1. 标题要吸引眼球，激发好奇心
2. 使用数字、emoji 符号增加吸引力
3. 控制在20字以内，突出关键词
4. 符合小红书风格

原文标题：%s

请直接输出优化后的标题，不要其他内容。
`

const contentPrompt = `你是一个小红书内容优化专家。请根据以下规则优化正文：

1. 语言口语化，符合小红书风格
2. 分段落，使用 emoji 装饰
3. 重点内容加粗或使用符号强调
4. 开头要抓住注意力
5. 结尾要有互动引导（提问或呼吁）

原文正文：
%s

请直接输出优化后的正文，不要其他内容。
`

const batchPrompt = `你是一个小红书内容优化专家。请同时优化标题和正文：

原始标题：%s
原始正文：
%s

要求：
1. 标题：20字以内，吸引眼球，使用emoji
2. 正文：口语化，分段落，加emoji，结尾有互动引导
3. 标签：提供5-8个合适的标签

请以JSON格式输出：
{
    "optimized_title": "优化后的标题",
    "optimized_content": "优化后的正文",
    "tags": ["标签1", "标签2", "标签3"]
}
`

// TitleResult is the outcome of a title refinement.
type TitleResult struct {
	Success        bool   `json:"success"`
	OptimizedTitle string `json:"optimized_title,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ContentResult is the outcome of a body refinement.
type ContentResult struct {
	Success          bool   `json:"success"`
	OptimizedContent string `json:"optimized_content,omitempty"`
	Error            string `json:"error,omitempty"`
}

// AllResult is the outcome of a combined title+body+tags refinement.
type AllResult struct {
	Success          bool     `json:"success"`
	OptimizedTitle   string   `json:"optimized_title,omitempty"`
	OptimizedContent string   `json:"optimized_content,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// Service runs refinements against the active text provider.
type Service struct {
	provider llm.Provider
	params   llm.GenerateConfig
	log      *logging.Logger
}

// NewService creates the refinement service. logger may be nil.
func NewService(provider llm.Provider, active config.Provider, logger *logging.Logger) *Service {
	if logger == nil {
		logger, _ = logging.NewLogger("refine")
	}
	return &Service{
		provider: provider,
		params: llm.GenerateConfig{
			Model:       active.Model,
			Temperature: active.Temperature,
			MaxTokens:   active.MaxOutputTokens,
		},
		log: logger,
	}
}

// RefineTitle rewrites a title. The result is truncated to the platform's
// title limit regardless of what the model returned.
func (s *Service) RefineTitle(ctx context.Context, originalTitle string) *TitleResult {
	response, err := s.provider.Generate(ctx, fmt.Sprintf(titlePrompt, originalTitle), s.params)
	if err != nil {
		s.log.Errorf("title refinement failed: %v", err)
		return &TitleResult{Error: err.Error()}
	}

	optimized := textutil.TruncateTitle(strings.TrimSpace(response))
	s.log.Infof("title refined: %s -> %s", originalTitle, optimized)
	return &TitleResult{Success: true, OptimizedTitle: optimized}
}

// RefineContent rewrites body text.
func (s *Service) RefineContent(ctx context.Context, originalContent string) *ContentResult {
	response, err := s.provider.Generate(ctx, fmt.Sprintf(contentPrompt, originalContent), s.params)
	if err != nil {
		s.log.Errorf("content refinement failed: %v", err)
		return &ContentResult{Error: err.Error()}
	}

	optimized := strings.TrimSpace(response)
	s.log.Infof("content refined (len %d -> %d)", len(originalContent), len(optimized))
	return &ContentResult{Success: true, OptimizedContent: optimized}
}

// RefineAll rewrites title and body and suggests tags in one call. When the
// model's JSON cannot be parsed the raw response is kept as the body and the
// original title survives, so the caller always gets something publishable.
func (s *Service) RefineAll(ctx context.Context, originalTitle, originalContent string) *AllResult {
	prompt := fmt.Sprintf(batchPrompt, originalTitle, originalContent)
	response, err := s.provider.Generate(ctx, prompt, s.params)
	if err != nil {
		s.log.Errorf("batch refinement failed: %v", err)
		return &AllResult{Error: err.Error()}
	}

	var parsed struct {
		OptimizedTitle   string   `json:"optimized_title"`
		OptimizedContent string   `json:"optimized_content"`
		Tags             []string `json:"tags"`
	}
	if err := parser.ExtractJSON(response, &parsed); err != nil {
		s.log.Warnf("refinement response not parsable as JSON, keeping raw text")
		return &AllResult{
			Success:          true,
			OptimizedTitle:   textutil.TruncateTitle(originalTitle),
			OptimizedContent: strings.TrimSpace(response),
		}
	}

	title := parsed.OptimizedTitle
	if title == "" {
		title = originalTitle
	}
	content := parsed.OptimizedContent
	if content == "" {
		content = originalContent
	}

	s.log.Infof("batch refinement done (tags=%d)", len(parsed.Tags))
	return &AllResult{
		Success:          true,
		OptimizedTitle:   textutil.TruncateTitle(title),
		OptimizedContent: content,
		Tags:             parsed.Tags,
	}
}
