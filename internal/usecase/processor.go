package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"unicode"

	"storyharvest/internal/domain"
	"storyharvest/internal/ports"
)

const (
	systemPromptExtract = `你是一个专业的内容分析师。你的任务是从文章中提取核心要点和关键信息。
请以清晰、结构化的方式列出文章的主要观点、重要数据和关键结论。`

	systemPromptRewrite = `你是一个专业的内容编辑。你的任务是根据提取的要点，
重新撰写一篇结构清晰、表达流畅、适合巴黎创业社区阅读的文章。

要求：
1. 保持信息准确性
2. 结构清晰，逻辑连贯
3. 语言专业但易懂
4. 突出对创业者的实用价值
5. 字数控制在800-1500字`

	systemPromptTranslate = `你是一个专业的翻译。请将以下内容翻译成地道的简体中文。
要求：
1. 准确传达原文含义
2. 语言自然流畅
3. 符合中文表达习惯
4. 保留Markdown格式
5. 专业术语使用业界通用译法`
)

const (
	extractInputLimit      = 4000
	keyPointsFallbackLimit = 500
	translateInputLimit    = 4000
	chineseSampleLimit     = 1000
	chineseRatioThreshold  = 0.3

	defaultTemperature   = 0.7
	rewriteTemperature   = 0.8
	translateTemperature = 0.3
)

// Processor runs the three-stage content pipeline: key-point extraction,
// rewrite, and optional translation. Every stage degrades to a defined
// fallback on failure; a processed article always comes back usable.
type Processor struct {
	gen             ports.TextGenerator
	skipTranslation bool
	logger          *slog.Logger
}

var _ ports.ArticleProcessor = (*Processor)(nil)

// NewProcessor wires the generator and the translation switch.
func NewProcessor(gen ports.TextGenerator, skipTranslation bool, logger *slog.Logger) *Processor {
	return &Processor{gen: gen, skipTranslation: skipTranslation, logger: logger}
}

// Process runs all stages in order. With translation skipped, the translated
// fields are straight copies of the rewritten (or original) values — they are
// never left unset.
func (p *Processor) Process(ctx context.Context, article domain.Article) (domain.Article, error) {
	p.logger.Info("processing article", "title", firstRunes(article.Title, 50))

	article = p.extractAndRewrite(ctx, article)

	if p.skipTranslation {
		article.TitleZH = article.Title
		if article.RewrittenContent != "" {
			article.ContentZH = article.RewrittenContent
		} else {
			article.ContentZH = article.Content
		}
		return article, nil
	}

	return p.translateToChinese(ctx, article), nil
}

// extractAndRewrite runs stages one and two. A failed extraction substitutes
// the head of the raw content for the key points; a failed rewrite keeps the
// raw content as the rewritten body.
func (p *Processor) extractAndRewrite(ctx context.Context, article domain.Article) domain.Article {
	if article.Content == "" {
		p.logger.Warn("article content empty, skipping ai stages", "url", article.URL)
		return article
	}

	extractPrompt := fmt.Sprintf(`请分析以下文章，提取核心要点和关键信息：

标题：%s

内容：
%s

请以要点形式列出：
1. 主要观点
2. 关键数据/事实
3. 重要结论`, article.Title, firstRunes(article.Content, extractInputLimit))

	keyPoints, err := p.gen.Generate(ctx, systemPromptExtract, extractPrompt, defaultTemperature)
	if err != nil {
		p.logger.Error("key point extraction failed", "error", err)
		keyPoints = firstRunes(article.Content, keyPointsFallbackLimit)
	}
	article.KeyPoints = keyPoints
	article.OriginalContent = article.Content

	author := article.Author
	if author == "" {
		author = "未知"
	}
	rewritePrompt := fmt.Sprintf(`基于以下要点，重新撰写一篇关于“%s”的文章：

%s

原文背景信息：
- 作者：%s
- 来源：%s

请以Markdown格式输出，包含适当的标题和段落结构。`, article.Title, keyPoints, author, article.URL)

	rewritten, err := p.gen.Generate(ctx, systemPromptRewrite, rewritePrompt, rewriteTemperature)
	if err != nil {
		p.logger.Error("rewrite failed", "error", err)
		article.RewrittenContent = article.Content
		return article
	}
	article.RewrittenContent = rewritten
	return article
}

// translateToChinese runs stage three. Content classified as already Chinese
// is copied through verbatim; otherwise title and body are translated in two
// independent calls, each degrading to the untranslated value on failure.
func (p *Processor) translateToChinese(ctx context.Context, article domain.Article) domain.Article {
	content := article.RewrittenContent
	if content == "" {
		content = article.Content
	}

	if isChinese(content) {
		p.logger.Info("content already chinese, skipping translation")
		article.TitleZH = article.Title
		article.ContentZH = content
		return article
	}

	titleZH, err := p.gen.Generate(ctx, systemPromptTranslate,
		"请翻译以下标题为中文：\n"+article.Title, translateTemperature)
	if err != nil {
		p.logger.Error("title translation failed", "error", err)
		titleZH = article.Title
	}
	article.TitleZH = titleZH

	contentZH, err := p.gen.Generate(ctx, systemPromptTranslate,
		"请翻译以下文章内容为中文：\n\n"+firstRunes(content, translateInputLimit), translateTemperature)
	if err != nil {
		p.logger.Error("content translation failed", "error", err)
		contentZH = content
	}
	article.ContentZH = contentZH

	return article
}

// isChinese reports whether, among the first 1000 non-whitespace runes, the
// fraction falling in the CJK Unified Ideographs block exceeds 0.3. A ratio
// of exactly 0.3 is not classified as Chinese.
func isChinese(text string) bool {
	var chinese, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r >= 0x4E00 && r <= 0x9FFF {
			chinese++
		}
		if total == chineseSampleLimit {
			break
		}
	}
	return total > 0 && float64(chinese)/float64(total) > chineseRatioThreshold
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
