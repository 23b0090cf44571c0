package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyharvest/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubGen routes by system prompt so one stub can serve all three stages.
type stubGen struct {
	extract   string
	rewrite   string
	translate string

	failExtract   bool
	failRewrite   bool
	failTranslate bool

	calls []string
}

func (g *stubGen) Generate(_ context.Context, system, user string, _ float64) (string, error) {
	switch system {
	case systemPromptExtract:
		g.calls = append(g.calls, "extract")
		if g.failExtract {
			return "", fmt.Errorf("extract down")
		}
		return g.extract, nil
	case systemPromptRewrite:
		g.calls = append(g.calls, "rewrite")
		if g.failRewrite {
			return "", fmt.Errorf("rewrite down")
		}
		return g.rewrite, nil
	case systemPromptTranslate:
		g.calls = append(g.calls, "translate")
		if g.failTranslate {
			return "", fmt.Errorf("translate down")
		}
		if strings.Contains(user, "标题") {
			return g.translate + "（标题）", nil
		}
		return g.translate, nil
	}
	return "", fmt.Errorf("unexpected system prompt")
}

func englishArticle() domain.Article {
	return domain.Article{
		URL:     "http://site.test/a/1",
		Title:   "Raising a Seed Round",
		Content: "The startup raised funds. It was a long process with many investors involved.",
		Author:  "Marie",
	}
}

func TestProcessFullPipeline(t *testing.T) {
	gen := &stubGen{extract: "- 要点一", rewrite: "Rewritten body", translate: "翻译后的内容"}
	p := NewProcessor(gen, false, testLogger())

	got, err := p.Process(context.Background(), englishArticle())
	require.NoError(t, err)

	assert.Equal(t, "- 要点一", got.KeyPoints)
	assert.Equal(t, englishArticle().Content, got.OriginalContent)
	assert.Equal(t, "Rewritten body", got.RewrittenContent)
	assert.Equal(t, "翻译后的内容（标题）", got.TitleZH)
	assert.Equal(t, "翻译后的内容", got.ContentZH)
	assert.Equal(t, []string{"extract", "rewrite", "translate", "translate"}, gen.calls)
}

func TestProcessSkipTranslationCopiesRewritten(t *testing.T) {
	gen := &stubGen{extract: "points", rewrite: "Rewritten body"}
	p := NewProcessor(gen, true, testLogger())

	article := englishArticle()
	got, err := p.Process(context.Background(), article)
	require.NoError(t, err)

	assert.Equal(t, article.Title, got.TitleZH)
	assert.Equal(t, "Rewritten body", got.ContentZH)
	assert.NotContains(t, gen.calls, "translate")
}

func TestProcessSkipTranslationFallsBackToRaw(t *testing.T) {
	gen := &stubGen{extract: "points", failRewrite: true}
	p := NewProcessor(gen, true, testLogger())

	article := englishArticle()
	got, err := p.Process(context.Background(), article)
	require.NoError(t, err)

	assert.Equal(t, article.Content, got.RewrittenContent)
	assert.Equal(t, article.Content, got.ContentZH)
}

func TestProcessExtractionFailureUsesContentHead(t *testing.T) {
	gen := &stubGen{failExtract: true, rewrite: "Rewritten", translate: "译文"}
	p := NewProcessor(gen, false, testLogger())

	article := englishArticle()
	article.Content = strings.Repeat("x", 600)
	got, err := p.Process(context.Background(), article)
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("x", keyPointsFallbackLimit), got.KeyPoints)
	assert.Equal(t, "Rewritten", got.RewrittenContent)
}

func TestProcessTranslationFailureKeepsSourceValues(t *testing.T) {
	gen := &stubGen{extract: "points", rewrite: "Rewritten body", failTranslate: true}
	p := NewProcessor(gen, false, testLogger())

	article := englishArticle()
	got, err := p.Process(context.Background(), article)
	require.NoError(t, err)

	assert.Equal(t, article.Title, got.TitleZH)
	assert.Equal(t, "Rewritten body", got.ContentZH)
}

func TestProcessChineseContentSkipsTranslationCalls(t *testing.T) {
	gen := &stubGen{extract: "要点", rewrite: "这是一篇完全用中文撰写的文章，讲述一家初创公司的融资历程。"}
	p := NewProcessor(gen, false, testLogger())

	article := englishArticle()
	got, err := p.Process(context.Background(), article)
	require.NoError(t, err)

	assert.Equal(t, article.Title, got.TitleZH)
	assert.Equal(t, gen.rewrite, got.ContentZH)
	assert.NotContains(t, gen.calls, "translate")
}

func TestProcessEmptyContentSkipsAIStages(t *testing.T) {
	gen := &stubGen{}
	p := NewProcessor(gen, true, testLogger())

	got, err := p.Process(context.Background(), domain.Article{Title: "T"})
	require.NoError(t, err)

	assert.Empty(t, gen.calls)
	assert.Equal(t, "T", got.TitleZH)
	assert.Empty(t, got.ContentZH)
}

func TestIsChinese(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"pure chinese", "这是中文内容", true},
		{"pure english", "all english text here", false},
		{"exactly threshold", "你你你abcdefg", false},
		{"just above threshold", "你你你你abcdefg", true},
		{"whitespace ignored", "你 你 你 你 a b c d e f g", true},
		{"sample window", strings.Repeat("你", 400) + strings.Repeat("a", 600) + strings.Repeat("b", 5000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isChinese(tt.text))
		})
	}
}

func TestFirstRunes(t *testing.T) {
	assert.Equal(t, "短", firstRunes("短文", 1))
	assert.Equal(t, "短文", firstRunes("短文", 5))
	assert.Equal(t, "ab", firstRunes("abc", 2))
}
