package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
website:
  base_url: "https://example.test"
  selectors:
    article_link: "a.story"
    article_title: "h1"
    article_content: "div.body"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "content/stories", cfg.OutputDir)
	assert.Equal(t, 1, cfg.Website.MaxPages)
	assert.Equal(t, defaultUserAgent, cfg.Website.Headers["User-Agent"])
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "content", cfg.Build.ContentDir)
	assert.Equal(t, "public", cfg.Build.PublicDir)
	assert.Equal(t, "src", cfg.Build.SrcDir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
website:
  base_url: "https://example.test"
  headers:
    User-Agent: "custom"
  selectors:
    article_link: "a.story"
    article_title: "h1"
    article_content: "div.body"
    article_author: "span.author"
    article_date: "time"
  categories:
    - name: "融资"
      url: "https://example.test/funding"
  max_pages: 3
ai:
  provider: "anthropic"
  api_key: "secret"
  model: "claude-3-5-haiku-20241022"
  skip_translation: true
output_dir: "out"
tags:
  - theme: "融资"
    keywords: ["VC", "天使轮"]
logging:
  level: "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Website.MaxPages)
	assert.Equal(t, "custom", cfg.Website.Headers["User-Agent"])
	require.Len(t, cfg.Website.Categories, 1)
	assert.Equal(t, "融资", cfg.Website.Categories[0].Name)
	assert.Equal(t, ProviderAnthropic, cfg.AI.Provider)
	assert.True(t, cfg.AI.SkipTranslation)
	assert.Equal(t, "out", cfg.OutputDir)
	require.Len(t, cfg.Tags, 1)
	assert.Equal(t, []string{"VC", "天使轮"}, cfg.Tags[0].Keywords)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "website: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing base url",
			content: "website:\n  selectors:\n    article_link: a\n    article_title: b\n    article_content: c\n",
			wantErr: "base_url",
		},
		{
			name:    "missing required selector",
			content: "website:\n  base_url: https://x.test\n  selectors:\n    article_link: a\n",
			wantErr: "selectors",
		},
		{
			name:    "unknown provider",
			content: minimalConfig + "ai:\n  provider: gemini\n",
			wantErr: "ai.provider",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
