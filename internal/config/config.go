package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider values accepted for ai.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	defaultOutputDir  = "content/stories"
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultContentDir = "content"
	defaultPublicDir  = "public"
	defaultSrcDir     = "src"
)

// Config holds every setting the application reads.
type Config struct {
	Website   WebsiteConfig `yaml:"website"`
	AI        AIConfig      `yaml:"ai"`
	OutputDir string        `yaml:"output_dir"`
	Tags      []TagRule     `yaml:"tags"`
	Build     BuildConfig   `yaml:"build"`
	Logging   LoggingConfig `yaml:"logging"`
}

// WebsiteConfig describes the site to scrape.
type WebsiteConfig struct {
	BaseURL    string            `yaml:"base_url"`
	Headers    map[string]string `yaml:"headers"`
	Selectors  SelectorConfig    `yaml:"selectors"`
	Categories []CategoryConfig  `yaml:"categories"`
	MaxPages   int               `yaml:"max_pages"`
}

// SelectorConfig carries the CSS selectors driving extraction. Link, title
// and content are required; author and date are optional.
type SelectorConfig struct {
	ArticleLink    string `yaml:"article_link"`
	ArticleTitle   string `yaml:"article_title"`
	ArticleContent string `yaml:"article_content"`
	ArticleAuthor  string `yaml:"article_author"`
	ArticleDate    string `yaml:"article_date"`
}

// CategoryConfig names a category listing page.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// AIConfig selects and configures the LLM provider. When APIKey is empty the
// provider-specific environment variable is consulted at client construction.
type AIConfig struct {
	Provider        string `yaml:"provider"`
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	Endpoint        string `yaml:"endpoint"`
	SkipTranslation bool   `yaml:"skip_translation"`
}

// TagRule maps a theme tag to the literal keywords that trigger it.
type TagRule struct {
	Theme    string   `yaml:"theme"`
	Keywords []string `yaml:"keywords"`
}

// BuildConfig locates the directories used by the static build.
type BuildConfig struct {
	ContentDir string `yaml:"content_dir"`
	PublicDir  string `yaml:"public_dir"`
	SrcDir     string `yaml:"src_dir"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML configuration file and applies defaults. An unreadable
// or unparsable file is a startup failure; there is no fallback config.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.Website.MaxPages <= 0 {
		c.Website.MaxPages = 1
	}
	if len(c.Website.Headers) == 0 {
		c.Website.Headers = map[string]string{"User-Agent": defaultUserAgent}
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderOpenAI
	}
	if c.Build.ContentDir == "" {
		c.Build.ContentDir = defaultContentDir
	}
	if c.Build.PublicDir == "" {
		c.Build.PublicDir = defaultPublicDir
	}
	if c.Build.SrcDir == "" {
		c.Build.SrcDir = defaultSrcDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c Config) validate() error {
	if c.Website.BaseURL == "" {
		return fmt.Errorf("website.base_url is required")
	}
	sel := c.Website.Selectors
	if sel.ArticleLink == "" || sel.ArticleTitle == "" || sel.ArticleContent == "" {
		return fmt.Errorf("website.selectors must define article_link, article_title and article_content")
	}
	if c.AI.Provider != ProviderOpenAI && c.AI.Provider != ProviderAnthropic {
		return fmt.Errorf("ai.provider must be %q or %q, got %q", ProviderOpenAI, ProviderAnthropic, c.AI.Provider)
	}
	return nil
}
