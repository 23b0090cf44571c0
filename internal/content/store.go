package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storyharvest/internal/domain"
	"storyharvest/internal/ports"
)

const (
	maxTags          = 5
	excerptLimit     = 150
	filenameLimit    = 50
	fallbackFilename = "article"
	noTitle          = "无标题"
	defaultIndustry  = "其他"
	unknownAuthor    = "未知"
	location         = "巴黎"
)

var (
	markdownPunct   = regexp.MustCompile("[#*`\\[\\]()]")
	filenameInvalid = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	filenameRuns    = regexp.MustCompile(`[-\s]+`)
	idExpr          = regexp.MustCompile(`(?m)^id:\s*(\d+)`)
)

// TagRule maps a theme tag to the keywords that trigger it. Rules are
// evaluated in order; each theme contributes at most one tag.
type TagRule struct {
	Theme    string
	Keywords []string
}

// DefaultTagRules returns the built-in theme table used when the
// configuration supplies none.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{Theme: "融资", Keywords: []string{"融资", "投资", "VC", "天使轮", "A轮"}},
		{Theme: "SaaS", Keywords: []string{"SaaS", "Software as a Service"}},
		{Theme: "人工智能", Keywords: []string{"AI", "人工智能", "机器学习", "ML"}},
		{Theme: "电商", Keywords: []string{"电商", "e-commerce", "跨境"}},
		{Theme: "创始人", Keywords: []string{"创始人", "CEO", "founder"}},
		{Theme: "团队管理", Keywords: []string{"团队", "招聘", "管理"}},
		{Theme: "产品", Keywords: []string{"产品", "PMF", "product-market fit"}},
	}
}

// Store persists processed articles as front-matter documents in a single
// directory. IDs come from scanning existing documents, so concurrent
// emitters would race; single-process batch use only.
type Store struct {
	dir      string
	tagRules []TagRule
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.ContentStore = (*Store)(nil)

// NewStore creates the output directory if needed.
func NewStore(dir string, rules []TagRule, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	if len(rules) == 0 {
		rules = DefaultTagRules()
	}
	return &Store{dir: dir, tagRules: rules, logger: logger, now: time.Now}, nil
}

// SaveArticle writes one article as a content document and returns its path.
func (s *Store) SaveArticle(article domain.Article) (string, error) {
	id, err := s.nextID()
	if err != nil {
		return "", err
	}

	doc, err := s.renderDocument(article, id)
	if err != nil {
		return "", err
	}

	title := article.TitleZH
	if title == "" {
		title = article.Title
	}
	name := fmt.Sprintf("%s-%s.md", s.now().Format("2006-01-02"), sanitizeFilename(title))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Info("article saved", "path", path)
	return path, nil
}

// SaveArticles persists a batch, logging and skipping individual failures.
func (s *Store) SaveArticles(articles []domain.Article) []string {
	var paths []string
	for i, article := range articles {
		s.logger.Info("saving article", "index", i+1, "total", len(articles))
		path, err := s.SaveArticle(article)
		if err != nil {
			s.logger.Error("save failed", "url", article.URL, "error", err)
			continue
		}
		paths = append(paths, path)
	}
	s.logger.Info("batch saved", "count", len(paths))
	return paths
}

// Summarize counts articles by category and by inferred tag.
func (s *Store) Summarize(articles []domain.Article) domain.Summary {
	summary := domain.Summary{
		Total:      len(articles),
		Categories: map[string]int{},
		Tags:       map[string]int{},
	}
	for _, article := range articles {
		category := article.Category
		if category == "" {
			category = defaultIndustry
		}
		summary.Categories[category]++
		for _, tag := range s.inferTags(article) {
			summary.Tags[tag]++
		}
	}
	return summary
}

// renderDocument builds the front-matter block, the body, and the fixed
// attribution footer.
func (s *Store) renderDocument(article domain.Article, id int) (string, error) {
	title := article.TitleZH
	if title == "" {
		title = article.Title
	}
	if title == "" {
		title = noTitle
	}

	author := article.Author
	if author == "" {
		author = unknownAuthor
	}

	industry := article.Category
	if industry == "" {
		industry = defaultIndustry
	}

	body := article.Body()

	meta := domain.FrontMatter{
		ID:           id,
		Title:        title,
		Entrepreneur: author,
		Company:      "",
		Industry:     industry,
		FoundedYear:  s.now().Year(),
		Location:     location,
		Tags:         s.inferTags(article),
		Excerpt:      excerpt(body),
		Date:         s.now().Format("2006-01-02"),
		Published:    true,
		SourceURL:    article.URL,
	}

	encoded, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	sourceTitle := article.Title
	if sourceTitle == "" {
		sourceTitle = "原文链接"
	}
	sourceURL := article.URL
	if sourceURL == "" {
		sourceURL = "#"
	}

	return fmt.Sprintf(`---
%s---

%s

---

**原文来源**: [%s](%s)

**处理说明**: 本文由AI自动采集、提取要点并翻译生成。
`, encoded, body, sourceTitle, sourceURL), nil
}

// inferTags starts from the category label and adds a theme tag per matched
// rule, in rule order, capped at five tags total.
func (s *Store) inferTags(article domain.Article) []string {
	var tags []string
	if article.Category != "" {
		tags = append(tags, article.Category)
	}

	body := article.ContentZH
	if body == "" {
		body = article.Content
	}

	for _, rule := range s.tagRules {
		if contains(tags, rule.Theme) {
			continue
		}
		for _, keyword := range rule.Keywords {
			if strings.Contains(body, keyword) {
				tags = append(tags, rule.Theme)
				break
			}
		}
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// nextID scans existing documents for the highest front-matter id.
func (s *Store) nextID() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scan output dir: %w", err)
	}

	maxID := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		match := idExpr.FindSubmatch(raw)
		if match == nil {
			continue
		}
		if id, err := strconv.Atoi(string(match[1])); err == nil && id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}

// excerpt strips markdown punctuation and returns the first non-blank line,
// truncated to 150 runes with an ellipsis suffix.
func excerpt(content string) string {
	text := markdownPunct.ReplaceAllString(content, "")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > excerptLimit {
			return string(runes[:excerptLimit]) + "..."
		}
		return line
	}
	return ""
}

// sanitizeFilename keeps letters, digits, underscores, spaces and hyphens,
// collapses whitespace and hyphen runs to single hyphens, and trims to 50
// runes.
func sanitizeFilename(title string) string {
	name := filenameInvalid.ReplaceAllString(title, "")
	name = filenameRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	runes := []rune(name)
	if len(runes) > filenameLimit {
		name = string(runes[:filenameLimit])
	}
	if name == "" {
		return fallbackFilename
	}
	return name
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
