package domain

// Article is the record accumulated across pipeline stages. The scrape stage
// fills the source fields, the rewrite stage adds key points and the rewritten
// body, and the translation stage adds the Chinese title and body. Once the
// pipeline finishes, TitleZH and ContentZH are always populated, falling back
// to the source-language values when translation is skipped or fails.
type Article struct {
	URL      string
	Title    string
	Content  string
	Author   string
	Date     string
	Category string

	KeyPoints        string
	OriginalContent  string
	RewrittenContent string

	TitleZH   string
	ContentZH string
}

// Body returns the best available article body: translated, else rewritten,
// else the raw extracted text.
func (a Article) Body() string {
	if a.ContentZH != "" {
		return a.ContentZH
	}
	if a.RewrittenContent != "" {
		return a.RewrittenContent
	}
	return a.Content
}

// Category is a scrape-time parameter bundle: a name plus a listing-page URL.
type Category struct {
	Name string
	URL  string
}

// FrontMatter is the metadata block at the top of every persisted content
// document. Field order here is the on-disk key order.
type FrontMatter struct {
	ID           int      `yaml:"id"`
	Title        string   `yaml:"title"`
	Entrepreneur string   `yaml:"entrepreneur"`
	Company      string   `yaml:"company"`
	Industry     string   `yaml:"industry"`
	FoundedYear  int      `yaml:"founded_year"`
	Location     string   `yaml:"location"`
	Tags         []string `yaml:"tags"`
	Excerpt      string   `yaml:"excerpt"`
	Date         string   `yaml:"date"`
	Published    bool     `yaml:"published"`
	SourceURL    string   `yaml:"source_url"`
}

// Summary aggregates end-of-run statistics for the human report.
type Summary struct {
	Total      int
	SavedFiles int
	Categories map[string]int
	Tags       map[string]int
}
