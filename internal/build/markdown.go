package build

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

var frontMatterExpr = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n(.*)$`)

// renderer converts content documents to metadata plus HTML.
type renderer struct {
	md goldmark.Markdown
}

func newRenderer() *renderer {
	return &renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
		),
	}
}

// parseFile splits the delimited front-matter block from the body and renders
// the body to HTML. A file without front matter yields empty metadata.
func (r *renderer) parseFile(path string) (map[string]any, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	meta := map[string]any{}
	body := string(raw)
	if m := frontMatterExpr.FindStringSubmatch(body); m != nil {
		if err := yaml.Unmarshal([]byte(m[1]), &meta); err != nil {
			return nil, "", fmt.Errorf("parse front matter %s: %w", path, err)
		}
		body = m[2]
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return nil, "", fmt.Errorf("render markdown %s: %w", path, err)
	}
	return meta, buf.String(), nil
}

// metaString returns the first present key rendered as a string. Non-string
// scalars (dates, numbers) are formatted with fmt.
func metaString(meta map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := meta[key]
		if !ok || value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			if s == "" {
				continue
			}
			return s
		}
		return fmt.Sprintf("%v", value)
	}
	return ""
}

func metaStringList(meta map[string]any, key string) []string {
	value, ok := meta[key]
	if !ok {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func metaStringMap(meta map[string]any, key string) map[string]string {
	value, ok := meta[key]
	if !ok {
		return map[string]string{}
	}
	raw, ok := value.(map[string]any)
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func metaBool(meta map[string]any, key string, fallback bool) bool {
	value, ok := meta[key]
	if !ok {
		return fallback
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return fallback
}
