// Package articles holds the fixed set of care articles the assistant can
// recommend, and the ranker that picks the most relevant ones.
package articles

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Article is one recommendable article
type Article struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

// Catalog is an ordered, read-only set of articles
type Catalog struct {
	articles []Article
	byID     map[string]int
}

type catalogFile struct {
	Articles []Article `yaml:"articles"`
}

// DefaultCatalog returns the catalog built into the binary
func DefaultCatalog() *Catalog {
	catalog, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded article catalog is invalid: %v", err))
	}
	return catalog
}

// LoadCatalog reads a catalog from a YAML file. An empty path selects the
// built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read article catalog: %w", err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse article catalog: %w", err)
	}
	if len(file.Articles) == 0 {
		return nil, fmt.Errorf("article catalog is empty")
	}

	c := &Catalog{byID: make(map[string]int, len(file.Articles))}
	for i, a := range file.Articles {
		a.ID = strings.TrimSpace(a.ID)
		if a.ID == "" || a.Title == "" || a.URL == "" {
			return nil, fmt.Errorf("article %d: id, title and url are required", i)
		}
		if strings.Contains(a.ID, ",") {
			return nil, fmt.Errorf("article %s: id must not contain a comma", a.ID)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate article id %s", a.ID)
		}
		c.byID[a.ID] = len(c.articles)
		c.articles = append(c.articles, a)
	}
	return c, nil
}

// Articles returns a copy of the catalog entries
func (c *Catalog) Articles() []Article {
	out := make([]Article, len(c.articles))
	copy(out, c.articles)
	return out
}

// Len returns the number of articles
func (c *Catalog) Len() int {
	return len(c.articles)
}

// Get returns the article with the given id
func (c *Catalog) Get(id string) (Article, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Article{}, false
	}
	return c.articles[i], true
}

// Select returns the articles whose ids appear in ids, in catalog order.
// Unknown ids are ignored.
func (c *Catalog) Select(ids []string) []Article {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var out []Article
	for _, a := range c.articles {
		if wanted[a.ID] {
			out = append(out, a)
		}
	}
	return out
}
