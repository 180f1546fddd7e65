package catalog

import (
	"time"

	"github.com/five82/logmon/internal/discovery"
)

// TagCount is the number of catalog entries carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Catalog is the immutable result of one discovery run. It is never modified
// after publication; readers may share it freely. Entries are only reachable
// through copies.
type Catalog struct {
	ID          string
	GeneratedAt time.Time
	Diagnostics []discovery.Diagnostic

	entries []discovery.Entry
	byPath map[string]int
	byName map[string]int
	tags   []TagCount
	tagIdx map[string]int
}

func newCatalog(id string, at time.Time, res discovery.Result) *Catalog {
	c := &Catalog{
		ID:          id,
		GeneratedAt: at,
		Diagnostics: res.Diagnostics,
		entries:     append([]discovery.Entry{}, res.Entries...),
		byPath:      make(map[string]int, len(res.Entries)),
		byName:      make(map[string]int, len(res.Entries)),
		tagIdx:      make(map[string]int),
	}
	for i, e := range c.entries {
		if _, ok := c.byPath[e.Path]; !ok {
			c.byPath[e.Path] = i
		}
		if _, ok := c.byName[e.Filename]; !ok {
			c.byName[e.Filename] = i
		}
		if idx, ok := c.tagIdx[e.Tag]; ok {
			c.tags[idx].Count++
			continue
		}
		c.tagIdx[e.Tag] = len(c.tags)
		c.tags = append(c.tags, TagCount{Tag: e.Tag, Count: 1})
	}
	return c
}

func empty() *Catalog {
	return newCatalog("", time.Time{}, discovery.Result{})
}

// Entries returns a copy of the entries in discovery order. It is never nil.
func (c *Catalog) Entries() []discovery.Entry {
	return append([]discovery.Entry{}, c.entries...)
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Resolve finds an entry by web path, then by bare filename. When several
// entries share a key the earliest in catalog order wins.
func (c *Catalog) Resolve(key string) (discovery.Entry, bool) {
	if i, ok := c.byPath[key]; ok {
		return c.entries[i], true
	}
	if i, ok := c.byName[key]; ok {
		return c.entries[i], true
	}
	return discovery.Entry{}, false
}

// Tags returns each tag with its entry count, in first-seen order.
func (c *Catalog) Tags() []TagCount {
	out := make([]TagCount, len(c.tags))
	copy(out, c.tags)
	return out
}

// Lookup returns the entries carrying tag, in catalog order.
func (c *Catalog) Lookup(tag string) []discovery.Entry {
	idx, ok := c.tagIdx[tag]
	if !ok {
		return nil
	}
	out := make([]discovery.Entry, 0, c.tags[idx].Count)
	for _, e := range c.entries {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}
