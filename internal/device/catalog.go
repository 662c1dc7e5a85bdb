package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
)

// Match tiers for catalog discovery. Names are lowercased before matching and
// the first tier with any match wins; within a tier the lowest index wins.
var (
	TextEffectPatterns = [][]string{
		{"*scroll*text*", "*text*scroll*"},
		{"*text*"},
	}
	Color1PalettePatterns = [][]string{
		{"*primary*", "*color 1*", "*single*", "*solid*"},
	}
)

// Catalog discovers and remembers the runtime index of an entry in one of the
// device's enumerated lists (effects or palettes). Indices differ between
// firmware versions but not while a device is running, so the first
// successful answer is kept for the life of the process.
type Catalog struct {
	path     string
	patterns [][]string
	cached   atomic.Pointer[int]
}

// NewCatalog creates a catalog backed by the JSON list at path.
func NewCatalog(path string, patterns [][]string) *Catalog {
	return &Catalog{path: path, patterns: patterns}
}

// EffectCatalog finds the scrolling text effect in /json/effects.
func EffectCatalog() *Catalog {
	return NewCatalog("/json/effects", TextEffectPatterns)
}

// PaletteCatalog finds a palette that renders Color 1 in /json/palettes.
func PaletteCatalog() *Catalog {
	return NewCatalog("/json/palettes", Color1PalettePatterns)
}

// Cached returns the remembered index, if any.
func (c *Catalog) Cached() (int, bool) {
	if p := c.cached.Load(); p != nil {
		return *p, true
	}
	return 0, false
}

// Resolve returns the matching index, fetching the list from the device on
// the first call. A failed or empty lookup is not remembered. Concurrent
// resolutions may both fetch; they store the same value.
func (c *Catalog) Resolve(ctx context.Context, client *http.Client, base string) (int, error) {
	if idx, ok := c.Cached(); ok {
		return idx, nil
	}

	names, err := fetchNames(ctx, client, base+c.path)
	if err != nil {
		return 0, err
	}

	idx, ok := MatchIndex(names, c.patterns)
	if !ok {
		return 0, fmt.Errorf("no entry in %s matches %v", c.path, c.patterns)
	}

	c.cached.Store(&idx)
	return idx, nil
}

// MatchIndex returns the index of the first name matching the earliest tier
// of glob patterns. Matching is case-insensitive.
func MatchIndex(names []string, tiers [][]string) (int, bool) {
	// '/' is a separator to doublestar and would stop '*' from spanning it.
	lower := make([]string, len(names))
	for i, n := range names {
		lower[i] = strings.ReplaceAll(strings.ToLower(n), "/", " ")
	}

	for _, tier := range tiers {
		for i, name := range lower {
			if name == "" {
				continue
			}
			for _, pattern := range tier {
				if ok, _ := doublestar.Match(pattern, name); ok {
					return i, true
				}
			}
		}
	}

	return 0, false
}

// fetchNames reads a JSON array and returns its string entries at their
// original positions. Non-string entries become empty names.
func fetchNames(ctx context.Context, client *http.Client, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	var raw []any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}

	names := make([]string, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			names[i] = s
		}
	}

	return names, nil
}
