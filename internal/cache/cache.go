// Package cache memoizes deterministic scan results by content hash.
// Scanning is a pure function of its input files, so an unchanged artifact
// can reuse its previous result safely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aryan1718/SkillLens/internal/model"
)

// Cache is a fixed-size LRU of scan results keyed by content hash.
type Cache struct {
	results *lru.Cache[string, model.ScanResult]
}

// New creates a cache holding up to size scan results.
func New(size int) (*Cache, error) {
	results, err := lru.New[string, model.ScanResult](size)
	if err != nil {
		return nil, err
	}
	return &Cache{results: results}, nil
}

// Get returns the cached result for a content hash.
func (c *Cache) Get(hash string) (model.ScanResult, bool) {
	return c.results.Get(hash)
}

// Add stores a scan result under its content hash.
func (c *Cache) Add(hash string, result model.ScanResult) {
	c.results.Add(hash, result)
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.results.Len()
}

// ContentHash derives a deterministic SHA-256 hash over the scanned file
// set. Line endings are normalized so CRLF/CR variants of the same content
// hash identically.
func ContentHash(files []model.ScannedFile) string {
	h := sha256.New()
	for _, file := range files {
		h.Write([]byte(file.Path))
		h.Write([]byte{0})
		h.Write([]byte(normalizeLineEndings(file.Text)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
