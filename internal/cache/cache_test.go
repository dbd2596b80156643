package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryan1718/SkillLens/internal/model"
)

func TestCache_GetAdd(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	result := model.ScanResult{RiskScore: 42, TrustBadge: "Review Recommended"}
	c.Add("hash-a", result)

	got, ok := c.Get("hash-a")
	require.True(t, ok)
	assert.Equal(t, result, got)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Add("a", model.ScanResult{RiskScore: 1})
	c.Add("b", model.ScanResult{RiskScore: 2})
	c.Get("a") // a is now most recent
	c.Add("c", model.ScanResult{RiskScore: 3})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestContentHash_Deterministic(t *testing.T) {
	files := []model.ScannedFile{
		{Path: "SKILL.md", Text: "hello\nworld\n"},
		{Path: "run.py", Text: "eval(x)\n"},
	}
	assert.Equal(t, ContentHash(files), ContentHash(files))
}

func TestContentHash_LineEndingInsensitive(t *testing.T) {
	unix := []model.ScannedFile{{Path: "a.py", Text: "one\ntwo\n"}}
	windows := []model.ScannedFile{{Path: "a.py", Text: "one\r\ntwo\r\n"}}
	classicMac := []model.ScannedFile{{Path: "a.py", Text: "one\rtwo\r"}}

	assert.Equal(t, ContentHash(unix), ContentHash(windows))
	assert.Equal(t, ContentHash(unix), ContentHash(classicMac))
}

func TestContentHash_SensitiveToPathContentAndOrder(t *testing.T) {
	base := []model.ScannedFile{{Path: "a.py", Text: "x"}, {Path: "b.py", Text: "y"}}

	renamed := []model.ScannedFile{{Path: "c.py", Text: "x"}, {Path: "b.py", Text: "y"}}
	assert.NotEqual(t, ContentHash(base), ContentHash(renamed))

	edited := []model.ScannedFile{{Path: "a.py", Text: "x2"}, {Path: "b.py", Text: "y"}}
	assert.NotEqual(t, ContentHash(base), ContentHash(edited))

	reordered := []model.ScannedFile{{Path: "b.py", Text: "y"}, {Path: "a.py", Text: "x"}}
	assert.NotEqual(t, ContentHash(base), ContentHash(reordered))
}

func TestContentHash_FieldBoundariesAreUnambiguous(t *testing.T) {
	// Path/text concatenation must not collide when the boundary shifts.
	a := []model.ScannedFile{{Path: "ab", Text: "c"}}
	b := []model.ScannedFile{{Path: "a", Text: "bc"}}
	assert.NotEqual(t, ContentHash(a), ContentHash(b))
}
