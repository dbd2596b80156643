package scan

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/Aryan1718/SkillLens/internal/model"
)

const (
	evidenceBefore   = 50
	evidenceAfter    = 120
	evidenceMaxChars = 240
)

// Match is one raw pattern occurrence before it is assembled into a Finding.
type Match struct {
	Rule     *Rule
	FilePath string
	Start    int
	End      int
	// Window is the raw evidence window around the occurrence. It feeds
	// both the finding ID and, after whitespace collapsing, the evidence.
	Window string
	Line   *int
}

// matchFile evaluates every applicable catalog rule against the file text
// and returns all non-overlapping occurrences in catalog order, then
// per-match discovery order.
func matchFile(file model.ScannedFile) []Match {
	var matches []Match
	for i := range catalog {
		rule := &catalog[i]
		if !rule.AppliesTo(file.Path) {
			continue
		}
		for _, loc := range rule.Pattern.FindAllStringIndex(file.Text, -1) {
			start, end := loc[0], loc[1]
			windowStart := start - evidenceBefore
			if windowStart < 0 {
				windowStart = 0
			}
			windowEnd := end + evidenceAfter
			if windowEnd > len(file.Text) {
				windowEnd = len(file.Text)
			}
			matches = append(matches, Match{
				Rule:     rule,
				FilePath: file.Path,
				Start:    start,
				End:      end,
				Window:   file.Text[windowStart:windowEnd],
				Line:     lineNumber(file.Text, start),
			})
		}
	}
	return matches
}

// lineNumber returns the 1-indexed line of a match offset, or nil when the
// offset is invalid.
func lineNumber(text string, offset int) *int {
	if offset < 0 || offset > len(text) {
		return nil
	}
	line := strings.Count(text[:offset], "\n") + 1
	return &line
}

// collapseEvidence normalizes an evidence window to a single line capped at
// 240 characters.
func collapseEvidence(window string) string {
	oneLine := strings.Join(strings.Fields(window), " ")
	if len(oneLine) > evidenceMaxChars {
		oneLine = oneLine[:evidenceMaxChars]
	}
	return oneLine
}

// findingID derives the stable finding identifier from the quadruple
// (rule id, file path, line start, evidence window). Identical inputs yield
// byte-identical IDs across runs and processes.
func findingID(ruleID, filePath string, lineStart *int, evidence string) string {
	line := "null"
	if lineStart != nil {
		line = strconv.Itoa(*lineStart)
	}
	sum := sha1.Sum([]byte(ruleID + ":" + filePath + ":" + line + ":" + evidence))
	return ruleID + "_" + hex.EncodeToString(sum[:4])
}

// assembleFinding turns a raw match into an identity-stable Finding.
func assembleFinding(m Match) model.Finding {
	return model.Finding{
		ID:         findingID(m.Rule.ID, m.FilePath, m.Line, m.Window),
		Category:   m.Rule.Category,
		Severity:   m.Rule.Severity,
		Title:      m.Rule.Title,
		Evidence:   collapseEvidence(m.Window),
		FilePath:   m.FilePath,
		LineStart:  m.Line,
		LineEnd:    m.Line,
		Confidence: m.Rule.Confidence,
	}
}
