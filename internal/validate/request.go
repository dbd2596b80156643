package validate

import "github.com/Aryan1718/SkillLens/internal/model"

const (
	maxContextSnippets   = 20
	maxSnippetChars      = 600
	reasonMaxSentences   = 2
	mitigationMaxItems   = 3
	summaryMaxWords      = 60
	validationTask       = "Validate deterministic findings and provide final severity and mitigations."
)

// FindingPayload is one deterministic finding as presented to the validator.
type FindingPayload struct {
	FindingID  string           `json:"finding_id"`
	Category   model.Category   `json:"category"`
	Severity   model.Severity   `json:"severity"`
	Title      string           `json:"title"`
	Confidence model.Confidence `json:"confidence"`
	Evidence   string           `json:"evidence"`
	FilePath   string           `json:"file_path"`
	LineStart  *int             `json:"line_start"`
	LineEnd    *int             `json:"line_end"`
}

// ContextSnippet is a truncated excerpt of one file referenced by at least
// one finding, giving the validator surrounding context.
type ContextSnippet struct {
	FilePath string `json:"file_path"`
	Snippet  string `json:"snippet"`
}

// Constraints bound the validator's output.
type Constraints struct {
	ReasonMaxSentences      int `json:"reason_max_sentences"`
	MitigationMaxItems      int `json:"mitigation_max_items"`
	SecuritySummaryMaxWords int `json:"security_summary_max_words"`
}

// Request is the complete validation request submitted to the external
// judgment service.
type Request struct {
	Task            string           `json:"task"`
	RiskScore       int              `json:"risk_score"`
	SeverityCounts  map[string]int   `json:"severity_counts"`
	Findings        []FindingPayload `json:"findings"`
	ContextSnippets []ContextSnippet `json:"context_snippets"`
	Constraints     Constraints      `json:"constraints"`
}

// BuildRequest assembles the bounded validation request: every finding, the
// per-severity counts, the uncapped weighted risk score, and up to 20
// context snippets, one per distinct referenced file in file order.
func BuildRequest(findings []model.Finding, files []model.ScannedFile) Request {
	payload := make([]FindingPayload, 0, len(findings))
	riskScore := 0
	counts := map[string]int{"CRITICAL": 0, "HIGH": 0, "MEDIUM": 0, "LOW": 0}
	referenced := make(map[string]bool)
	for _, finding := range findings {
		payload = append(payload, FindingPayload{
			FindingID:  finding.ID,
			Category:   finding.Category,
			Severity:   finding.Severity,
			Title:      finding.Title,
			Confidence: finding.Confidence,
			Evidence:   finding.Evidence,
			FilePath:   finding.FilePath,
			LineStart:  finding.LineStart,
			LineEnd:    finding.LineEnd,
		})
		riskScore += model.SeverityWeights[finding.Severity]
		counts[string(finding.Severity)]++
		referenced[finding.FilePath] = true
	}

	return Request{
		Task:            validationTask,
		RiskScore:       riskScore,
		SeverityCounts:  counts,
		Findings:        payload,
		ContextSnippets: contextSnippets(files, referenced),
		Constraints: Constraints{
			ReasonMaxSentences:      reasonMaxSentences,
			MitigationMaxItems:      mitigationMaxItems,
			SecuritySummaryMaxWords: summaryMaxWords,
		},
	}
}

// contextSnippets returns one truncated snippet per referenced file, in the
// order files were supplied, capped at maxContextSnippets.
func contextSnippets(files []model.ScannedFile, referenced map[string]bool) []ContextSnippet {
	snippets := []ContextSnippet{}
	seen := make(map[string]bool)
	for _, file := range files {
		if !referenced[file.Path] || seen[file.Path] {
			continue
		}
		seen[file.Path] = true
		excerpt := file.Text
		if len(excerpt) > maxSnippetChars {
			excerpt = excerpt[:maxSnippetChars]
		}
		snippets = append(snippets, ContextSnippet{FilePath: file.Path, Snippet: excerpt})
		if len(snippets) >= maxContextSnippets {
			break
		}
	}
	return snippets
}
