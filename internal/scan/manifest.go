package scan

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/Aryan1718/SkillLens/internal/model"
)

// manifestFindings runs the structural dependency checks that sit outside
// the generic pattern loop: unpinned NPM versions in package manifests and
// unpinned lines in Python requirements files. Malformed input contributes
// zero findings, never an error.
func manifestFindings(file model.ScannedFile) []model.Finding {
	var findings []model.Finding
	pathLower := strings.ToLower(file.Path)
	if strings.HasSuffix(pathLower, "package.json") {
		findings = append(findings, unpinnedNPMFindings(file)...)
	}
	if strings.Contains(pathLower, "requirements") && strings.HasSuffix(pathLower, ".txt") {
		findings = append(findings, unpinnedRequirementsFindings(file)...)
	}
	return findings
}

var npmDependencyBlocks = []string{"dependencies", "devDependencies", "optionalDependencies"}

// unpinnedNPMFindings flags every declared dependency whose version is
// exactly "*", exactly "latest", or begins with "^". Dependency blocks are
// merged with later blocks winning, then emitted in name order so the
// output is reproducible.
func unpinnedNPMFindings(file model.ScannedFile) []model.Finding {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(file.Text), &payload); err != nil {
		return nil
	}

	deps := map[string]string{}
	for _, block := range npmDependencyBlocks {
		raw, ok := payload[block]
		if !ok {
			continue
		}
		var entries map[string]string
		if err := json.Unmarshal(raw, &entries); err != nil {
			continue
		}
		for name, version := range entries {
			deps[name] = version
		}
	}

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []model.Finding
	for _, name := range names {
		version := deps[name]
		if version != "*" && version != "latest" && !strings.HasPrefix(strings.TrimSpace(version), "^") {
			continue
		}
		evidence := `"` + name + `": "` + version + `"`
		findings = append(findings, model.Finding{
			ID:         findingID("SEC_DEP_UNPINNED_NPM_001", file.Path, nil, evidence),
			Category:   model.CategoryDeps,
			Severity:   model.SeverityLow,
			Title:      "Unpinned NPM dependency version detected.",
			Evidence:   collapseEvidence(evidence),
			FilePath:   file.Path,
			Confidence: model.ConfidenceMedium,
		})
	}
	return findings
}

// unpinnedRequirementsFindings flags every non-empty, non-comment line that
// is neither pinned with "==" nor an editable or VCS requirement.
func unpinnedRequirementsFindings(file model.ScannedFile) []model.Finding {
	var findings []model.Finding
	for idx, line := range strings.Split(file.Text, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" || strings.HasPrefix(clean, "#") {
			continue
		}
		if strings.Contains(clean, "==") ||
			strings.HasPrefix(clean, "-e ") ||
			strings.HasPrefix(clean, "git+") {
			continue
		}
		lineNo := idx + 1
		findings = append(findings, model.Finding{
			ID:         findingID("SEC_DEP_UNPINNED_PY_001", file.Path, &lineNo, clean),
			Category:   model.CategoryDeps,
			Severity:   model.SeverityLow,
			Title:      "Unpinned Python dependency detected.",
			Evidence:   collapseEvidence(clean),
			FilePath:   file.Path,
			LineStart:  &lineNo,
			LineEnd:    &lineNo,
			Confidence: model.ConfidenceLow,
		})
	}
	return findings
}
