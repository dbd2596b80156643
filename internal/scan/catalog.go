package scan

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Aryan1718/SkillLens/internal/model"
)

// Rule is one immutable detection rule. The catalog is a flat data table,
// defined once at process start and never mutated; applicability is decided
// by plain predicates over the file path, not by rule subtypes.
type Rule struct {
	ID         string
	Category   model.Category
	Severity   model.Severity
	Title      string
	Confidence model.Confidence
	Pattern    *regexp.Regexp

	// FileExtensions restricts the rule to paths with one of these
	// lowercased suffixes. Empty means the rule applies to every file.
	FileExtensions []string
	// FileNameRegex additionally restricts the rule by file name.
	FileNameRegex *regexp.Regexp
}

// AppliesTo reports whether the rule should be evaluated against the
// given file path.
func (r *Rule) AppliesTo(path string) bool {
	if len(r.FileExtensions) > 0 {
		lowered := strings.ToLower(path)
		matched := false
		for _, ext := range r.FileExtensions {
			if strings.HasSuffix(lowered, ext) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if r.FileNameRegex != nil && !r.FileNameRegex.MatchString(path) {
		return false
	}
	return true
}

var catalog = []Rule{
	{
		ID:             "SEC_PY_EVAL_001",
		Category:       model.CategoryExec,
		Severity:       model.SeverityCritical,
		Title:          "Python dynamic code execution detected (eval/exec).",
		Confidence:     model.ConfidenceHigh,
		Pattern:        regexp.MustCompile(`(?i)\b(eval|exec)\s*\(`),
		FileExtensions: []string{".py"},
	},
	{
		ID:             "SEC_PY_SHELL_TRUE_001",
		Category:       model.CategoryExec,
		Severity:       model.SeverityHigh,
		Title:          "subprocess call with shell=True detected.",
		Confidence:     model.ConfidenceHigh,
		Pattern:        regexp.MustCompile(`(?i)subprocess\.(run|Popen|call|check_output|check_call)\s*\([^)]*shell\s*=\s*True`),
		FileExtensions: []string{".py"},
	},
	{
		ID:             "SEC_PY_OS_SYSTEM_001",
		Category:       model.CategoryExec,
		Severity:       model.SeverityHigh,
		Title:          "Shell execution via os.system/popen detected.",
		Confidence:     model.ConfidenceHigh,
		Pattern:        regexp.MustCompile(`(?i)\b(os\.system|popen)\s*\(`),
		FileExtensions: []string{".py", ".sh", ".bash", ".zsh"},
	},
	{
		ID:             "SEC_JS_EVAL_001",
		Category:       model.CategoryExec,
		Severity:       model.SeverityCritical,
		Title:          "JavaScript dynamic code execution detected (eval/new Function).",
		Confidence:     model.ConfidenceHigh,
		Pattern:        regexp.MustCompile(`(?i)\b(eval\s*\(|new\s+Function\s*\()`),
		FileExtensions: []string{".js", ".ts", ".mjs", ".cjs"},
	},
	{
		ID:             "SEC_JS_CHILD_PROCESS_001",
		Category:       model.CategoryExec,
		Severity:       model.SeverityHigh,
		Title:          "child_process command execution detected.",
		Confidence:     model.ConfidenceHigh,
		Pattern:        regexp.MustCompile(`(?i)child_process\.(exec|spawn)\s*\(`),
		FileExtensions: []string{".js", ".ts", ".mjs", ".cjs"},
	},
	{
		ID:             "SEC_SH_PIPE_EXEC_001",
		Category:       model.CategoryExec,
		Severity:       model.SeverityCritical,
		Title:          "Remote script piping into shell detected (curl|sh or wget|bash).",
		Confidence:     model.ConfidenceHigh,
		Pattern:        regexp.MustCompile(`(?i)(curl\s+[^|]+?\|\s*(sh|bash))|(wget\s+[^|]+?\|\s*(sh|bash))`),
		FileExtensions: []string{".sh", ".bash", ".zsh", ".md", ".txt", ".yaml", ".yml"},
	},
	{
		ID:         "SEC_FS_RM_RF_001",
		Category:   model.CategoryFilesystem,
		Severity:   model.SeverityCritical,
		Title:      "Destructive recursive deletion detected (rm -rf / rmtree).",
		Confidence: model.ConfidenceHigh,
		Pattern:    regexp.MustCompile(`(?i)(rm\s+-rf\b|shutil\.rmtree\s*\()`),
	},
	{
		ID:         "SEC_FS_SENSITIVE_WRITE_001",
		Category:   model.CategoryFilesystem,
		Severity:   model.SeverityHigh,
		Title:      "Write or modification of sensitive system path detected.",
		Confidence: model.ConfidenceMedium,
		Pattern:    regexp.MustCompile(`(?i)(~\/\.ssh|\/etc\/|\/usr\/|\/var\/)`),
	},
	{
		ID:         "SEC_FS_PATH_TRAVERSAL_001",
		Category:   model.CategoryFilesystem,
		Severity:   model.SeverityMedium,
		Title:      "Potential path traversal pattern with user-controlled path.",
		Confidence: model.ConfidenceMedium,
		Pattern:    regexp.MustCompile(`(?i)\.\.\/.*(user|input|param|request|query)`),
	},
	{
		ID:         "SEC_NET_USER_URL_001",
		Category:   model.CategoryNetwork,
		Severity:   model.SeverityMedium,
		Title:      "Potential SSRF: outbound request built from user-controlled URL.",
		Confidence: model.ConfidenceMedium,
		Pattern: regexp.MustCompile(`(?i)(requests\.(get|post|put|delete)\s*\(\s*(user_?url|url_from_user|input_url|request\.)|` +
			`fetch\s*\(\s*(user_?url|urlFromUser|inputUrl|req\.))`),
	},
	{
		ID:         "SEC_NET_RAW_SOCKET_001",
		Category:   model.CategoryNetwork,
		Severity:   model.SeverityHigh,
		Title:      "Raw socket usage detected.",
		Confidence: model.ConfidenceMedium,
		Pattern:    regexp.MustCompile(`(?i)(socket\.socket\s*\(|new\s+Socket\s*\()`),
	},
	{
		ID:         "SEC_NET_METADATA_001",
		Category:   model.CategoryNetwork,
		Severity:   model.SeverityHigh,
		Title:      "Cloud metadata endpoint access detected.",
		Confidence: model.ConfidenceHigh,
		Pattern:    regexp.MustCompile(`169\.254\.169\.254`),
	},
	{
		ID:         "SEC_SECRET_ENV_EXFIL_001",
		Category:   model.CategorySecrets,
		Severity:   model.SeverityHigh,
		Title:      "Environment secret read and outbound request pattern detected.",
		Confidence: model.ConfidenceMedium,
		Pattern: regexp.MustCompile(`(?i)((os\.environ|getenv|process\.env).*(requests\.|fetch\s*\())|` +
			`((requests\.|fetch\s*\().*(os\.environ|getenv|process\.env))`),
	},
	{
		ID:         "SEC_SECRET_TOKEN_LOG_001",
		Category:   model.CategorySecrets,
		Severity:   model.SeverityMedium,
		Title:      "Potential secret logging or Authorization header exposure.",
		Confidence: model.ConfidenceMedium,
		Pattern: regexp.MustCompile(`(?i)(Authorization|api[_-]?key|token).*(print|console\.log)|` +
			`(print|console\.log).*(Authorization|api[_-]?key|token)`),
	},
	{
		ID:            "SEC_DEP_POSTINSTALL_001",
		Category:      model.CategoryDeps,
		Severity:      model.SeverityHigh,
		Title:         "NPM postinstall script detected.",
		Confidence:    model.ConfidenceHigh,
		Pattern:       regexp.MustCompile(`(?i)"postinstall"\s*:`),
		FileNameRegex: regexp.MustCompile(`(?i)package\.json$`),
	},
	{
		ID:            "SEC_DEP_NPM_GIT_HTTP_001",
		Category:      model.CategoryDeps,
		Severity:      model.SeverityMedium,
		Title:         "Git or HTTP dependency source detected in package.json.",
		Confidence:    model.ConfidenceMedium,
		Pattern:       regexp.MustCompile(`(?i)(git\+https?:\/\/|https?:\/\/.*\.tgz|github:)`),
		FileNameRegex: regexp.MustCompile(`(?i)package\.json$`),
	},
	{
		ID:            "SEC_DEP_PY_GIT_URL_001",
		Category:      model.CategoryDeps,
		Severity:      model.SeverityLow,
		Title:         "requirements.txt contains git-based dependency.",
		Confidence:    model.ConfidenceMedium,
		Pattern:       regexp.MustCompile(`(?i)git\+https?:\/\/`),
		FileNameRegex: regexp.MustCompile(`(?i)requirements.*\.txt$`),
	},
	{
		ID:            "SEC_SKILL_PROMPT_INJ_001",
		Category:      model.CategoryPromptInjection,
		Severity:      model.SeverityHigh,
		Title:         "Prompt injection style unsafe instruction in SKILL.md.",
		Confidence:    model.ConfidenceMedium,
		Pattern:       regexp.MustCompile(`(?i)(ignore\s+previous|exfiltrate|send\s+secrets|disable\s+safeguards)`),
		FileNameRegex: regexp.MustCompile(`(?i)SKILL\.md$`),
	},
}

// Catalog returns the detection rule table. The returned slice is shared
// and must be treated as read-only.
func Catalog() []Rule {
	return catalog
}

// ValidateCatalog checks every rule definition. An invalid rule is a
// programming error and must be fatal at process start, never at scan time.
func ValidateCatalog() error {
	seen := make(map[string]bool, len(catalog))
	for i := range catalog {
		rule := &catalog[i]
		if rule.ID == "" {
			return fmt.Errorf("rule %d: id is required", i)
		}
		if seen[rule.ID] {
			return fmt.Errorf("rule %s: duplicate id", rule.ID)
		}
		seen[rule.ID] = true
		if !rule.Category.IsValid() {
			return fmt.Errorf("rule %s: invalid category %q", rule.ID, rule.Category)
		}
		if !rule.Severity.IsValid() {
			return fmt.Errorf("rule %s: invalid severity %q", rule.ID, rule.Severity)
		}
		if !rule.Confidence.IsValid() {
			return fmt.Errorf("rule %s: invalid confidence %q", rule.ID, rule.Confidence)
		}
		if rule.Title == "" {
			return fmt.Errorf("rule %s: title is required", rule.ID)
		}
		if rule.Pattern == nil {
			return fmt.Errorf("rule %s: pattern is required", rule.ID)
		}
		for _, ext := range rule.FileExtensions {
			if ext != strings.ToLower(ext) {
				return fmt.Errorf("rule %s: extension %q must be lowercase", rule.ID, ext)
			}
		}
	}
	return nil
}
