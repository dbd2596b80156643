// Package model provides the shared data types for SkillLens security analysis.
package model

// Severity is the ordinal risk level of a finding.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// SeverityWeights maps severity to its risk score contribution.
var SeverityWeights = map[Severity]int{
	SeverityCritical: 100,
	SeverityHigh:     25,
	SeverityMedium:   5,
	SeverityLow:      1,
}

// IsValid reports whether the severity is one of the four known levels.
func (s Severity) IsValid() bool {
	_, ok := SeverityWeights[s]
	return ok
}

// Confidence is the scanner's certainty in a finding, distinct from severity.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// IsValid reports whether the confidence is one of the known levels.
func (c Confidence) IsValid() bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// Category groups findings by the kind of risky behavior detected.
type Category string

const (
	CategoryExec            Category = "exec"
	CategoryFilesystem      Category = "filesystem"
	CategoryNetwork         Category = "network"
	CategorySecrets         Category = "secrets"
	CategoryDeps            Category = "deps"
	CategoryPromptInjection Category = "prompt_injection"
)

// IsValid reports whether the category is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryExec, CategoryFilesystem, CategoryNetwork,
		CategorySecrets, CategoryDeps, CategoryPromptInjection:
		return true
	}
	return false
}

// ScannedFile is one decoded text artifact file submitted for analysis.
// Binary content never reaches this type; it is filtered upstream.
type ScannedFile struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Finding is one concrete detection instance with severity, category,
// and an evidence excerpt. The ID is a deterministic function of
// (rule id, file path, line start, evidence window): identical inputs
// produce byte-identical IDs across runs and processes.
type Finding struct {
	ID         string     `json:"id"`
	Category   Category   `json:"category"`
	Severity   Severity   `json:"severity"`
	Title      string     `json:"title"`
	Evidence   string     `json:"evidence"`
	FilePath   string     `json:"file_path"`
	LineStart  *int       `json:"line_start"`
	LineEnd    *int       `json:"line_end"`
	Confidence Confidence `json:"confidence"`
}

// CapabilityFlags is a coarse boolean behavioral summary computed as a
// logical OR across all scanned files. Flags are monotone within a scan:
// once set they are never reset.
type CapabilityFlags struct {
	Network    bool `json:"network"`
	FileWrite  bool `json:"file_write"`
	FileDelete bool `json:"file_delete"`
	ShellExec  bool `json:"shell_exec"`
	ReadsEnv   bool `json:"reads_env"`
	DBAccess   bool `json:"db_access"`
}

// Union returns the logical OR of two flag sets.
func (c CapabilityFlags) Union(other CapabilityFlags) CapabilityFlags {
	return CapabilityFlags{
		Network:    c.Network || other.Network,
		FileWrite:  c.FileWrite || other.FileWrite,
		FileDelete: c.FileDelete || other.FileDelete,
		ShellExec:  c.ShellExec || other.ShellExec,
		ReadsEnv:   c.ReadsEnv || other.ReadsEnv,
		DBAccess:   c.DBAccess || other.DBAccess,
	}
}

// Contains reports whether every flag set in other is also set in c.
func (c CapabilityFlags) Contains(other CapabilityFlags) bool {
	return c.Union(other) == c
}

// ScanResult is the deterministic output of one artifact scan.
type ScanResult struct {
	Findings     []Finding       `json:"findings"`
	RiskScore    int             `json:"risk_score"`
	TrustBadge   string          `json:"trust_badge"`
	Capabilities CapabilityFlags `json:"capabilities"`
}

// ValidatedFinding is a deterministic finding annotated by the external
// judgment service. It always references an existing Finding by ID;
// the validator never introduces new findings.
type ValidatedFinding struct {
	FindingID      string   `json:"finding_id"`
	IsTruePositive bool     `json:"is_true_positive"`
	FinalSeverity  Severity `json:"final_severity"`
	Reason         string   `json:"reason"`
	Mitigation     []string `json:"mitigation"`
}

// ValidatedSecurity is the full second-opinion payload from the external
// judgment service.
type ValidatedSecurity struct {
	ValidatedFindings []ValidatedFinding `json:"validated_findings"`
	SecuritySummary   string             `json:"security_summary"`
}

// SafetyCheck is one capability-driven safe/risk message pair shown to
// end users.
type SafetyCheck struct {
	Key         string `json:"key"`
	Safe        bool   `json:"safe"`
	SafeMessage string `json:"safe_message"`
	RiskMessage string `json:"risk_message"`
}

// UserExplanation is the human-facing portion of a security report.
type UserExplanation struct {
	Headline           string        `json:"headline"`
	Summary            string        `json:"summary"`
	TopConcerns        []string      `json:"top_concerns"`
	RecommendedActions []string      `json:"recommended_actions"`
	SafetyChecks       []SafetyCheck `json:"safety_checks"`
	SafetyStatements   []string      `json:"safety_statements"`
}

// SecurityReport is the final structured record persisted for one
// artifact analysis. Field names are a downstream compatibility surface.
type SecurityReport struct {
	Findings          []Finding          `json:"findings"`
	ValidatedFindings []ValidatedFinding `json:"validated_findings"`
	SecuritySummary   *string            `json:"security_summary"`
	UserExplanation   UserExplanation    `json:"user_explanation"`
	RiskScore         int                `json:"risk_score"`
	TrustBadge        string             `json:"trust_badge"`
	Capabilities      CapabilityFlags    `json:"capabilities"`
	LLMUsed           bool               `json:"llm_used"`
	LLMModel          *string            `json:"llm_model"`
	AnalyzedAt        string             `json:"analyzed_at"`
}
