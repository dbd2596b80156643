package scan

import (
	"regexp"
	"strings"

	"github.com/Aryan1718/SkillLens/internal/model"
)

// Capability detection is deliberately coarser than rule matching: it feeds
// the user-facing capability summary, not findings, and over-approximation
// is acceptable.
var (
	capNetwork    = regexp.MustCompile(`\b(requests\.|fetch\s*\(|httpx\.|urllib\.)`)
	capFileWrite  = regexp.MustCompile(`\b(open\s*\(.+['"]w|write_text\s*\(|fs\.writefile|tee\s+)`)
	capFileDelete = regexp.MustCompile(`\b(rm\s+-rf|rmtree\s*\(|unlink\s*\()`)
	capShellExec  = regexp.MustCompile(`\b(subprocess\.|os\.system|child_process\.)`)
	capReadsEnv   = regexp.MustCompile(`\b(os\.environ|getenv|process\.env)\b`)
	capDBAccess   = regexp.MustCompile(`\b(select\s+.+\s+from|insert\s+into|sqlalchemy|psycopg|sqlite3|mongodb)\b`)
)

// detectCapabilities ORs the capability flags of one file's lowercased text
// into flags. Flags are only ever set, never cleared.
func detectCapabilities(text string, flags *model.CapabilityFlags) {
	lowered := strings.ToLower(text)
	if capNetwork.MatchString(lowered) {
		flags.Network = true
	}
	if capFileWrite.MatchString(lowered) {
		flags.FileWrite = true
	}
	if capFileDelete.MatchString(lowered) {
		flags.FileDelete = true
	}
	if capShellExec.MatchString(lowered) {
		flags.ShellExec = true
	}
	if capReadsEnv.MatchString(lowered) {
		flags.ReadsEnv = true
	}
	if capDBAccess.MatchString(lowered) {
		flags.DBAccess = true
	}
}
