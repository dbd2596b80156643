// Package scan implements the deterministic security scanning pipeline for
// skill artifacts: rule matching, manifest checks, capability detection,
// and risk scoring. The pipeline is pure and synchronous; given identical
// input files it produces byte-identical output.
package scan

import "github.com/Aryan1718/SkillLens/internal/model"

// Scan runs deterministic security checks over decoded text artifacts.
//
// Finding order is reproducible: for each file in input order, generic rule
// matches in catalog order then discovery order, followed by that file's
// manifest-check findings.
func Scan(files []model.ScannedFile) model.ScanResult {
	findings := []model.Finding{}
	var capabilities model.CapabilityFlags

	for _, file := range files {
		if file.Text == "" {
			continue
		}
		detectCapabilities(file.Text, &capabilities)
		for _, match := range matchFile(file) {
			findings = append(findings, assembleFinding(match))
		}
		findings = append(findings, manifestFindings(file)...)
	}

	riskScore := RiskScore(findings)
	return model.ScanResult{
		Findings:     findings,
		RiskScore:    riskScore,
		TrustBadge:   TrustBadge(riskScore),
		Capabilities: capabilities,
	}
}
