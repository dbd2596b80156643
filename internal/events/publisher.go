// Package events publishes analysis lifecycle events to NATS.
package events

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const (
	subjectCompleted = "skilllens.analysis.completed"
	subjectFailed    = "skilllens.analysis.failed"
)

// Publisher emits analysis lifecycle events. A nil *Publisher is a valid
// no-op so the worker can run without a broker.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewPublisher creates a publisher on an established NATS connection.
func NewPublisher(nc *nats.Conn, logger *slog.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// AnalysisCompleted is the payload for skilllens.analysis.completed.
type AnalysisCompleted struct {
	ArtifactID string `json:"artifact_id"`
	AnalysisID string `json:"analysis_id"`
	TrustBadge string `json:"trust_badge"`
	RiskScore  int    `json:"risk_score"`
	LLMUsed    bool   `json:"llm_used"`
	AnalyzedAt string `json:"analyzed_at"`
}

// AnalysisFailed is the payload for skilllens.analysis.failed.
type AnalysisFailed struct {
	ArtifactID string `json:"artifact_id"`
	AnalysisID string `json:"analysis_id"`
	Error      string `json:"error"`
}

// PublishCompleted emits a completion event. Publish failures are logged,
// not propagated: persistence already succeeded and events are advisory.
func (p *Publisher) PublishCompleted(event AnalysisCompleted) {
	p.publish(subjectCompleted, event)
}

// PublishFailed emits a failure event.
func (p *Publisher) PublishFailed(event AnalysisFailed) {
	p.publish(subjectFailed, event)
}

func (p *Publisher) publish(subject string, payload any) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", "subject", subject, "error", err)
		return
	}
	p.logger.Debug("Published event", "subject", subject)
}
