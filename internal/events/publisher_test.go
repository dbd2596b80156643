package events

import "testing"

func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher
	// Must not panic without a broker connection.
	p.PublishCompleted(AnalysisCompleted{ArtifactID: "a", AnalysisID: "b"})
	p.PublishFailed(AnalysisFailed{ArtifactID: "a", Error: "boom"})
}
