package session

// OutcomeKind classifies what the orchestrator produced for an utterance.
type OutcomeKind string

const (
	// OutcomeProposal carries a script awaiting operator confirmation.
	OutcomeProposal OutcomeKind = "proposal"
	// OutcomeClarification carries a question back to the operator.
	OutcomeClarification OutcomeKind = "clarification"
	// OutcomeReply carries an informational answer; no action proposed.
	OutcomeReply OutcomeKind = "reply"
	// OutcomeSettingsRequired signals that no model credential is
	// configured and the settings surface should be opened.
	OutcomeSettingsRequired OutcomeKind = "settings-required"
	// OutcomeError carries a user-facing failure description.
	OutcomeError OutcomeKind = "error"
)

// Outcome is the orchestrator's answer to a single utterance.
type Outcome struct {
	Kind     OutcomeKind
	Proposal *PendingScript // set for OutcomeProposal
	Message  string         // set for clarification, reply, and error
	Hint     string         // remediation hint for OutcomeError, may be empty
}
