package domain

// CRMRecord is the structured tuple extracted from a raw conversation by
// the language model and validated by extract.Validate. A CRMRecord that
// came out of the validator satisfies every schema rule: minimum lengths,
// closed enum membership, and a parseable follow-up date when present.
type CRMRecord struct {
	Summary       string        `json:"summary"`
	DealStage     DealStage     `json:"deal_stage"`
	Objections    string        `json:"objections,omitempty"`
	InterestLevel InterestLevel `json:"interest_level"`
	NextAction    string        `json:"next_action"`
	FollowupDate  string        `json:"followup_date,omitempty"`
}

// FollowUpContent carries the two generated outreach artifacts before they
// are persisted against an interaction.
type FollowUpContent struct {
	EmailText   string `json:"email_text"`
	MessageText string `json:"message_text"`
}
