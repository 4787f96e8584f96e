package extract

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// Prompt templates live here rather than inline in the pipelines so they
// can be tuned without touching business logic.

// StrictRetryDirective is appended to the original prompt when the first
// model response fails validation. The pipeline performs exactly one retry
// with this suffix.
const StrictRetryDirective = "\n\nCRITICAL: Return ONLY valid JSON. No other text."

const crmPromptTemplate = `You are an expert sales CRM assistant. Analyze the following sales conversation and extract structured data.

CONVERSATION:
%s

CLIENT CONTEXT:
%s

Extract the following fields and return ONLY a valid JSON object (no markdown, no explanation):

{
    "summary": "Brief 2-3 sentence summary of what was discussed and key outcomes",
    "deal_stage": "One of: %s",
    "objections": "Any concerns or objections raised by client, or null if none",
    "interest_level": "One of: %s",
    "next_action": "Specific next step required (e.g., 'Send proposal by Friday', 'Schedule demo next Tuesday')",
    "followup_date": "Suggested follow-up date in YYYY-MM-DD format, or null if not applicable"
}

Rules:
- Be concise but specific in summaries
- Deal stage must be exact match from list
- Interest level: hot=ready to buy, warm=interested, cold=not interested, neutral=unclear
- Next action must be actionable and specific
- If client mentioned specific dates/times, use those for followup_date`

const emailPromptTemplate = `You are a professional sales copywriter. Write a follow-up email based on the interaction details.

CLIENT: %s
COMPANY: %s
HISTORY:
%s

CURRENT INTERACTION:
%s
Deal Stage: %s
Interest Level: %s
Next Action: %s
Objections: %s

Write a professional, personalized follow-up email that:
1. References specific points from the conversation
2. Addresses any objections if present
3. Confirms the next action
4. Maintains appropriate tone for the interest level (hot=urgent, warm=friendly, cold=gentle, neutral=professional)
5. Is 3-5 paragraphs max
6. Includes professional signature

Return ONLY the email body text, no subject line, no markdown formatting.`

const messagePromptTemplate = `You are a sales assistant writing a WhatsApp/SMS follow-up. Create a short, casual message.

CLIENT: %s
CONTEXT: %s
NEXT ACTION: %s
INTEREST LEVEL: %s

Write a brief WhatsApp-style message (2-4 sentences) that:
- Is conversational and friendly
- References the discussion
- Confirms next steps
- Uses appropriate urgency based on interest level
- No formal salutation or signature needed
- Under 300 characters if possible, max 500

Return ONLY the message text.`

// CRMPrompt builds the extraction prompt for a conversation with the given
// client context. The closed enum vocabularies are embedded verbatim so
// the validator and the prompt can never drift apart.
func CRMPrompt(conversation, context string) string {
	if strings.TrimSpace(context) == "" {
		context = "New client"
	}
	return fmt.Sprintf(crmPromptTemplate, conversation, context,
		stageVocabulary(), levelVocabulary())
}

// EmailPrompt builds the follow-up email prompt from client identity,
// condensed history, and the extracted record.
func EmailPrompt(clientName, company, history string, rec domain.CRMRecord) string {
	if strings.TrimSpace(company) == "" {
		company = "Unknown"
	}
	objections := rec.Objections
	if strings.TrimSpace(objections) == "" {
		objections = "None"
	}
	return fmt.Sprintf(emailPromptTemplate, clientName, company, history,
		rec.Summary, rec.DealStage, rec.InterestLevel, rec.NextAction, objections)
}

// MessagePrompt builds the short chat-style follow-up prompt.
func MessagePrompt(clientName string, rec domain.CRMRecord) string {
	return fmt.Sprintf(messagePromptTemplate, clientName, rec.Summary,
		rec.NextAction, rec.InterestLevel)
}

func stageVocabulary() string {
	parts := make([]string, len(domain.DealStages))
	for i, s := range domain.DealStages {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func levelVocabulary() string {
	parts := make([]string, len(domain.InterestLevels))
	for i, l := range domain.InterestLevels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
