package extract

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

const (
	minSummaryLen    = 10
	minNextActionLen = 5

	followupDateLayout = "2006-01-02"
)

// objectionsNone lists the phrases the model uses for "no objections";
// they are coerced to an absent value during normalization.
var objectionsNone = map[string]struct{}{
	"":              {},
	"none":          {},
	"n/a":           {},
	"no objections": {},
}

// rawRecord mirrors the JSON shape the model is instructed to emit.
// Objections and followup_date are pointers so that explicit null and a
// missing key are both distinguishable from an empty string.
type rawRecord struct {
	Summary       string  `json:"summary"`
	DealStage     string  `json:"deal_stage"`
	Objections    *string `json:"objections"`
	InterestLevel string  `json:"interest_level"`
	NextAction    string  `json:"next_action"`
	FollowupDate  *string `json:"followup_date"`
}

// Validate parses, validates, and normalizes raw model output into a
// domain.CRMRecord.
//
// Processing order:
//  1. strip a Markdown code fence when present (a ```json fence wins over
//     a plain one);
//  2. if the remainder is not itself a clean object, take the greedy
//     substring from the first '{' to the last '}' to tolerate leading or
//     trailing commentary;
//  3. unmarshal, failing with *ParseError;
//  4. check schema rules in field order, failing with *SchemaError on the
//     first violation;
//  5. normalize objections: "none"/"n/a"/"no objections"/"" (any case)
//     become absent.
//
// On success the returned record satisfies every schema invariant, and
// re-validating its own JSON encoding yields the same record. On failure
// the raw text travels inside the returned error.
func Validate(raw string) (domain.CRMRecord, error) {
	cleaned := CleanJSON(raw)

	var rec rawRecord
	if err := json.Unmarshal([]byte(cleaned), &rec); err != nil {
		return domain.CRMRecord{}, &ParseError{Raw: raw, Err: err}
	}

	if utf8.RuneCountInString(strings.TrimSpace(rec.Summary)) < minSummaryLen {
		return domain.CRMRecord{}, &SchemaError{Field: "summary", Rule: "must be at least 10 characters", Raw: raw}
	}
	stage := domain.DealStage(rec.DealStage)
	if !stage.Valid() {
		return domain.CRMRecord{}, &SchemaError{Field: "deal_stage", Rule: "must be one of the known pipeline stages", Raw: raw}
	}
	level := domain.InterestLevel(rec.InterestLevel)
	if !level.Valid() {
		return domain.CRMRecord{}, &SchemaError{Field: "interest_level", Rule: "must be one of hot, warm, cold, neutral", Raw: raw}
	}
	if utf8.RuneCountInString(strings.TrimSpace(rec.NextAction)) < minNextActionLen {
		return domain.CRMRecord{}, &SchemaError{Field: "next_action", Rule: "must be at least 5 characters", Raw: raw}
	}

	var followup string
	if rec.FollowupDate != nil && strings.TrimSpace(*rec.FollowupDate) != "" {
		followup = strings.TrimSpace(*rec.FollowupDate)
		if _, err := time.Parse(followupDateLayout, followup); err != nil {
			return domain.CRMRecord{}, &SchemaError{Field: "followup_date", Rule: "must be a valid YYYY-MM-DD date", Raw: raw}
		}
	}

	var objections string
	if rec.Objections != nil {
		objections = strings.TrimSpace(*rec.Objections)
		if _, none := objectionsNone[strings.ToLower(objections)]; none {
			objections = ""
		}
	}

	return domain.CRMRecord{
		Summary:       strings.TrimSpace(rec.Summary),
		DealStage:     stage,
		Objections:    objections,
		InterestLevel: level,
		NextAction:    strings.TrimSpace(rec.NextAction),
		FollowupDate:  followup,
	}, nil
}

// CleanJSON extracts the JSON object from free-form model output. It
// removes Markdown code fences and, when stray commentary surrounds the
// object, returns the greedy first-'{'-to-last-'}' substring. The result
// is not guaranteed to parse; Validate reports that as *ParseError.
func CleanJSON(raw string) string {
	s := raw

	// Prefer a fence tagged as json; fall back to any fenced block.
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+len("```"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}
