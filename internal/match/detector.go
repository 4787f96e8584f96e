package match

import (
	"sort"
	"strings"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// DefaultThreshold is the minimum weighted score for a record to be
// reported as a potential duplicate when the email does not match exactly.
const DefaultThreshold = 85

// Weighting of the name and company similarity signals. An exact
// case-insensitive email match overrides both.
const (
	nameWeight    = 0.7
	companyWeight = 0.3
)

// Match describes one existing client scored against a candidate record.
type Match struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Company           string  `json:"company,omitempty"`
	Email             string  `json:"email,omitempty"`
	NameSimilarity    float64 `json:"name_similarity"`
	EmailMatch        bool    `json:"email_match"`
	CompanySimilarity float64 `json:"company_similarity"`
	TotalScore        float64 `json:"total_score"`
}

// Detector scores prospective client records against the existing active
// set. It holds no state beyond the threshold and performs no writes.
type Detector struct {
	Threshold float64
}

// NewDetector returns a Detector with the given threshold; values <= 0
// fall back to DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{Threshold: threshold}
}

// FindDuplicates scores the candidate (name, email, company) against every
// record in existing and returns the matches at or above the threshold,
// ordered by total score descending.
//
// Scoring policy:
//   - exact case-insensitive email match: EmailMatch=true, TotalScore=100,
//     overriding all other signals;
//   - otherwise TotalScore = 0.7*name similarity + 0.3*company similarity,
//     with company similarity 0 when either side has no company.
//
// Inactive records in existing are skipped; callers normally pass the
// active set only, but the guard keeps the contract independent of the
// query used.
func (d *Detector) FindDuplicates(name, email, company string, existing []domain.Client) []Match {
	var out []Match
	for _, c := range existing {
		if !c.Active() {
			continue
		}
		m := Match{
			ID:             c.ID,
			Name:           c.Name,
			Company:        c.Company,
			Email:          c.Email,
			NameSimilarity: Similarity(name, c.Name),
		}
		if email != "" && c.Email != "" && strings.EqualFold(email, c.Email) {
			m.EmailMatch = true
			m.TotalScore = 100
		} else {
			if company != "" && c.Company != "" {
				m.CompanySimilarity = Similarity(company, c.Company)
			}
			m.TotalScore = m.NameSimilarity*nameWeight + m.CompanySimilarity*companyWeight
		}
		if m.EmailMatch || m.TotalScore >= d.Threshold {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScore > out[j].TotalScore
	})
	return out
}
