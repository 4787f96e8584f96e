package services

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// defaultHistoryLimit bounds how many past interactions are summarized
// into the prompt context. Model context windows are finite; three recent
// touchpoints carry the deal state well enough.
const defaultHistoryLimit = 3

// ClientContext renders a client and their most recent interactions as a
// compact plain-text block for prompt injection. Interactions are expected
// newest first, as returned by the repository. An empty history yields an
// empty string so the prompt builder can substitute its new-client default.
func ClientContext(c *domain.Client, interactions []domain.Interaction, limit int) string {
	if c == nil || len(interactions) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	recent := interactions
	if len(recent) > limit {
		recent = recent[:limit]
	}

	company := c.Company
	if company == "" {
		company = "No company"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s (%s)\n", c.Name, company)
	fmt.Fprintf(&b, "Total interactions: %d\n", len(interactions))
	fmt.Fprintf(&b, "Last contact: %s\n", interactions[0].CreatedAt.Format("2006-01-02"))
	b.WriteString("\nRecent History:\n")
	for i, it := range recent {
		fmt.Fprintf(&b, "\n%d. %s - %s\n", i+1, it.CreatedAt.Format("2006-01-02"), it.DealStage)
		fmt.Fprintf(&b, "   Summary: %s\n", it.Summary)
		if it.Objections != "" {
			fmt.Fprintf(&b, "   Objections: %s\n", it.Objections)
		}
	}
	return b.String()
}
