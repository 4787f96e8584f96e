// Package services – FollowUpService
//
// This file implements FollowUpService, which drafts follow-up outreach
// (a full email and a short chat message) from a stored interaction. The
// two drafts come from two separate generation calls; either falling below
// its minimum length fails the whole operation without storing anything.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/extract"
	"github.com/tbourn/go-crm-backend/internal/llm"
	"github.com/tbourn/go-crm-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Minimum draft lengths in runes. Anything shorter is a degenerate model
// output, not a usable draft.
const (
	minEmailRunes   = 20
	minMessageRunes = 10
)

// FollowUpService drafts and stores follow-up content for interactions.
type FollowUpService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Provider generates model completions.
	Provider llm.Provider

	// Temperature for drafting calls; higher than extraction so the prose
	// does not read canned.
	Temperature float64
	// MaxTokens caps each completion (0 = provider default).
	MaxTokens int
	// CallTimeout bounds each individual generation call.
	CallTimeout time.Duration
	// HistoryLimit is how many recent interactions feed the email context.
	HistoryLimit int
}

// NewFollowUpService constructs a FollowUpService with drafting defaults.
func NewFollowUpService(db *gorm.DB, p llm.Provider) *FollowUpService {
	return &FollowUpService{
		DB:           db,
		Provider:     p,
		Temperature:  0.7,
		MaxTokens:    600,
		CallTimeout:  60 * time.Second,
		HistoryLimit: defaultHistoryLimit,
	}
}

// Generate drafts and stores follow-up content for the given interaction.
// Each interaction gets at most one follow-up; a second request returns
// ErrFollowUpExists instead of regenerating.
func (s *FollowUpService) Generate(ctx context.Context, interactionID string) (*domain.FollowUp, error) {
	tr := otel.Tracer("services/FollowUpService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(attribute.String("interaction.id", interactionID)),
	)
	defer span.End()

	if _, err := repo.GetFollowUpByInteraction(ctx, s.DB, interactionID); err == nil {
		return nil, ErrFollowUpExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	it, err := repo.GetInteraction(ctx, s.DB, interactionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInteractionNotFound
		}
		return nil, err
	}
	client, err := repo.GetClient(ctx, s.DB, it.ClientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	history, err := repo.ListInteractions(ctx, s.DB, it.ClientID)
	if err != nil {
		return nil, err
	}

	rec := domain.CRMRecord{
		Summary:       it.Summary,
		DealStage:     it.DealStage,
		Objections:    it.Objections,
		InterestLevel: it.InterestLevel,
		NextAction:    it.NextAction,
		FollowupDate:  it.FollowupDate,
	}

	emailText, err := s.generate(ctx, extract.EmailPrompt(client.Name, client.Company, ClientContext(client, history, s.HistoryLimit), rec))
	if err != nil {
		return nil, err
	}
	emailText = strings.TrimSpace(emailText)
	if utf8.RuneCountInString(emailText) < minEmailRunes {
		return nil, ErrFollowUpTooShort
	}

	messageText, err := s.generate(ctx, extract.MessagePrompt(client.Name, rec))
	if err != nil {
		return nil, err
	}
	messageText = strings.TrimSpace(messageText)
	if utf8.RuneCountInString(messageText) < minMessageRunes {
		return nil, ErrFollowUpTooShort
	}

	return repo.CreateFollowUp(ctx, s.DB, interactionID, emailText, messageText)
}

// Get returns the stored follow-up for an interaction.
func (s *FollowUpService) Get(ctx context.Context, interactionID string) (*domain.FollowUp, error) {
	if _, err := repo.GetInteraction(ctx, s.DB, interactionID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInteractionNotFound
		}
		return nil, err
	}
	fu, err := repo.GetFollowUpByInteraction(ctx, s.DB, interactionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrFollowUpNotFound
		}
		return nil, err
	}
	return fu, nil
}

// Due lists interactions whose follow-up date falls within the next days
// and that have no stored follow-up yet. Non-positive days defaults to a
// week.
func (s *FollowUpService) Due(ctx context.Context, days int) ([]repo.InteractionWithClient, error) {
	if days <= 0 {
		days = 7
	}
	return repo.InteractionsNeedingFollowUp(ctx, s.DB, days)
}

func (s *FollowUpService) generate(ctx context.Context, prompt string) (string, error) {
	if s.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CallTimeout)
		defer cancel()
	}
	return s.Provider.Generate(ctx, prompt, llm.Options{
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	})
}
