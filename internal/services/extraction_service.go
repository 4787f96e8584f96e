// Package services – ExtractionService
//
// This file implements ExtractionService, the application-level component
// that turns raw sales conversations into structured interaction records.
// It validates inputs, builds the prompt with the client's recent history,
// calls the configured llm.Provider, validates the model output, and
// persists the resulting interaction.
//
// The pipeline retries the generation exactly once: if the first output
// fails parsing or schema validation, the prompt is re-sent with a strict
// JSON-only directive appended. A second failure surfaces as an
// *ExtractionError carrying the final raw output. Provider failures
// (connectivity, timeouts) are never retried here.
//
// Observability: public methods are OpenTelemetry-instrumented; spans
// include the client identifier and whether the retry fired.
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

// minConversationRunes is the shortest conversation worth extracting from.
const minConversationRunes = 10

// ExtractionService coordinates prompt construction, model calls, output
// validation, and interaction persistence.
type ExtractionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Provider generates model completions.
	Provider llm.Provider

	// Temperature for extraction calls; low values keep the JSON stable.
	Temperature float64
	// MaxTokens caps each completion (0 = provider default).
	MaxTokens int
	// CallTimeout bounds each individual generation call (0 = caller's
	// context only).
	CallTimeout time.Duration
	// HistoryLimit is how many recent interactions feed the prompt context.
	HistoryLimit int
}

// NewExtractionService constructs an ExtractionService with conservative
// generation defaults.
func NewExtractionService(db *gorm.DB, p llm.Provider) *ExtractionService {
	return &ExtractionService{
		DB:           db,
		Provider:     p,
		Temperature:  0.1,
		MaxTokens:    500,
		CallTimeout:  60 * time.Second,
		HistoryLimit: defaultHistoryLimit,
	}
}

// Process extracts structured data from a conversation with the given
// client and stores it as a new interaction. The client must exist and be
// active; its recent history is folded into the prompt so the model sees
// the deal's trajectory.
func (s *ExtractionService) Process(ctx context.Context, clientID, conversation string) (*domain.Interaction, error) {
	tr := otel.Tracer("services/ExtractionService")
	ctx, span := tr.Start(ctx, "Process",
		trace.WithAttributes(attribute.String("client.id", clientID)),
	)
	defer span.End()

	client, err := repo.GetClient(ctx, s.DB, clientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.Active() {
		return nil, ErrClientNotFound
	}

	history, err := repo.ListInteractions(ctx, s.DB, clientID)
	if err != nil {
		return nil, err
	}

	rec, err := s.Extract(ctx, conversation, ClientContext(client, history, s.HistoryLimit))
	if err != nil {
		return nil, err
	}
	return repo.CreateInteraction(ctx, s.DB, clientID, strings.TrimSpace(conversation), rec)
}

// Extract runs the conversation through the model and validates the output
// against the record schema. clientContext may be empty for new clients.
//
// At most two generation calls are made: the original prompt, then the
// same prompt with the strict JSON-only directive appended. The validated
// record from whichever call succeeds first is returned.
func (s *ExtractionService) Extract(ctx context.Context, conversation, clientContext string) (domain.CRMRecord, error) {
	tr := otel.Tracer("services/ExtractionService")
	ctx, span := tr.Start(ctx, "Extract")
	defer span.End()

	conversation = strings.TrimSpace(conversation)
	if conversation == "" {
		return domain.CRMRecord{}, ErrEmptyConversation
	}
	if utf8.RuneCountInString(conversation) < minConversationRunes {
		return domain.CRMRecord{}, ErrConversationTooShort
	}

	prompt := extract.CRMPrompt(conversation, clientContext)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return domain.CRMRecord{}, err
	}
	rec, verr := extract.Validate(raw)
	if verr == nil {
		return rec, nil
	}
	span.SetAttributes(attribute.Bool("extract.retried", true))

	raw, err = s.generate(ctx, prompt+extract.StrictRetryDirective)
	if err != nil {
		return domain.CRMRecord{}, err
	}
	rec, verr = extract.Validate(raw)
	if verr != nil {
		return domain.CRMRecord{}, &ExtractionError{RawOutput: raw, Reason: verr}
	}
	return rec, nil
}

// History returns all interactions recorded for a client, newest first.
func (s *ExtractionService) History(ctx context.Context, clientID string) ([]domain.Interaction, error) {
	if _, err := repo.GetClient(ctx, s.DB, clientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return repo.ListInteractions(ctx, s.DB, clientID)
}

// GetInteraction returns a single interaction by ID.
func (s *ExtractionService) GetInteraction(ctx context.Context, id string) (*domain.Interaction, error) {
	it, err := repo.GetInteraction(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInteractionNotFound
		}
		return nil, err
	}
	return it, nil
}

func (s *ExtractionService) generate(ctx context.Context, prompt string) (string, error) {
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
