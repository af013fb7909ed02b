package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/padelflow/models"
	"github.com/google/uuid"
)

type EventType string

const (
	EventTournamentInitialized EventType = "tournament_initialized"
	EventScoreDecided          EventType = "score_decided"
	EventWinnerAdvanced        EventType = "winner_advanced"
	EventTournamentDecided     EventType = "tournament_decided"
	EventTournamentCompleted   EventType = "tournament_completed"
)

// Event публикуется после коммита транзакции. Потребители не могут
// повлиять на уже записанный результат.
type Event struct {
	ID           uuid.UUID   `json:"id"`
	Type         EventType   `json:"type"`
	TournamentID int         `json:"tournament_id"`
	OccurredAt   time.Time   `json:"occurred_at"`
	Payload      interface{} `json:"payload,omitempty"`
}

type ScoreDecidedPayload struct {
	MatchID int             `json:"match_id"`
	Phase   string          `json:"phase"`
	Score   string          `json:"score"`
	Winner  models.TeamSlot `json:"winner"`
}

type WinnerAdvancedPayload struct {
	FromMatchID int             `json:"from_match_id"`
	ToMatchID   int             `json:"to_match_id"`
	ToPhase     string          `json:"to_phase"`
	Slot        models.TeamSlot `json:"slot"`
	PlayerIDs   []int           `json:"player_ids"`
	Corrected   bool            `json:"corrected"`
}

type TournamentDecidedPayload struct {
	FinalMatchID int             `json:"final_match_id"`
	Winner       models.TeamSlot `json:"winner"`
	PlayerIDs    []int           `json:"player_ids"`
}

type TournamentInitializedPayload struct {
	Teams   int `json:"teams"`
	Matches int `json:"matches"`
}

func NewEvent(eventType EventType, tournamentID int, payload interface{}) Event {
	return Event{
		ID:           uuid.New(),
		Type:         eventType,
		TournamentID: tournamentID,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventPublisherFunc adapts a plain function to EventPublisher.
type EventPublisherFunc func(ctx context.Context, event Event) error

func (f EventPublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// MultiPublisher fans an event out to every publisher and joins their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// publishAll рассылает события после коммита. Ошибки доставки только логируются.
func publishAll(ctx context.Context, publisher EventPublisher, metrics Metrics, logger *slog.Logger, events ...Event) {
	for _, e := range events {
		if err := publisher.Publish(ctx, e); err != nil {
			metrics.IncEventPublishFailure(e.Type)
			logger.Warn("failed to publish event",
				slog.String("type", string(e.Type)),
				slog.Int("tournament_id", e.TournamentID),
				slog.Any("error", err))
		}
	}
}
