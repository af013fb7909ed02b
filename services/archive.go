package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/padelflow/storage"
)

// BracketArchiver uploads a JSON snapshot of the bracket once a tournament
// is decided or completed. It is an EventPublisher, so it plugs into the
// same fan-out as live updates.
type BracketArchiver struct {
	brackets BracketService
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewBracketArchiver(brackets BracketService, uploader storage.FileUploader, logger *slog.Logger) *BracketArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketArchiver{brackets: brackets, uploader: uploader, logger: logger}
}

// SnapshotKey - ключ объекта снимка в бакете.
func SnapshotKey(tournamentID int, eventType EventType, at time.Time) string {
	return fmt.Sprintf("snapshots/tournament_%d/%s_%s.json", tournamentID, eventType, at.UTC().Format("20060102T150405Z"))
}

func (a *BracketArchiver) Publish(ctx context.Context, event Event) error {
	if event.Type != EventTournamentDecided && event.Type != EventTournamentCompleted {
		return nil
	}
	if a.uploader == nil {
		return storage.ErrNotConfigured
	}

	view, err := a.brackets.GetBracket(ctx, event.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to load bracket for snapshot: %w", err)
	}
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode bracket snapshot: %w", err)
	}

	key := SnapshotKey(event.TournamentID, event.Type, event.OccurredAt)
	res, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}

	a.logger.Info("bracket snapshot archived",
		slog.Int("tournament_id", event.TournamentID),
		slog.String("key", res.Key),
		slog.String("location", res.Location))
	return nil
}
