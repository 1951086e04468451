package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"shelfstock/internal/repositories"
	"shelfstock/pkg/logger"

	"github.com/google/uuid"
)

// ArchiveService exports one day of movement records as CSV to the object
// store. The source rows are append-only, so re-running an export for the
// same day overwrites the object with identical content.
type ArchiveService interface {
	ArchiveDay(ctx context.Context, day time.Time) (string, error)
}

type archiveService struct {
	movementRepo repositories.MovementRepository
	store        ObjectStore
	bucket       string
}

func NewArchiveService(movementRepo repositories.MovementRepository, store ObjectStore, bucket string) ArchiveService {
	return &archiveService{
		movementRepo: movementRepo,
		store:        store,
		bucket:       bucket,
	}
}

var archiveHeader = []string{
	"id", "location_id", "item_id", "kind", "direction",
	"quantity", "quantity_before", "quantity_after",
	"order_ref", "route_ref", "source_location_id", "target_location_id",
	"reference_number", "notes", "user_id", "created_at",
}

// ArchiveDay exports the movements created on the given calendar day (UTC)
// and returns the object name it wrote.
func (s *archiveService) ArchiveDay(ctx context.Context, day time.Time) (string, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	movements, err := s.movementRepo.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("failed to list movements for %s: %w", start.Format("2006-01-02"), err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(archiveHeader); err != nil {
		return "", fmt.Errorf("failed to write archive header: %w", err)
	}
	for _, m := range movements {
		row := []string{
			m.ID.String(), m.LocationID.String(), m.ItemID.String(),
			string(m.Kind), string(m.Direction),
			strconv.Itoa(m.Quantity), strconv.Itoa(m.QuantityBefore), strconv.Itoa(m.QuantityAfter),
			derefString(m.OrderRef), derefString(m.RouteRef),
			derefUUID(m.SourceLocationID), derefUUID(m.TargetLocationID),
			derefString(m.ReferenceNumber), derefString(m.Notes), derefUUID(m.UserID),
			m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write archive row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush archive: %w", err)
	}

	if err := s.store.EnsureBucketExists(ctx, s.bucket); err != nil {
		return "", fmt.Errorf("failed to ensure archive bucket: %w", err)
	}

	objectName := fmt.Sprintf("movements/%s.csv", start.Format("2006-01-02"))
	if err := s.store.Upload(ctx, s.bucket, objectName, "text/csv", &buf, int64(buf.Len())); err != nil {
		return "", fmt.Errorf("failed to upload archive %s: %w", objectName, err)
	}

	logger.Info().Str("object", objectName).Int("movements", len(movements)).Msg("movement archive uploaded")
	return objectName, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefUUID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
