package service

import (
	"context"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type historyReader interface {
	ListByRecord(ctx context.Context, hafalanRecordID string) ([]models.HistoryEntry, error)
}

type hafalanReader interface {
	GetByID(ctx context.Context, id string) (*models.HafalanRecord, error)
}

// HistoryService reads the audit ledger of hafalan records.
type HistoryService struct {
	records hafalanReader
	history historyReader
}

// NewHistoryService constructs the service.
func NewHistoryService(records hafalanReader, history historyReader) *HistoryService {
	return &HistoryService{records: records, history: history}
}

// ListHistory returns the entries of a record, oldest first.
func (s *HistoryService) ListHistory(ctx context.Context, recordID string) ([]models.HistoryEntry, error) {
	if _, err := s.records.GetByID(ctx, recordID); err != nil {
		return nil, mapRecordLookupError(err)
	}
	entries, err := s.history.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hafalan history")
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}
