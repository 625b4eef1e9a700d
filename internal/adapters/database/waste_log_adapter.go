package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// WasteLogAdapter implements WasteLogRepository
type WasteLogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewWasteLogAdapter creates a new waste log adapter
func NewWasteLogAdapter(client *postgres.Client) repositories.WasteLogRepository {
	return &WasteLogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves an entry by ID
func (a *WasteLogAdapter) GetByID(ctx context.Context, id string) (*entities.WasteEntry, error) {
	query, args, err := a.db.Select(wasteLogColumns...).
		From(wasteLogsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	entry, err := scanWasteEntry(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Waste log not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get waste log", err)
	}
	return entry, nil
}

// ListByUser returns the user's entries newest first
func (a *WasteLogAdapter) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.WasteEntry, error) {
	entries, _, err := a.ListAll(ctx, repositories.WasteLogFilter{UserID: userID, Limit: limit})
	return entries, err
}

// ListAll returns a page of entries and the number matching the filter
func (a *WasteLogAdapter) ListAll(ctx context.Context, filter repositories.WasteLogFilter) ([]*entities.WasteEntry, int, error) {
	where := goqu.Ex{}
	if filter.UserID != "" {
		where["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		where["collection_status"] = string(filter.Status)
	}

	countQuery, countArgs, err := a.db.From(wasteLogsTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(where).
		ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count waste logs", err)
	}

	ds := a.db.Select(wasteLogColumns...).
		From(wasteLogsTable).
		Where(where).
		Order(goqu.C("logged_at").Desc(), goqu.C("id").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list waste logs", err)
	}
	defer rows.Close()

	entries := []*entities.WasteEntry{}
	for rows.Next() {
		e, err := scanWasteEntry(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan waste log", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to iterate waste logs", err)
	}
	return entries, total, nil
}

// UpdateStatus sets the collection status only while it still equals from
func (a *WasteLogAdapter) UpdateStatus(ctx context.Context, id string, from, to entities.CollectionStatus) (*entities.WasteEntry, error) {
	query, args, err := a.db.Update(wasteLogsTable).
		Set(goqu.Record{
			"collection_status": string(to),
			"updated_at":        time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id, "collection_status": string(from)}).
		Returning(wasteLogColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	entry, err := scanWasteEntry(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		exists, countErr := a.count(ctx, goqu.Ex{"id": id})
		if countErr != nil {
			return nil, countErr
		}
		if exists == 0 {
			return nil, apperrors.NewNotFoundError("Waste log not found")
		}
		return nil, apperrors.NewConflictErrorWithCode(apperrors.CodeStatusChanged,
			fmt.Sprintf("Waste log is no longer %s", from))
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to update status of waste log %s", id), err)
	}
	return entry, nil
}

// CountByUser counts a user's entries
func (a *WasteLogAdapter) CountByUser(ctx context.Context, userID string) (int, error) {
	return a.count(ctx, goqu.Ex{"user_id": userID})
}

// Count counts all entries
func (a *WasteLogAdapter) Count(ctx context.Context) (int, error) {
	return a.count(ctx, goqu.Ex{})
}

func (a *WasteLogAdapter) count(ctx context.Context, where goqu.Ex) (int, error) {
	query, args, err := a.db.From(wasteLogsTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(where).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count waste logs", err)
	}
	return n, nil
}
