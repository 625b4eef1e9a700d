package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// DriftTolerance is the largest difference in kilograms between stored and
// recomputed float totals that reconciliation ignores.
const DriftTolerance = 1e-6

// LedgerAdapter implements WasteLedger. Each operation locks the owner's
// row first so concurrent writes for one user serialize.
type LedgerAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewLedgerAdapter creates a new ledger adapter
func NewLedgerAdapter(client *postgres.Client) repositories.WasteLedger {
	return &LedgerAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecordEntry inserts the entry and adds it to the owner's totals
func (a *LedgerAdapter) RecordEntry(ctx context.Context, entry *entities.WasteEntry) (*entities.User, error) {
	var owner *entities.User
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		user, err := a.lockUser(ctx, tx, entry.UserID)
		if err != nil {
			return err
		}

		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		now := a.now()
		entry.LoggedAt = now
		entry.UpdatedAt = now
		if entry.CollectionStatus == "" {
			entry.CollectionStatus = entities.CollectionStatusPending
		}

		query, args, err := a.db.Insert(wasteLogsTable).Rows(goqu.Record{
			"id":                  entry.ID,
			"user_id":             entry.UserID,
			"waste_type":          string(entry.WasteType),
			"weight_kg":           entry.WeightKg,
			"image_url":           nullString(entry.ImageURL),
			"co2_saved_kg":        entry.CO2SavedKg,
			"disposal_method":     entry.DisposalMethod,
			"collection_location": entry.CollectionLocation,
			"region":              entry.Region,
			"collection_status":   string(entry.CollectionStatus),
			"collection_date":     nullTime(entry.CollectionDate),
			"facility_id":         nullString(entry.FacilityID),
			"logged_at":           entry.LoggedAt,
			"updated_at":          entry.UpdatedAt,
		}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to insert waste log", err)
		}

		user.ProfileTotals = waste.ApplyNewEntry(user.ProfileTotals, *entry)
		if err := a.writeTotals(ctx, tx, user); err != nil {
			return err
		}
		owner = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// RemoveEntry deletes the entry and subtracts it from the owner's totals
func (a *LedgerAdapter) RemoveEntry(ctx context.Context, entryID string) (*entities.WasteEntry, *entities.User, error) {
	var (
		removed *entities.WasteEntry
		owner   *entities.User
	)
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		query, args, err := a.db.Select(wasteLogColumns...).
			From(wasteLogsTable).
			Where(goqu.Ex{"id": entryID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build query", err)
		}
		entry, err := scanWasteEntry(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("Waste log not found")
		}
		if err != nil {
			return apperrors.NewInternalError("failed to get waste log", err)
		}

		user, err := a.lockUser(ctx, tx, entry.UserID)
		if err != nil {
			return err
		}

		query, args, err = a.db.Delete(wasteLogsTable).Where(goqu.Ex{"id": entryID}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build delete query", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewInternalError("failed to delete waste log", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		// A concurrent delete won the race after our read.
		if rowsAffected == 0 {
			return apperrors.NewNotFoundError("Waste log not found")
		}

		user.ProfileTotals = waste.RevertEntry(user.ProfileTotals, *entry)
		if err := a.writeTotals(ctx, tx, user); err != nil {
			return err
		}
		removed, owner = entry, user
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return removed, owner, nil
}

// ReconcileUser folds the user's entries in log order and rewrites the
// stored totals when they differ beyond DriftTolerance.
func (a *LedgerAdapter) ReconcileUser(ctx context.Context, userID string) (*repositories.ReconcileResult, error) {
	var result *repositories.ReconcileResult
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		user, err := a.lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		query, args, err := a.db.Select(wasteLogColumns...).
			From(wasteLogsTable).
			Where(goqu.Ex{"user_id": userID}).
			Order(goqu.C("logged_at").Asc(), goqu.C("id").Asc()).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build query", err)
		}
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewInternalError("failed to list waste logs", err)
		}
		var entries []entities.WasteEntry
		for rows.Next() {
			e, err := scanWasteEntry(rows)
			if err != nil {
				rows.Close()
				return apperrors.NewInternalError("failed to scan waste log", err)
			}
			entries = append(entries, *e)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return apperrors.NewInternalError("failed to iterate waste logs", err)
		}
		rows.Close()

		recomputed := waste.Recompute(entries)
		result = &repositories.ReconcileResult{
			UserID:  userID,
			Before:  user.ProfileTotals,
			After:   user.ProfileTotals,
			Entries: len(entries),
		}
		if !waste.Drifted(user.ProfileTotals, recomputed, DriftTolerance) {
			return nil
		}

		user.ProfileTotals = recomputed
		if err := a.writeTotals(ctx, tx, user); err != nil {
			return err
		}
		result.After = recomputed
		result.Drifted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *LedgerAdapter) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	err := a.client.WithinTx(ctx, fn)
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewInternalError("ledger transaction failed", err)
}

func (a *LedgerAdapter) lockUser(ctx context.Context, tx *sql.Tx, userID string) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).
		From(usersTable).
		Where(goqu.Ex{"id": userID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user, err := scanUser(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", userID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to lock user", err)
	}
	return user, nil
}

func (a *LedgerAdapter) writeTotals(ctx context.Context, tx *sql.Tx, user *entities.User) error {
	user.UpdatedAt = a.now()
	query, args, err := a.db.Update(usersTable).
		Set(goqu.Record{
			"total_co2_saved_kg":      user.TotalCO2SavedKg,
			"total_waste_recycled_kg": user.TotalWasteRecycledKg,
			"points":                  user.Points,
			"updated_at":              user.UpdatedAt,
		}).
		Where(goqu.Ex{"id": user.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to update profile totals", err)
	}
	return nil
}
