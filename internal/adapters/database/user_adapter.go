package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

const uniqueViolation = "23505"

// UserAdapter implements UserRepository
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a user with zero totals. ID and timestamps are assigned
// when empty.
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = entities.RoleUser
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	query, args, err := a.db.Insert(usersTable).Rows(goqu.Record{
		"id":                      user.ID,
		"email":                   user.Email,
		"password_hash":           user.PasswordHash,
		"name":                    user.Name,
		"location":                user.Location,
		"role":                    string(user.Role),
		"total_co2_saved_kg":      user.TotalCO2SavedKg,
		"total_waste_recycled_kg": user.TotalWasteRecycledKg,
		"points":                  user.Points,
		"created_at":              user.CreatedAt,
		"updated_at":              user.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return apperrors.NewConflictErrorWithCode(apperrors.CodeDuplicateEmail,
				"an account with this email already exists")
		}
		return apperrors.NewInternalError("failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getByField(ctx, "id", id)
}

// GetByEmail retrieves a user by email, case-insensitively
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return a.getByField(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (a *UserAdapter) getByField(ctx context.Context, field, value string) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).
		From(usersTable).
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user, err := scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return user, nil
}

// UpdateProfile changes name and location and returns the stored user
func (a *UserAdapter) UpdateProfile(ctx context.Context, id, name, location string) (*entities.User, error) {
	query, args, err := a.db.Update(usersTable).
		Set(goqu.Record{
			"name":       name,
			"location":   location,
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id}).
		Returning(userColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	user, err := scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update profile", err)
	}
	return user, nil
}

// ListLeaderboard orders by points, then CO2 saved, then name
func (a *UserAdapter) ListLeaderboard(ctx context.Context, limit int) ([]*entities.User, error) {
	ds := a.db.Select(userColumns...).
		From(usersTable).
		Where(goqu.Or(
			goqu.C("points").Gt(0),
			goqu.C("total_co2_saved_kg").Gt(0),
		)).
		Order(
			goqu.C("points").Desc(),
			goqu.C("total_co2_saved_kg").Desc(),
			goqu.C("name").Asc(),
		)
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list leaderboard", err)
	}
	defer rows.Close()

	users := []*entities.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate users", err)
	}
	return users, nil
}

// ListIDs returns every user ID
func (a *UserAdapter) ListIDs(ctx context.Context) ([]string, error) {
	query, args, err := a.db.Select("id").From(usersTable).Order(goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list user ids", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate user ids", err)
	}
	return ids, nil
}

// Stats sums profile totals across all users
func (a *UserAdapter) Stats(ctx context.Context) (*repositories.UserStats, error) {
	query, args, err := a.db.Select(
		goqu.COUNT(goqu.Star()),
		goqu.COALESCE(goqu.SUM("total_waste_recycled_kg"), 0),
		goqu.COALESCE(goqu.SUM("total_co2_saved_kg"), 0),
		goqu.COALESCE(goqu.SUM("points"), 0),
	).From(usersTable).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	stats := &repositories.UserStats{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalUsers,
		&stats.TotalWasteRecycled,
		&stats.TotalCO2Saved,
		&stats.TotalPoints,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to compute user stats", err)
	}
	return stats, nil
}
