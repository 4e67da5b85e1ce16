// Package sqlstore provides a board repository on top of gorm. PostgreSQL is
// used for postgres DSNs and SQLite for everything else. Each board is stored
// as a JSON document next to its version; membership and entity lookups live
// in side tables rewritten in the same transaction.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aidzix/Monday/internal/adapters/repository"
	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.BoardRepository = (*Repository)(nil)
	_ ports.HealthChecker   = (*Repository)(nil)
)

type boardRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	OwnerID   string `gorm:"size:64;index;not null"`
	Version   int64  `gorm:"not null"`
	Document  datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (boardRow) TableName() string { return "boards" }

type memberRow struct {
	BoardID string `gorm:"primaryKey;size:64"`
	UserID  string `gorm:"primaryKey;size:64;index"`
}

func (memberRow) TableName() string { return "board_members" }

type entityRow struct {
	EntityID string `gorm:"primaryKey;size:64"`
	BoardID  string `gorm:"size:64;index;not null"`
}

func (entityRow) TableName() string { return "board_entities" }

// Open connects to dsn and migrates the schema. DSNs starting with
// "postgres" select the PostgreSQL driver; anything else is a SQLite path.
// Driver logs go to logger at warn level.
func Open(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&boardRow{}, &memberRow{}, &entityRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// Repository is a gorm-backed ports.BoardRepository.
type Repository struct {
	db *gorm.DB
}

// New creates a repository on an opened and migrated database.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Load(ctx context.Context, boardID string) (*board.Board, error) {
	var row boardRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", boardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("board %q: %w", boardID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("loading board", err)
	}
	return repository.Unmarshal(row.Document)
}

func (r *Repository) Save(ctx context.Context, b *board.Board, expectedVersion int64) error {
	raw, err := repository.Marshal(b)
	if err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		if expectedVersion == 0 {
			var existing int64
			if err := tx.Model(&boardRow{}).Where("id = ?", b.ID).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return fmt.Errorf("board %q already exists: %w", b.ID, domain.ErrVersionConflict)
			}

			row := boardRow{
				ID:        b.ID,
				OwnerID:   b.OwnerID,
				Version:   b.Version,
				Document:  datatypes.JSON(raw),
				CreatedAt: b.CreatedAt,
				UpdatedAt: b.UpdatedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("board %q already exists: %w", b.ID, domain.ErrVersionConflict)
				}
				return err
			}
		} else {
			res := tx.Model(&boardRow{}).
				Where("id = ? AND version = ?", b.ID, expectedVersion).
				Updates(map[string]any{
					"version":    b.Version,
					"document":   datatypes.JSON(raw),
					"updated_at": b.UpdatedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return mismatch(tx, b.ID, expectedVersion)
			}
		}

		return reindex(tx, b)
	})
}

func (r *Repository) Delete(ctx context.Context, boardID string, expectedVersion int64) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND version = ?", boardID, expectedVersion).Delete(&boardRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return mismatch(tx, boardID, expectedVersion)
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&memberRow{}).Error; err != nil {
			return err
		}
		return tx.Where("board_id = ?", boardID).Delete(&entityRow{}).Error
	})
}

func (r *Repository) ListForMember(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&memberRow{}).
		Where("user_id = ?", userID).
		Order("board_id").
		Pluck("board_id", &ids).Error
	if err != nil {
		return nil, unavailable("listing boards", err)
	}
	return ids, nil
}

func (r *Repository) Locate(ctx context.Context, entityID string) (string, error) {
	var row entityRow
	err := r.db.WithContext(ctx).First(&row, "entity_id = ?", entityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("entity %q: %w", entityID, domain.ErrNotFound)
	}
	if err != nil {
		return "", unavailable("locating entity", err)
	}
	return row.BoardID, nil
}

// Name implements ports.HealthChecker.
func (r *Repository) Name() string {
	return "board-store"
}

// HealthCheck implements ports.HealthChecker by pinging the database.
func (r *Repository) HealthCheck(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// transaction runs fn in a transaction and classifies its error: domain
// errors pass through, anything else is reported as unavailable.
func (r *Repository) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrVersionConflict):
		return err
	default:
		return unavailable("writing board", err)
	}
}

// reindex replaces the board's membership and entity rows.
func reindex(tx *gorm.DB, b *board.Board) error {
	if err := tx.Where("board_id = ?", b.ID).Delete(&memberRow{}).Error; err != nil {
		return err
	}
	if err := tx.Where("board_id = ?", b.ID).Delete(&entityRow{}).Error; err != nil {
		return err
	}

	members := make([]memberRow, 0, len(b.MemberIDs)+1)
	members = append(members, memberRow{BoardID: b.ID, UserID: b.OwnerID})
	for _, id := range b.MemberIDs {
		members = append(members, memberRow{BoardID: b.ID, UserID: id})
	}
	if err := tx.Create(&members).Error; err != nil {
		return err
	}

	ids := b.EntityIDs()
	if len(ids) == 0 {
		return nil
	}
	entities := make([]entityRow, len(ids))
	for i, id := range ids {
		entities[i] = entityRow{EntityID: id, BoardID: b.ID}
	}
	return tx.Create(&entities).Error
}

// mismatch explains a conditional write that touched no rows.
func mismatch(tx *gorm.DB, boardID string, expected int64) error {
	var row boardRow
	err := tx.Select("id", "version").First(&row, "id = ?", boardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("board %q: %w", boardID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("board %q at version %d, expected %d: %w",
		boardID, row.Version, expected, domain.ErrVersionConflict)
}

// unavailable marks err as a backend failure. The caller's own cancellation
// or deadline passes through unmarked so it never counts against the store.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
