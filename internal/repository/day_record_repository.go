package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"daily-treasure/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDayRecordNotFound = errors.New("day record not found")
	ErrDuplicateDate     = errors.New("day record for this date already exists")
)

// uniqueViolation is the Postgres error code for unique constraint violations
const uniqueViolation = "23505"

// DayRecordRepository defines the interface for day record data access
type DayRecordRepository interface {
	Create(ctx context.Context, record *domain.DayRecord) error
	FindByDate(ctx context.Context, date time.Time) (*domain.DayRecord, error)
	NearestBefore(ctx context.Context, date time.Time) (*domain.DayRecord, error)
	NearestAfter(ctx context.Context, date time.Time) (*domain.DayRecord, error)
	TopByPrice(ctx context.Context, limit int) ([]*domain.DayRecord, error)
	MostRecent(ctx context.Context, limit int) ([]*domain.DayRecord, error)
}

type dayRecordRepository struct {
	db *sql.DB
}

// NewDayRecordRepository creates a new instance of DayRecordRepository
func NewDayRecordRepository(db *sql.DB) DayRecordRepository {
	return &dayRecordRepository{db: db}
}

const dayRecordColumns = "id, name, description, price, date, image_url, detail_url, created_at"

// dateLayout pins date parameters to their calendar value, independent of
// the session or server time zone
const dateLayout = "2006-01-02"

// Create inserts a new day record. The unique constraint on date is the
// arbiter when two requests race to persist the same day; the loser gets
// ErrDuplicateDate and is expected to re-read.
func (r *dayRecordRepository) Create(ctx context.Context, record *domain.DayRecord) error {
	query := `
		INSERT INTO day_records (id, name, description, price, date, image_url, detail_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.Name,
		record.Description,
		record.Price,
		record.Date.Format(dateLayout),
		record.ImageURL,
		record.DetailURL,
		record.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateDate
		}
		return fmt.Errorf("failed to create day record: %w", err)
	}

	return nil
}

// FindByDate retrieves the record for an exact calendar date (YYYY-MM-DD)
func (r *dayRecordRepository) FindByDate(ctx context.Context, date time.Time) (*domain.DayRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM day_records
		WHERE date = $1
	`, dayRecordColumns)

	return r.scanOne(r.db.QueryRowContext(ctx, query, date.Format(dateLayout)))
}

// NearestBefore retrieves the record closest to but strictly before date
func (r *dayRecordRepository) NearestBefore(ctx context.Context, date time.Time) (*domain.DayRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM day_records
		WHERE date < $1
		ORDER BY date DESC
		LIMIT 1
	`, dayRecordColumns)

	return r.scanOne(r.db.QueryRowContext(ctx, query, date.Format(dateLayout)))
}

// NearestAfter retrieves the record closest to but strictly after date
func (r *dayRecordRepository) NearestAfter(ctx context.Context, date time.Time) (*domain.DayRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM day_records
		WHERE date > $1
		ORDER BY date ASC
		LIMIT 1
	`, dayRecordColumns)

	return r.scanOne(r.db.QueryRowContext(ctx, query, date.Format(dateLayout)))
}

// TopByPrice retrieves up to limit records ordered by price descending,
// with date descending as the stable tie order
func (r *dayRecordRepository) TopByPrice(ctx context.Context, limit int) ([]*domain.DayRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM day_records
		ORDER BY price DESC, date DESC
		LIMIT $1
	`, dayRecordColumns)

	return r.scanMany(ctx, query, limit)
}

// MostRecent retrieves up to limit records ordered by date descending
func (r *dayRecordRepository) MostRecent(ctx context.Context, limit int) ([]*domain.DayRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM day_records
		ORDER BY date DESC
		LIMIT $1
	`, dayRecordColumns)

	return r.scanMany(ctx, query, limit)
}

func (r *dayRecordRepository) scanOne(row *sql.Row) (*domain.DayRecord, error) {
	record := &domain.DayRecord{}
	err := row.Scan(
		&record.ID,
		&record.Name,
		&record.Description,
		&record.Price,
		&record.Date,
		&record.ImageURL,
		&record.DetailURL,
		&record.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDayRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan day record: %w", err)
	}

	return record, nil
}

func (r *dayRecordRepository) scanMany(ctx context.Context, query string, limit int) ([]*domain.DayRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query day records: %w", err)
	}
	defer rows.Close()

	records := []*domain.DayRecord{}
	for rows.Next() {
		record := &domain.DayRecord{}
		err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.Description,
			&record.Price,
			&record.Date,
			&record.ImageURL,
			&record.DetailURL,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day records: %w", err)
	}

	return records, nil
}
