package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayRecord is the persisted deal of the day: the highest-priced product
// found among the sales that started on Date. At most one exists per
// calendar date, and a record is never updated once written.
type DayRecord struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Date        time.Time       `json:"date" db:"date"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	DetailURL   string          `json:"detail_url" db:"detail_url"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
