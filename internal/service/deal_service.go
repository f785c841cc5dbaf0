package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daily-treasure/internal/domain"
	"daily-treasure/internal/gilt"
	"daily-treasure/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoDataForDay       = errors.New("no data collected for this day")
	ErrFutureDate         = errors.New("requested date is in the future")
	ErrNoProductAvailable = errors.New("no product available for this day")
)

// Clock supplies the current time. Injected so the noon rollover is testable.
type Clock func() time.Time

// DealService resolves a requested calendar date to its deal of the day,
// fetching and persisting the day's record when the date is the latest
// resolvable one and no record exists yet.
type DealService interface {
	Resolve(ctx context.Context, date time.Time) (*domain.DayRecord, error)
	LatestDate() time.Time
	Neighbors(ctx context.Context, date time.Time) (prev, next *domain.DayRecord, err error)
	TopByPrice(ctx context.Context, limit int) ([]*domain.DayRecord, error)
	MostRecent(ctx context.Context, limit int) ([]*domain.DayRecord, error)
}

type dealService struct {
	records repository.DayRecordRepository
	sales   gilt.Client
	clock   Clock
	logger  *zap.Logger
}

// NewDealService creates a new instance of DealService
func NewDealService(
	records repository.DayRecordRepository,
	sales gilt.Client,
	clock Clock,
	logger *zap.Logger,
) DealService {
	if clock == nil {
		clock = time.Now
	}
	return &dealService{
		records: records,
		sales:   sales,
		clock:   clock,
		logger:  logger,
	}
}

// DateOf truncates a timestamp to its calendar date, normalized to
// midnight UTC so dates compare by value regardless of origin zone.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// LatestDate returns the most recent date a deal can be resolved for.
// The upstream catalogue rolls over at local noon, so before noon the
// latest resolvable day is still yesterday.
func (s *dealService) LatestDate() time.Time {
	now := s.clock()
	date := DateOf(now)
	if now.Hour() < 12 {
		date = date.AddDate(0, 0, -1)
	}
	return date
}

// isLatest reports whether date is the day currently served as "today's
// deal" under the noon-rollover rule.
func (s *dealService) isLatest(date time.Time, now time.Time) bool {
	today := DateOf(now)
	if now.Hour() >= 12 {
		return date.Equal(today)
	}
	return date.Equal(today.AddDate(0, 0, -1))
}

// Resolve classifies the requested date as latest, past, or future and
// returns its day record:
//   - latest with a stored record, or past with a stored record: the record
//   - latest without one: fetch active sales, select the highest-priced
//     product, persist it, return the new record
//   - past without one: ErrNoDataForDay
//   - future: ErrFutureDate
func (s *dealService) Resolve(ctx context.Context, date time.Time) (*domain.DayRecord, error) {
	now := s.clock()
	date = DateOf(date)

	record, err := s.records.FindByDate(ctx, date)
	if err != nil && !errors.Is(err, repository.ErrDayRecordNotFound) {
		return nil, fmt.Errorf("failed to look up day record: %w", err)
	}

	switch {
	case s.isLatest(date, now):
		if record != nil {
			return record, nil
		}
		return s.fetchAndPersist(ctx, date)

	case date.Before(DateOf(now)):
		if record != nil {
			return record, nil
		}
		return nil, ErrNoDataForDay

	default:
		return nil, ErrFutureDate
	}
}

// Neighbors returns the stored records nearest strictly before and
// strictly after date, for page navigation. Either side may be nil.
func (s *dealService) Neighbors(ctx context.Context, date time.Time) (*domain.DayRecord, *domain.DayRecord, error) {
	date = DateOf(date)

	prev, err := s.records.NearestBefore(ctx, date)
	if err != nil && !errors.Is(err, repository.ErrDayRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to find preceding day record: %w", err)
	}

	next, err := s.records.NearestAfter(ctx, date)
	if err != nil && !errors.Is(err, repository.ErrDayRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to find following day record: %w", err)
	}

	return prev, next, nil
}

// TopByPrice returns the highest-priced records ever collected
func (s *dealService) TopByPrice(ctx context.Context, limit int) ([]*domain.DayRecord, error) {
	records, err := s.records.TopByPrice(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top day records: %w", err)
	}
	return records, nil
}

// MostRecent returns the newest records by date
func (s *dealService) MostRecent(ctx context.Context, limit int) ([]*domain.DayRecord, error) {
	records, err := s.records.MostRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent day records: %w", err)
	}
	return records, nil
}

// fetchAndPersist pulls the active sales, selects the day's winner, and
// stores it. Two requests can race here; the unique date constraint picks
// the winner and the loser re-reads the stored row.
func (s *dealService) fetchAndPersist(ctx context.Context, date time.Time) (*domain.DayRecord, error) {
	sales, err := s.sales.FetchActiveSales(ctx)
	if err != nil {
		return nil, err
	}

	product := selectBestProduct(sales, date)
	if product == nil {
		s.logger.Info("No product selectable for date",
			zap.String("date", date.Format("2006-01-02")),
			zap.Int("sales", len(sales)),
		)
		return nil, ErrNoProductAvailable
	}

	record := &domain.DayRecord{
		ID:          uuid.New(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.MaxPrice(),
		Date:        date,
		ImageURL:    displayImageURL(product),
		DetailURL:   product.URL,
		CreatedAt:   s.clock(),
	}

	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateDate) {
			// A concurrent request persisted this date first; serve its row.
			s.logger.Info("Concurrent writer won the day record race",
				zap.String("date", date.Format("2006-01-02")),
			)
			return s.records.FindByDate(ctx, date)
		}
		return nil, fmt.Errorf("failed to persist day record: %w", err)
	}

	s.logger.Info("Persisted new day record",
		zap.String("date", date.Format("2006-01-02")),
		zap.String("name", record.Name),
		zap.String("price", record.Price.StringFixed(2)),
	)

	return record, nil
}

// selectBestProduct picks the highest-priced product across the sales that
// start on day. Products are considered in encounter order and only a
// strictly greater max SKU price displaces the current pick, so ties keep
// the first product seen. Returns nil when no sale starts on day or the
// matching sales carry no products.
func selectBestProduct(sales []domain.Sale, day time.Time) *domain.Product {
	day = DateOf(day)

	var pick *domain.Product
	pickPrice := decimal.Zero

	for i := range sales {
		if !DateOf(sales[i].Begins).Equal(day) {
			continue
		}
		for j := range sales[i].Products {
			product := &sales[i].Products[j]
			price := product.MaxPrice()
			if pick == nil || price.GreaterThan(pickPrice) {
				pick = product
				pickPrice = price
			}
		}
	}

	return pick
}

// displayImageURL swaps the thumbnail dimensions in the product's first
// image reference for the large variant used on the day page.
func displayImageURL(product *domain.Product) string {
	if len(product.ImageURLs) == 0 {
		return ""
	}
	return strings.Replace(product.ImageURLs[0], "91x121", "420x560", 1)
}
