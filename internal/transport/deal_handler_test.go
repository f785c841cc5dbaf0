package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daily-treasure/internal/domain"
	"daily-treasure/internal/gilt"
	"daily-treasure/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock deal service for handler tests
type mockDealService struct {
	records    map[string]*domain.DayRecord
	latest     time.Time
	resolveErr error
	top        []*domain.DayRecord
	recent     []*domain.DayRecord
}

func newMockDealService() *mockDealService {
	return &mockDealService{
		records: make(map[string]*domain.DayRecord),
		latest:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockDealService) Resolve(ctx context.Context, date time.Time) (*domain.DayRecord, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	record, ok := m.records[date.Format("2006-01-02")]
	if !ok {
		return nil, service.ErrNoDataForDay
	}
	return record, nil
}

func (m *mockDealService) LatestDate() time.Time {
	return m.latest
}

func (m *mockDealService) Neighbors(ctx context.Context, date time.Time) (*domain.DayRecord, *domain.DayRecord, error) {
	return nil, nil, nil
}

func (m *mockDealService) TopByPrice(ctx context.Context, limit int) ([]*domain.DayRecord, error) {
	if len(m.top) > limit {
		return m.top[:limit], nil
	}
	return m.top, nil
}

func (m *mockDealService) MostRecent(ctx context.Context, limit int) ([]*domain.DayRecord, error) {
	if len(m.recent) > limit {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func recordFor(name string, price string, date time.Time) *domain.DayRecord {
	return &domain.DayRecord{
		ID:          uuid.New(),
		Name:        name,
		Description: "desc of " + name,
		Price:       decimal.RequireFromString(price),
		Date:        date,
		ImageURL:    "https://cdn.example.com/420x560/" + name + ".jpg",
		DetailURL:   "https://example.com/" + name,
		CreatedAt:   date.Add(14 * time.Hour),
	}
}

func serveRequest(t *testing.T, deals service.DealService, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	NewDealHandler(deals, zap.NewNop()).RegisterRoutes(router)

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHome_RedirectsToLatestDay(t *testing.T) {
	deals := newMockDealService()
	deals.latest = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	rec := serveRequest(t, deals, http.MethodGet, "/")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/2024/3/15", rec.Header().Get("Location"))
}

func TestDay_RendersRecord(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	deals := newMockDealService()
	deals.records["2024-03-15"] = recordFor("Chronograph", "120.00", date)

	rec := serveRequest(t, deals, http.MethodGet, "/2024/3/15")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Chronograph")
	assert.Contains(t, body, "$120.00")
	assert.Contains(t, body, "March 15, 2024")
	assert.Contains(t, body, "https://cdn.example.com/420x560/Chronograph.jpg")
}

func TestDay_MalformedDateIsNotFound(t *testing.T) {
	deals := newMockDealService()
	deals.records["2024-03-01"] = recordFor("x", "1.00", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	for _, target := range []string{
		"/2024/02/30",
		"/2024/13/1",
		"/2024/0/10",
		"/2024/3/0",
		"/banana/3/15",
		"/2024/3/banana",
	} {
		rec := serveRequest(t, deals, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, "target %s", target)
	}
}

func TestDay_LeapDayIsWellFormed(t *testing.T) {
	date := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	deals := newMockDealService()
	deals.records["2024-02-29"] = recordFor("leap", "29.00", date)

	rec := serveRequest(t, deals, http.MethodGet, "/2024/2/29")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDay_ErrorMessages(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{"no data", service.ErrNoDataForDay, http.StatusNotFound, "No data collected for this day."},
		{"future", service.ErrFutureDate, http.StatusNotFound, "You can&#39;t look into the future, silly!"},
		{"no product", service.ErrNoProductAvailable, http.StatusServiceUnavailable, "Try again later."},
		{"upstream", gilt.ErrUpstream, http.StatusServiceUnavailable, "Try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deals := newMockDealService()
			deals.resolveErr = tt.err

			rec := serveRequest(t, deals, http.MethodGet, "/2024/3/15")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
}

func TestTop_RendersRecordsInGivenOrder(t *testing.T) {
	deals := newMockDealService()
	deals.top = []*domain.DayRecord{
		recordFor("first", "500.00", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		recordFor("second", "300.00", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
	}

	rec := serveRequest(t, deals, http.MethodGet, "/top")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "$500.00")
	assert.Contains(t, body, "$300.00")
	assert.Less(t, strings.Index(body, "first"), strings.Index(body, "second"))
}

func TestTop_EmptyStore(t *testing.T) {
	rec := serveRequest(t, newMockDealService(), http.MethodGet, "/top")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nothing collected yet.")
}

func TestAtom_RendersFeed(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	deals := newMockDealService()
	deals.recent = []*domain.DayRecord{recordFor("Chronograph", "120.00", date)}

	rec := serveRequest(t, deals, http.MethodGet, "/atom")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/atom+xml; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<feed")
	assert.Contains(t, body, "Chronograph")
	assert.Contains(t, body, "FOR SALE: Chronograph ($120.00)")
	assert.Contains(t, body, "/2024/3/15")
	// Entries carry the noon rollover as their update time.
	assert.Contains(t, body, "2024-03-15T12:00:00Z")
}

func TestParseDate(t *testing.T) {
	date, err := parseDate("2024", "3", "15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), date)

	_, err = parseDate("2024", "2", "30")
	assert.ErrorIs(t, err, errMalformedDate)

	_, err = parseDate("-5", "2", "10")
	assert.ErrorIs(t, err, errMalformedDate)
}
