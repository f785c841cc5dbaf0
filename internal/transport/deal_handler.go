package transport

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"daily-treasure/internal/domain"
	"daily-treasure/internal/gilt"
	"daily-treasure/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/feeds"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// User-facing messages, unchanged wording from the original site.
const (
	msgTryAgainLater = "Error fetching product for today. Try again later."
	msgNoDataForDay  = "No data collected for this day."
	msgFutureDate    = "You can't look into the future, silly!"
	msgMalformedDate = "That's not a real day."

	feedEntryCount = 10
	topRecordCount = 5

	siteTitle       = "Daily Treasure"
	feedDescription = "The priciest flash-sale find of each day"
)

var errMalformedDate = errors.New("malformed date components")

// DealHandler serves the HTML pages and the Atom feed
type DealHandler struct {
	deals  service.DealService
	logger *zap.Logger
}

// NewDealHandler creates a new instance of DealHandler
func NewDealHandler(deals service.DealService, logger *zap.Logger) *DealHandler {
	return &DealHandler{deals: deals, logger: logger}
}

// RegisterRoutes registers the deal routes on the router
func (h *DealHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.Home)
	router.Get("/top", h.Top)
	router.Get("/atom", h.Atom)
	router.Get("/{year}/{month}/{day}", h.Day)
}

// recordView is the template-facing projection of a DayRecord
type recordView struct {
	Name        string
	Description string
	Price       string
	ImageURL    string
	DetailURL   string
	Path        string
	DateDisplay string
}

func viewOf(record *domain.DayRecord) *recordView {
	if record == nil {
		return nil
	}
	return &recordView{
		Name:        record.Name,
		Description: record.Description,
		Price:       record.Price.StringFixed(2),
		ImageURL:    record.ImageURL,
		DetailURL:   record.DetailURL,
		Path:        datePath(record.Date),
		DateDisplay: record.Date.Format("January 2, 2006"),
	}
}

func datePath(date time.Time) string {
	return fmt.Sprintf("/%d/%d/%d", date.Year(), int(date.Month()), date.Day())
}

// Home redirects to the page of the latest resolvable day
func (h *DealHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, datePath(h.deals.LatestDate()), http.StatusFound)
}

// Day resolves and renders one calendar date
func (h *DealHandler) Day(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(
		chi.URLParam(r, "year"),
		chi.URLParam(r, "month"),
		chi.URLParam(r, "day"),
	)
	if err != nil {
		h.renderError(w, http.StatusNotFound, msgMalformedDate)
		return
	}

	record, err := h.deals.Resolve(r.Context(), date)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoDataForDay):
			h.renderError(w, http.StatusNotFound, msgNoDataForDay)
		case errors.Is(err, service.ErrFutureDate):
			h.renderError(w, http.StatusNotFound, msgFutureDate)
		case errors.Is(err, service.ErrNoProductAvailable), errors.Is(err, gilt.ErrUpstream):
			h.renderError(w, http.StatusServiceUnavailable, msgTryAgainLater)
		default:
			h.logger.Error("Failed to resolve day", zap.Error(err), zap.String("path", r.URL.Path))
			h.renderError(w, http.StatusInternalServerError, msgTryAgainLater)
		}
		return
	}

	prev, next, err := h.deals.Neighbors(r.Context(), date)
	if err != nil {
		// Navigation is best-effort; the day itself still renders.
		h.logger.Warn("Failed to load neighboring records", zap.Error(err))
	}

	h.render(w, http.StatusOK, "day.html", struct {
		Title  string
		Record *recordView
		Prev   *recordView
		Next   *recordView
	}{
		Title:  siteTitle,
		Record: viewOf(record),
		Prev:   viewOf(prev),
		Next:   viewOf(next),
	})
}

// Top renders the highest-priced records ever collected
func (h *DealHandler) Top(w http.ResponseWriter, r *http.Request) {
	records, err := h.deals.TopByPrice(r.Context(), topRecordCount)
	if err != nil {
		h.logger.Error("Failed to load top records", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, msgTryAgainLater)
		return
	}

	views := make([]*recordView, 0, len(records))
	for _, record := range records {
		views = append(views, viewOf(record))
	}

	h.render(w, http.StatusOK, "top.html", struct {
		Title   string
		Records []*recordView
	}{
		Title:   siteTitle + ": Top " + strconv.Itoa(topRecordCount),
		Records: views,
	})
}

// Atom renders the most recent records as a syndication feed
func (h *DealHandler) Atom(w http.ResponseWriter, r *http.Request) {
	records, err := h.deals.MostRecent(r.Context(), feedEntryCount)
	if err != nil {
		h.logger.Error("Failed to load recent records", zap.Error(err))
		http.Error(w, msgTryAgainLater, http.StatusInternalServerError)
		return
	}

	base := baseURL(r)

	feed := &feeds.Feed{
		Title:       siteTitle,
		Id:          base + "/",
		Link:        &feeds.Link{Href: base + "/"},
		Description: feedDescription,
		Updated:     time.Now().UTC(),
	}

	for _, record := range records {
		entryURL := base + datePath(record.Date)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:    entryURL,
			Title: record.Name,
			Link:  &feeds.Link{Href: entryURL},
			Description: fmt.Sprintf("FOR SALE: %s ($%s)",
				record.Name, record.Price.StringFixed(2)),
			// Entries update when the catalogue rolls over, at noon.
			Updated: record.Date.Add(12 * time.Hour).UTC(),
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		h.logger.Error("Failed to build atom feed", zap.Error(err))
		http.Error(w, msgTryAgainLater, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(atom))
}

func (h *DealHandler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
	}
}

func (h *DealHandler) renderError(w http.ResponseWriter, status int, message string) {
	h.render(w, status, "error.html", struct {
		Title   string
		Message string
	}{
		Title:   siteTitle,
		Message: message,
	})
}

// parseDate turns the year/month/day path components into a calendar date.
// Components that do not round-trip through time.Date (2024/02/30, month 13)
// are malformed rather than normalized away.
func parseDate(yearStr, monthStr, dayStr string) (time.Time, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, errMalformedDate
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return time.Time{}, errMalformedDate
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, errMalformedDate
	}

	if year < 1 || year > 9999 {
		return time.Time{}, errMalformedDate
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, errMalformedDate
	}

	return date, nil
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
