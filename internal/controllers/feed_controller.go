package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/leadflowhq/leadflow/internal/engine"
	"github.com/leadflowhq/leadflow/internal/enrollment"
	"github.com/leadflowhq/leadflow/internal/util"
	"github.com/leadflowhq/leadflow/internal/webhook"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
)

// FeedFetcher is the slice of the webhook client the feed endpoints use.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]webhook.Event, error)
}

// FeedController serves the dashboard's enrollment charts straight off
// the webhook feed. The endpoints are public, the dashboard page polls
// them without a session.
type FeedController struct {
	Feed      FeedFetcher
	SalesRepo engine.SalesDataRepo
	GoalRepo  engine.GoalRepo
	Clock     core.Clock

	mu            sync.Mutex
	lastSaleDemos map[string]int
}

// DashboardResponse is the merged payload behind the main dashboard view.
type DashboardResponse struct {
	NewEnrollments  []enrollment.OfficerRevenue `json:"new_enrollments"`
	MonthlyRevenue  []enrollment.OfficerRevenue `json:"monthly_revenue"`
	UpcomingDemos   int                         `json:"upcoming_demos"`
	MonthlyGoal     int                         `json:"monthly_goal"`
	NewSalesOfficer *string                     `json:"new_sales_officer"`
}

// DefaultMonthlyGoal applies until an admin has set one.
const DefaultMonthlyGoal = 120

func NewFeedController(feed FeedFetcher, salesRepo engine.SalesDataRepo, goalRepo engine.GoalRepo, clock core.Clock) *FeedController {
	return &FeedController{
		Feed:          feed,
		SalesRepo:     salesRepo,
		GoalRepo:      goalRepo,
		Clock:         clock,
		lastSaleDemos: make(map[string]int),
	}
}

// fetchEvents loads the feed and writes the shared failure payload when
// it is unavailable. The bool reports whether the caller may proceed.
func (c *FeedController) fetchEvents(w http.ResponseWriter, r *http.Request) ([]webhook.Event, bool) {
	events, err := c.Feed.Fetch(r.Context())
	if err != nil {
		slog.Error("Failed to fetch webhook data", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch data")
		return nil, false
	}
	return events, true
}

func (c *FeedController) handleDashboardData(w http.ResponseWriter, r *http.Request) {
	events, ok := c.fetchEvents(w, r)
	if !ok {
		return
	}
	now := c.Clock.Now()
	salesData := enrollment.AdminMonthlyRevenue(events, now)

	for _, row := range salesData {
		err := c.SalesRepo.Upsert(&domain.SalesData{Name: row.Name, Value: row.Value, Demos: row.Demos})
		if err != nil {
			slog.Error("Failed to save sales data", "name", row.Name, "error", err)
			util.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
	}

	newEnrollments := make([]enrollment.OfficerRevenue, len(salesData))
	copy(newEnrollments, salesData)
	sort.SliceStable(newEnrollments, func(i, j int) bool { return newEnrollments[i].Demos > newEnrollments[j].Demos })
	if len(newEnrollments) > 3 {
		newEnrollments = newEnrollments[:3]
	}

	monthlyRevenue := make([]enrollment.OfficerRevenue, len(salesData))
	copy(monthlyRevenue, salesData)
	sort.SliceStable(monthlyRevenue, func(i, j int) bool { return monthlyRevenue[i].Value > monthlyRevenue[j].Value })

	upcomingDemos := 0
	for _, row := range salesData {
		upcomingDemos += row.Demos
	}

	goal, err := c.GoalRepo.GetCurrent()
	if err != nil {
		slog.Error("Failed to load monthly goal", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	currentGoal := DefaultMonthlyGoal
	if goal != nil {
		currentGoal = goal.Goal
	}

	util.WriteJSONResponse(w, http.StatusOK, DashboardResponse{
		NewEnrollments:  newEnrollments,
		MonthlyRevenue:  monthlyRevenue,
		UpcomingDemos:   upcomingDemos,
		MonthlyGoal:     currentGoal,
		NewSalesOfficer: c.detectNewSale(salesData),
	})
}

// detectNewSale reports the first officer whose demo count moved since
// the last poll. The counts live in memory, a restart reannounces the
// current sales once.
func (c *FeedController) detectNewSale(salesData []enrollment.OfficerRevenue) *string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range salesData {
		if row.Demos > 0 && row.Demos != c.lastSaleDemos[row.Name] {
			c.lastSaleDemos[row.Name] = row.Demos
			slog.Info("New sale detected", "officer", row.Name)
			name := row.Name
			return &name
		}
	}
	return nil
}

func (c *FeedController) handleLeadsourceData(w http.ResponseWriter, r *http.Request) {
	events, ok := c.fetchEvents(w, r)
	if !ok {
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, enrollment.LeadsourceData(events, c.Clock.Now()))
}

func (c *FeedController) handleAdminMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	events, ok := c.fetchEvents(w, r)
	if !ok {
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, enrollment.AdminMonthlyRevenue(events, c.Clock.Now()))
}

func (c *FeedController) handleDailyEnrollments(w http.ResponseWriter, r *http.Request) {
	events, ok := c.fetchEvents(w, r)
	if !ok {
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, enrollment.DailyEnrollments(events, c.Clock.Now()))
}

func (c *FeedController) handleEnrollmentsPerOpener(w http.ResponseWriter, r *http.Request) {
	events, ok := c.fetchEvents(w, r)
	if !ok {
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, enrollment.EnrollmentsPerOpener(events, c.Clock.Now()))
}

func (c *FeedController) handleInitialPayments(w http.ResponseWriter, r *http.Request) {
	events, ok := c.fetchEvents(w, r)
	if !ok {
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, enrollment.InitialPayments(events, c.Clock.Now()))
}

func (c *FeedController) handleMonthlyRevenueData(w http.ResponseWriter, r *http.Request) {
	events, ok := c.fetchEvents(w, r)
	if !ok {
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, enrollment.MonthlyRevenueEnrollments(events, c.Clock.Now()))
}
