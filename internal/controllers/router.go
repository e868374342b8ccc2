package controllers

import "net/http"

// RegisterRoutes wires the HTTP routes for this controller.
func (c *RunsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/runs", c.RequireAuth(c.handleStartRun))
	mux.HandleFunc("POST /api/runs/search", c.RequireAuth(c.handleSearchRuns))
	mux.HandleFunc("GET /api/runs/{id}", c.RequireAuth(c.handleGetRunById))
	mux.HandleFunc("GET /api/runs/{id}/tasks", c.RequireAuth(c.handleGetTasksForRun))
	mux.HandleFunc("GET /api/workflows", c.RequireAuth(c.handleListWorkflows))
}
func (c *ExecutorsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/executors", c.RequireAuth(c.handleGetExecutors))
}
func (c *GoalsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/set-monthly-goal", c.RequireAuth(c.handleSetMonthlyGoal))
}

// The chart endpoints are public, the dashboard page polls them before
// anyone logs in.
func (c *FeedController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard-data", c.handleDashboardData)
	mux.HandleFunc("GET /api/leadsource-data", c.handleLeadsourceData)
	mux.HandleFunc("GET /api/admin-monthly-revenue", c.handleAdminMonthlyRevenue)
	mux.HandleFunc("GET /api/daily-enrollments", c.handleDailyEnrollments)
	mux.HandleFunc("GET /api/enrollments-per-opener", c.handleEnrollmentsPerOpener)
	mux.HandleFunc("GET /api/initial-payments", c.handleInitialPayments)
	mux.HandleFunc("GET /api/monthly-revenue-data", c.handleMonthlyRevenueData)
}
