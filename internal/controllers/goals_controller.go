package controllers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leadflowhq/leadflow/internal/engine"
	"github.com/leadflowhq/leadflow/internal/util"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
)

// GoalsController lets the admin account move the monthly enrollment
// target shown on the dashboard.
type GoalsController struct {
	AuthController
	GoalRepo engine.GoalRepo
}

func NewGoalsController(goalRepo engine.GoalRepo, userRepo engine.UserRepo) *GoalsController {
	return &GoalsController{GoalRepo: goalRepo, AuthController: AuthController{
		UserRepo: userRepo,
	}}
}

func (c *GoalsController) handleSetMonthlyGoal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if Username(r) != AdminUsername {
		util.WriteJSONResponse(w, http.StatusForbidden, models.SetGoalResponse{Success: false, Message: "Unauthorized"})
		return
	}

	req, err := util.DecodeJSONBody[models.SetGoalRequest](r)
	if err != nil {
		util.WriteJSONResponse(w, http.StatusBadRequest, models.SetGoalResponse{Success: false, Message: "Invalid goal value provided"})
		return
	}
	if req.Goal <= 0 {
		util.WriteJSONResponse(w, http.StatusBadRequest, models.SetGoalResponse{Success: false, Message: "Goal must be greater than 0"})
		return
	}

	if _, err := c.GoalRepo.Save(&domain.MonthlyGoal{Goal: req.Goal}); err != nil {
		slog.Error("Error updating monthly goal", "error", err)
		util.WriteJSONResponse(w, http.StatusInternalServerError, models.SetGoalResponse{Success: false, Message: "Error updating monthly goal"})
		return
	}

	util.WriteJSONResponse(w, http.StatusOK, models.SetGoalResponse{
		Success: true,
		Message: fmt.Sprintf("Monthly goal updated to %d enrollments", req.Goal),
	})
}
