package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/saga"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

// goals returns the caller's goal store.
func (s *Server) goals(c echo.Context) (*goalstore.Store, error) {
	st, err := s.deps.Sessions.Get(c.Request().Context(), userID(c))
	if err != nil {
		return nil, httpError(err)
	}
	return st, nil
}

type GoalRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	SmartGoal   models.SmartGoal `json:"smart_goal"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Color       string           `json:"color"`
}

// GoalPatch updates only the fields that are present.
type GoalPatch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	SmartGoal   *models.SmartGoal `json:"smart_goal"`
	StartDate   *string           `json:"start_date"`
	EndDate     *string           `json:"end_date"`
	Color       *string           `json:"color"`
}

func (p GoalPatch) apply(g *models.Goal) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.SmartGoal != nil {
		g.SmartGoal = *p.SmartGoal
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		g.EndDate = *p.EndDate
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
}

type PartialFailureResponse struct {
	Error     string   `json:"error"`
	Completed []string `json:"completed"`
	Failed    []string `json:"failed"`
}

func (s *Server) handleListGoals(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st.Goals())
}

func (s *Server) handleCreateGoal(c echo.Context) error {
	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	g, err := st.CreateGoal(c.Request().Context(), models.Goal{
		Title:       req.Title,
		Description: req.Description,
		SmartGoal:   req.SmartGoal,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Color:       req.Color,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *Server) handleGetGoal(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	g, ok := st.Goal(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "goal not found")
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleUpdateGoal(c echo.Context) error {
	var patch GoalPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	g, ok := st.Goal(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "goal not found")
	}
	patch.apply(&g)

	updated, err := st.UpdateGoal(c.Request().Context(), g)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// handleDeleteGoal answers 207 when some remote deletes failed; the goal is
// gone from the caller's view either way.
func (s *Server) handleDeleteGoal(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	err = st.DeleteGoal(c.Request().Context(), c.Param("id"))
	var pf *saga.PartialFailure
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.As(err, &pf):
		return c.JSON(http.StatusMultiStatus, PartialFailureResponse{
			Error:     pf.Error(),
			Completed: pf.Completed,
			Failed:    pf.Failed,
		})
	default:
		return httpError(err)
	}
}

type MilestoneRequest struct {
	Title      string `json:"title"`
	TargetDate string `json:"target_date"`
	Completed  bool   `json:"completed"`
}

type MilestonePatch struct {
	Completed *bool `json:"completed"`
}

func (s *Server) handleAddMilestone(c echo.Context) error {
	var req MilestoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	g, err := st.AddMilestone(c.Request().Context(), models.Milestone{
		GoalID:     c.Param("id"),
		Title:      req.Title,
		TargetDate: req.TargetDate,
		Completed:  req.Completed,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *Server) handleUpdateMilestone(c echo.Context) error {
	var patch MilestonePatch
	if err := c.Bind(&patch); err != nil || patch.Completed == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "completed is required")
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	g, err := st.UpdateGoalMilestone(c.Request().Context(), c.Param("id"), *patch.Completed)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleDeleteMilestone(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	if err := st.DeleteMilestone(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type ConfirmPlanRequest struct {
	Request planner.Request `json:"request"`
	Plan    planner.Plan    `json:"plan"`
}

// handleConfirmPlan persists a plan returned by generate-goal-plan.
func (s *Server) handleConfirmPlan(c echo.Context) error {
	var req ConfirmPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	p := req.Plan
	if err := validation.ValidatePlan(p.SmartGoal.Specific, p.Milestones, p.Tasks).Err(); err != nil {
		return httpError(err)
	}
	g, ms, ts := planner.ToModels(req.Plan, req.Request, st.UserID(), s.deps.Now())
	created, err := st.CreateGoalWithPlan(c.Request().Context(), g, ms, ts)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}
