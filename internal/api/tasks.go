package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// handleListTasks returns every task, or with ?date= the task instances on
// that day with their completion state.
func (s *Server) handleListTasks(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}

	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusOK, st.Tasks())
	}
	day, err := utils.ParseDate(date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	days := calendar.Build(st.Goals(), st.Tasks(), st.TodayCompletions(), day, day, s.deps.Now())
	entries := []calendar.Entry{}
	if len(days) > 0 {
		entries = days[0].Tasks
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var t models.Task
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task: "+bindMessage(err))
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	t.ID = ""
	created, err := st.AddTask(c.Request().Context(), t)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleToggleTask(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	t, err := st.UpdateGoalTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	if err := st.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
