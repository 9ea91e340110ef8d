package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/julianstephens/goalkeeper/internal/calendar"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

const defaultCalendarDays = 30

// dateRange reads ?from=&to=, defaulting to the days starting today.
func dateRange(c echo.Context, today time.Time, days int) (time.Time, time.Time, error) {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from == "" && to == "" {
		start := utils.Day(today)
		return start, start.AddDate(0, 0, days-1), nil
	}
	start, end, ok := utils.ParseRange(from, to)
	if !ok {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "from and to must be YYYY-MM-DD with from <= to")
	}
	return start, end, nil
}

func (s *Server) handleCalendar(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	now := s.deps.Now()
	from, to, err := dateRange(c, now, defaultCalendarDays)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, calendar.Build(st.Goals(), st.Tasks(), st.TodayCompletions(), from, to, now))
}

// handleAnalytics reports completion over ?from=&to= or ?range=7d|30d|90d
// (default 30d).
func (s *Server) handleAnalytics(c echo.Context) error {
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	now := s.deps.Now()

	var from, to string
	if c.QueryParam("from") != "" || c.QueryParam("to") != "" {
		start, end, err := dateRange(c, now, 0)
		if err != nil {
			return err
		}
		from, to = utils.FormatDate(start), utils.FormatDate(end)
	} else {
		preset := c.QueryParam("range")
		if preset == "" {
			preset = "30d"
		}
		from, to, err = calendar.PresetRange(preset, now)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	completions, err := s.deps.Repo.ListCompletionsForRange(c.Request().Context(), st.UserID(), from, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, calendar.Analyze(st.Goals(), st.Tasks(), completions, from, to))
}

type ReflectionRequest struct {
	GoalID  *string `json:"goal_id"`
	Content string  `json:"content"`
	Mood    string  `json:"mood"`
}

type ResourceRequest struct {
	GoalID *string `json:"goal_id"`
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Kind   string  `json:"kind"`
}

func (s *Server) handleListReflections(c echo.Context) error {
	out, err := s.deps.Repo.ListReflections(c.Request().Context(), userID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddReflection(c echo.Context) error {
	var req ReflectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	r, err := st.AddReflection(c.Request().Context(), models.Reflection{GoalID: req.GoalID, Content: req.Content, Mood: req.Mood})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) handleListResources(c echo.Context) error {
	out, err := s.deps.Repo.ListResources(c.Request().Context(), userID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddResource(c echo.Context) error {
	var req ResourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and url are required")
	}
	st, err := s.goals(c)
	if err != nil {
		return err
	}
	r, err := st.AddResource(c.Request().Context(), models.Resource{GoalID: req.GoalID, Title: req.Title, URL: req.URL, Kind: req.Kind})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}
