package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/julianstephens/goalkeeper/internal/feed"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/storage"
	"github.com/julianstephens/goalkeeper/internal/validation"
)

const userIDKey = "user_id"

type ErrorResponse struct {
	Error string `json:"error"`
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		logger.Error("Unhandled request error", "uri", c.Request().RequestURI, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, ErrorResponse{Error: msg})
	}
	if err != nil {
		logger.Warn("Failed to write error response", "error", err)
	}
}

// httpError maps domain errors onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, feed.ErrEmptyContent),
		errors.Is(err, planner.ErrEmptyInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		logger.Error("Request failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// bindMessage extracts the decoder's message from a Bind error.
func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		return he.Internal.Error()
	}
	return err.Error()
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		logger.Info("http request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"duration", time.Since(start),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return err
	}
}

func recordMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if err != nil && errors.As(err, &he) {
			status = he.Code
		}
		m := metrics.Get()
		m.HTTPRequests.WithLabelValues(c.Request().Method, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(c.Request().Method).Observe(time.Since(start).Seconds())
		return err
	}
}

// requireUser reads the caller's id from header, set by the identity proxy in
// front of the server.
func requireUser(header string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(header))
			if id == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+header+" header")
			}
			c.Set(userIDKey, id)
			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	reset    time.Time
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{limit: limit, burst: burst, limiters: map[string]*rate.Limiter{}, reset: time.Now()}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Forget idle clients now and then.
	if time.Since(l.reset) > time.Hour {
		l.limiters = map[string]*rate.Limiter{}
		l.reset = time.Now()
	}
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

func (l *ipLimiter) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if l.limit <= 0 {
			return next(c)
		}
		if !l.get(c.RealIP()).Allow() {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}
