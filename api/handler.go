// Package api is the HTTP adapter for the employee registry: it maps
// verbs and paths onto repository calls, applies pagination to the list
// projection, and translates error kinds into status codes.
package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/adeilh/employee-registry/employee"
	"github.com/adeilh/employee-registry/httpx"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// HealthCheck reports reachability of a backing resource.
type HealthCheck func(ctx context.Context) error

// Handler exposes the employee repository over HTTP.
type Handler struct {
	repo   *employee.Repository
	checks map[string]HealthCheck
}

func NewHandler(repo *employee.Repository) *Handler {
	return &Handler{repo: repo, checks: make(map[string]HealthCheck)}
}

// AddHealthCheck registers a named dependency probe served by /healthz.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	if name != "" && check != nil {
		h.checks[name] = check
	}
}

// Register wires all routes onto the given Echo instance.
func (h *Handler) Register(e *httpx.Echo) {
	httpx.NewRouter(e, "/employees").
		GET("", h.list).
		GET("/:id", h.get).
		POST("", h.create).
		PUT("/:id", h.update).
		DELETE("/:id", h.delete)
	e.GET("/healthz", h.healthz)
}

func (h *Handler) list(c httpx.Context) error {
	summaries, err := h.repo.ListAll(c.Request().Context())
	if err != nil {
		return httpx.HTTPError(httpx.StatusInternalError, "could not list employees")
	}
	page := queryInt(c, "page", defaultPage)
	limit := queryInt(c, "limit", defaultLimit)
	return c.JSON(httpx.StatusOK, paginate(summaries, page, limit))
}

func (h *Handler) get(c httpx.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	emp, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return httpx.HTTPError(httpx.StatusNotFound, "employee not found")
		}
		return httpx.HTTPError(httpx.StatusInternalError, "could not fetch employee")
	}
	return c.JSON(httpx.StatusOK, emp)
}

func (h *Handler) create(c httpx.Context) error {
	var emp employee.Employee
	if err := c.Bind(&emp); err != nil {
		return httpx.HTTPError(httpx.StatusBadRequest, "invalid request body")
	}
	id, err := h.repo.Create(c.Request().Context(), emp)
	if err != nil {
		if errors.Is(err, employee.ErrInvalid) {
			return httpx.HTTPError(httpx.StatusBadRequest, err.Error())
		}
		return httpx.HTTPError(httpx.StatusInternalError, "could not create employee")
	}
	return c.JSON(httpx.StatusCreated, map[string]any{"id": id, "message": "employee created"})
}

func (h *Handler) update(c httpx.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var emp employee.Employee
	if err := c.Bind(&emp); err != nil {
		return httpx.HTTPError(httpx.StatusBadRequest, "invalid request body")
	}
	if err := h.repo.Update(c.Request().Context(), id, emp); err != nil {
		switch {
		case errors.Is(err, employee.ErrNotFound):
			return httpx.HTTPError(httpx.StatusNotFound, "employee not found")
		case errors.Is(err, employee.ErrInvalid):
			return httpx.HTTPError(httpx.StatusBadRequest, err.Error())
		}
		return httpx.HTTPError(httpx.StatusInternalError, "could not update employee")
	}
	return c.JSON(httpx.StatusOK, map[string]string{"message": "employee updated"})
}

func (h *Handler) delete(c httpx.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return httpx.HTTPError(httpx.StatusNotFound, "employee not found")
		}
		return httpx.HTTPError(httpx.StatusInternalError, "could not delete employee")
	}
	return c.JSON(httpx.StatusOK, map[string]string{"message": "employee deleted"})
}

func (h *Handler) healthz(c httpx.Context) error {
	ctx := c.Request().Context()
	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return c.JSON(httpx.StatusServiceUnavailable, status)
	}
	return c.JSON(httpx.StatusOK, status)
}

func pathID(c httpx.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.HTTPError(httpx.StatusBadRequest, "invalid employee id")
	}
	return id, nil
}

func queryInt(c httpx.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// paginate slices the projection for page p (1-based) and the given
// limit. Out-of-range pages yield an empty slice, never an error.
func paginate(summaries []employee.Summary, page, limit int) []employee.Summary {
	start := (page - 1) * limit
	if start >= len(summaries) {
		return []employee.Summary{}
	}
	end := start + limit
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[start:end]
}
