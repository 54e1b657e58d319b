package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/MyMindSpace/chat-embedding-db/internal/embedding"
	"github.com/MyMindSpace/chat-embedding-db/internal/schema"
)

// ErrorResponse is the body of every failure response.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

// respondError maps the service's typed failures to status codes:
// ValidationError -> 400, NotFoundError -> 404, anything else -> 500.
func (s *Server) respondError(c echo.Context, err error) error {
	var validationErr *schema.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:      "validation failed",
			Violations: validationErr.Violations,
		})
	}

	var notFoundErr *embedding.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error()})
	}

	s.logger.Error("request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func (s *Server) handleCreate(c echo.Context) error {
	var req schema.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	record, err := s.service.Create(c.Request().Context(), &req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (s *Server) handleGet(c echo.Context) error {
	record, err := s.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) handleReplace(c echo.Context) error {
	var req schema.ReplaceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	record, err := s.service.Replace(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) handleDelete(c echo.Context) error {
	if err := s.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BatchRequest is the request body for POST /api/v1/embeddings/batch.
type BatchRequest struct {
	Items []*schema.CreateRequest `json:"items"`
}

func (s *Server) handleCreateBatch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	result, err := s.service.CreateBatch(c.Request().Context(), req.Items)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *Server) handleSearch(c echo.Context) error {
	var query schema.SimilarityQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	result, err := s.service.FindSimilar(c.Request().Context(), &query)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleQuery(c echo.Context) error {
	query, err := parseListQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	page, err := s.service.Query(c.Request().Context(), query)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.service.Stats(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	cleanup, err := s.service.DeleteSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, cleanup)
}

// parseListQuery shapes the list endpoint's query parameters. Contract
// validation happens in the service; this only rejects unparseable values.
func parseListQuery(c echo.Context) (*schema.ListQuery, error) {
	query := &schema.ListQuery{
		UserID:      c.QueryParam("user_id"),
		SessionID:   c.QueryParam("session_id"),
		MessageType: schema.MessageType(c.QueryParam("message_type")),
		SortBy:      schema.SortField(c.QueryParam("sort_by")),
		SortOrder:   schema.SortOrder(c.QueryParam("sort_order")),
	}

	var err error
	if query.Limit, err = intParam(c, "limit"); err != nil {
		return nil, err
	}
	if query.Offset, err = intParam(c, "offset"); err != nil {
		return nil, err
	}

	start, err := timeParam(c, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := timeParam(c, "end_date")
	if err != nil {
		return nil, err
	}
	if start != nil || end != nil {
		query.DateRange = &schema.DateRange{Start: start, End: end}
	}

	return query, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

func timeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return &value, nil
}
