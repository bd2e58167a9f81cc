package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/serverdb"
)

// TaskListResponse is the response from GET /v1/tasks.
type TaskListResponse struct {
	Tasks []serverdb.TaskRow `json:"tasks"`
}

// upsertRequest is the body of PUT /v1/tasks/:id. The Eisenhower pair is
// decoded separately so an absent field can be told apart from false.
type upsertRequest struct {
	serverdb.TaskRow
	Urgent    *bool `json:"urgent"`
	Important *bool `json:"important"`
}

// ownerFor returns the authenticated user, rejecting requests that name a
// different owner in the user_id query parameter.
func ownerFor(c *gin.Context) (string, bool) {
	uid := c.GetString(UserIDKey)
	if q := c.Query("user_id"); q != "" && q != uid {
		writeError(c, http.StatusForbidden, ErrCodeForbidden, "token does not belong to user "+q)
		return "", false
	}
	return uid, true
}

func (s *Server) handleListTasks(c *gin.Context) {
	uid, ok := ownerFor(c)
	if !ok {
		return
	}
	rows, err := s.tasks.ListByUser(c.Request.Context(), uid)
	if err != nil {
		logFor(c.Request.Context()).Error("list tasks", "err", err)
		writeError(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list tasks")
		return
	}
	if rows == nil {
		rows = []serverdb.TaskRow{}
	}
	s.metrics.RecordList()
	c.JSON(http.StatusOK, TaskListResponse{Tasks: rows})
}

func (s *Server) handleGetTask(c *gin.Context) {
	uid, ok := ownerFor(c)
	if !ok {
		return
	}
	row, err := s.tasks.Get(c.Request.Context(), uid, c.Param("id"))
	if errors.Is(err, serverdb.ErrTaskNotFound) {
		writeError(c, http.StatusNotFound, ErrCodeNotFound, "task not found")
		return
	}
	if err != nil {
		logFor(c.Request.Context()).Error("get task", "err", err)
		writeError(c, http.StatusInternalServerError, ErrCodeInternal, "failed to get task")
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) handleUpsertTask(c *gin.Context) {
	uid := c.GetString(UserIDKey)
	id := c.Param("id")

	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON: "+err.Error())
		return
	}
	row := req.TaskRow
	row.Urgent, row.Important = models.ResolveEisenhower(req.Urgent, req.Important, models.Priority(row.Priority))
	if row.UserID != "" && row.UserID != uid {
		writeError(c, http.StatusForbidden, ErrCodeForbidden, "token does not belong to user "+row.UserID)
		return
	}
	if row.ID != "" && row.ID != id {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, "body id does not match path")
		return
	}
	if strings.TrimSpace(row.Title) == "" {
		writeError(c, http.StatusBadRequest, ErrCodeBadRequest, "title is required")
		return
	}
	row.UserID, row.ID = uid, id

	if err := s.tasks.Upsert(c.Request.Context(), &row); err != nil {
		logFor(c.Request.Context()).Error("upsert task", "id", id, "err", err)
		writeError(c, http.StatusInternalServerError, ErrCodeInternal, "failed to store task")
		return
	}
	s.metrics.RecordUpsert()
	c.JSON(http.StatusOK, row)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	uid, ok := ownerFor(c)
	if !ok {
		return
	}
	err := s.tasks.Delete(c.Request.Context(), uid, c.Param("id"))
	if errors.Is(err, serverdb.ErrTaskNotFound) {
		writeError(c, http.StatusNotFound, ErrCodeNotFound, "task not found")
		return
	}
	if err != nil {
		logFor(c.Request.Context()).Error("delete task", "err", err)
		writeError(c, http.StatusInternalServerError, ErrCodeInternal, "failed to delete task")
		return
	}
	s.metrics.RecordDelete()
	c.Status(http.StatusNoContent)
}
