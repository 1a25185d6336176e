package http

import (
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

type statementView struct {
	ID       uint   `json:"id"`
	FileName string `json:"file_name"`
	Date     string `json:"date"`
	Term     uint   `json:"term"`
}

// fileName works for local paths and gs:// URIs alike.
func fileName(location string) string {
	return path.Base(location)
}

// GET /v1/statements
func (s *Server) listStatements(c *gin.Context) {
	var rows []models.Statement
	if err := s.db.WithContext(c.Request.Context()).
		Where("username = ?", currentUser(c).Username).
		Order("date DESC").
		Find(&rows).Error; err != nil {
		fail(c, err)
		return
	}

	out := make([]statementView, len(rows))
	for i, r := range rows {
		label := r.Date
		if d, err := time.Parse("2006-01-02", r.Date); err == nil {
			label = format.TitleDate(d)
		}
		out[i] = statementView{ID: r.ID, FileName: fileName(r.Path), Date: label, Term: r.Term}
	}
	c.JSON(200, out)
}

// GET /v1/statements/:id/download
func (s *Server) downloadStatement(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid id"})
		return
	}

	var row models.Statement
	if err := s.db.WithContext(c.Request.Context()).
		Where("id = ? AND username = ?", id, currentUser(c).Username).
		First(&row).Error; err != nil {
		c.JSON(404, gin.H{"error": "statement not found"})
		return
	}

	rc, err := s.store.Open(c.Request.Context(), row.Path)
	if err != nil {
		fail(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(200, -1, "application/pdf", rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + fileName(row.Path) + `"`,
	})
}
