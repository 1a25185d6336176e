package http

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/ledger"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
	"github.com/Murdock022X/BankingWebsite/internal/models"
	"github.com/Murdock022X/BankingWebsite/internal/term"
)

// GET /v1/admin/settings
func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.ledger.Settings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"settings": settings, "formatted": format.FormatSettings(settings)})
}

// PUT /v1/admin/settings
func (s *Server) updateSettings(c *gin.Context) {
	var input struct {
		SavingsAPY   *decimal.Decimal `json:"savings_apy"`
		CheckingsAPY *decimal.Decimal `json:"checkings_apy"`
		SavingsMin   *decimal.Decimal `json:"savings_min"`
		CheckingsMin *decimal.Decimal `json:"checkings_min"`
	}
	if !s.bindSchema(c, schemaSettings, &input) {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	settings, err := s.ledger.UpdateSettings(ctx, ledger.SettingsChange{
		SavingsAPY:   input.SavingsAPY,
		CheckingsAPY: input.CheckingsAPY,
		SavingsMin:   input.SavingsMin,
		CheckingsMin: input.CheckingsMin,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"settings": settings, "formatted": format.FormatSettings(settings)})
}

// POST /v1/admin/alerts
func (s *Server) commitAlert(c *gin.Context) {
	var input struct {
		Content string `json:"content" binding:"required,max=10000"`
	}
	if !bindJSON(c, &input) {
		return
	}

	alert := models.Alert{Date: time.Now().UTC(), Content: strings.TrimSpace(input.Content)}
	if err := s.db.WithContext(c.Request.Context()).Create(&alert).Error; err != nil {
		fail(c, err)
		return
	}
	log := logger.FromContext(c.Request.Context())
	log.Info().Uint("alert_id", alert.ID).Msg("alert committed")
	c.JSON(201, alert)
}

// POST /v1/admin/messages
func (s *Server) commitMessage(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Content  string `json:"content" binding:"required,max=10000"`
	}
	if !bindJSON(c, &input) {
		return
	}
	db := s.db.WithContext(c.Request.Context())

	var user models.User
	err := db.Where("username = ?", input.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(404, gin.H{"error": "user_not_found"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	msg := models.Message{Username: user.Username, Date: time.Now().UTC(), Content: strings.TrimSpace(input.Content)}
	if err := db.Create(&msg).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, msg)
}

// POST /v1/admin/term
func (s *Server) runTerm(c *gin.Context) {
	rep, err := s.cycle.Run(c.Request.Context())
	if errors.Is(err, term.ErrLocked) {
		c.JSON(409, gin.H{"error": "term_cycle_running"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, rep)
}

// GET /v1/alerts
func (s *Server) listAlerts(c *gin.Context) {
	var alerts []models.Alert
	if err := s.db.WithContext(c.Request.Context()).Order("date DESC, id DESC").Find(&alerts).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, alerts)
}

// GET /v1/messages
func (s *Server) listMessages(c *gin.Context) {
	var msgs []models.Message
	if err := s.db.WithContext(c.Request.Context()).
		Where("username = ?", currentUser(c).Username).
		Order("date DESC, id DESC").
		Find(&msgs).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, msgs)
}

// DELETE /v1/messages/:id
func (s *Server) deleteMessage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid id"})
		return
	}

	res := s.db.WithContext(c.Request.Context()).
		Where("id = ? AND username = ?", id, currentUser(c).Username).
		Delete(&models.Message{})
	if res.Error != nil {
		fail(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(404, gin.H{"error": "message not found"})
		return
	}
	c.JSON(200, gin.H{"message": "message deleted"})
}
