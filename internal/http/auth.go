package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/logger"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

// Auth Response Wrapper
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		Admin:    user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// POST /v1/auth/signup
func (s *Server) authSignup(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required,min=6,max=100,alphanum"`
		Password string `json:"password" binding:"required,min=6,max=100"`
		Name     string `json:"name" binding:"required,max=1000"`
	}
	if !bindJSON(c, &input) {
		return
	}
	db := s.db.WithContext(c.Request.Context())

	var existing models.User
	err := db.Where("username = ?", input.Username).First(&existing).Error
	if err == nil {
		c.JSON(409, gin.H{"error": "user_already_exists"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(500, gin.H{"error": "encryption_failed"})
		return
	}

	user := models.User{
		Username: input.Username,
		Password: string(hash),
		Name:     strings.TrimSpace(input.Name),
	}
	if err := db.Create(&user).Error; err != nil {
		fail(c, err)
		return
	}

	token, err := s.generateToken(&user)
	if err != nil {
		fail(c, err)
		return
	}
	log := logger.FromContext(c.Request.Context())
	log.Info().Str("username", user.Username).Msg("user signed up")
	c.JSON(201, AuthResponse{Token: token, User: &user})
}

// POST /v1/auth/login
func (s *Server) authLogin(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	var user models.User
	err := s.db.WithContext(c.Request.Context()).Where("username = ?", input.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(401, gin.H{"error": "unknown_user"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(401, gin.H{"error": "invalid_password"})
		return
	}

	token, err := s.generateToken(&user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, AuthResponse{Token: token, User: &user})
}

func checkPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}
