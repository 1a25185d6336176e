package http

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/config"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
	"github.com/Murdock022X/BankingWebsite/internal/models"
)

const (
	ctxUser    = "user"
	ctxAccount = "account"

	headerRequestID = "X-Request-ID"
)

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	origins := strings.Split(cfg.AllowOrigins, ",")
	if len(origins) == 1 && strings.TrimSpace(origins[0]) == "*" {
		cc.AllowAllOrigins = true
	} else {
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cc.AllowOrigins = origins
	}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", headerRequestID)
	cc.ExposeHeaders = []string{headerRequestID, "Content-Disposition"}
	return cors.New(cc)
}

// requestLogger tags every request with an id, stores a request scoped
// logger in the request context and writes one line when it completes.
func requestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)

		log := base.With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= 500 {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

type Claims struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// requireAuth resolves the bearer token to a user row.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(401, gin.H{"error": "authorization_header_invalid"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token"})
			return
		}

		var user models.User
		if err := s.db.WithContext(c.Request.Context()).Where("username = ?", claims.Username).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token_user_not_found"})
			return
		}

		log := logger.FromContext(c.Request.Context()).With().Str("username", user.Username).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))
		c.Set(ctxUser, &user)
		c.Next()
	}
}

// requireAdmin must run after requireAuth. Admin rights come from the
// user row, not the token.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin {
			c.AbortWithStatusJSON(403, gin.H{"error": "admin_required"})
			return
		}
		c.Next()
	}
}

// requireAccountOwner loads :acc_no and rejects other users' accounts.
func (s *Server) requireAccountOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		accNo, err := strconv.ParseUint(c.Param("acc_no"), 10, 32)
		if err != nil {
			c.AbortWithStatusJSON(400, gin.H{"error": "invalid_account_number"})
			return
		}

		var acc models.Account
		err = s.db.WithContext(c.Request.Context()).Where("acc_no = ?", accNo).First(&acc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(404, gin.H{"error": "not_found", "message": "account not found"})
			return
		}
		if err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		if acc.Username != currentUser(c).Username {
			c.AbortWithStatusJSON(403, gin.H{"error": "owner_mismatch", "message": "account belongs to another user"})
			return
		}

		c.Set(ctxAccount, &acc)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(ctxUser).(*models.User)
}

func currentAccount(c *gin.Context) *models.Account {
	return c.MustGet(ctxAccount).(*models.Account)
}
