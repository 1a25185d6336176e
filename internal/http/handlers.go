package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"
	"gorm.io/gorm"

	"github.com/Murdock022X/BankingWebsite/internal/config"
	"github.com/Murdock022X/BankingWebsite/internal/format"
	"github.com/Murdock022X/BankingWebsite/internal/ledger"
	"github.com/Murdock022X/BankingWebsite/internal/models"
	"github.com/Murdock022X/BankingWebsite/internal/redis"
	"github.com/Murdock022X/BankingWebsite/internal/statement"
	"github.com/Murdock022X/BankingWebsite/internal/term"
)

// TermRunner triggers the term cycle on demand.
type TermRunner interface {
	Run(ctx context.Context) (*term.Report, error)
}

// Deps are the collaborators the routes call into. History may be nil.
type Deps struct {
	DB         *gorm.DB
	Ledger     *ledger.Ledger
	Cycle      TermRunner
	Statements statement.Store
	History    *redis.ViewCache[ledger.History]
	Log        zerolog.Logger
}

type Server struct {
	cfg     *config.Config
	db      *gorm.DB
	ledger  *ledger.Ledger
	cycle   TermRunner
	store   statement.Store
	history *redis.ViewCache[ledger.History]
	schemas map[string]*gojsonschema.Schema
	secret  []byte
}

func NewServer(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		db:      deps.DB,
		ledger:  deps.Ledger,
		cycle:   deps.Cycle,
		store:   deps.Statements,
		history: deps.History,
		schemas: schemas,
		secret:  []byte(cfg.JWTSecret),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg))
	r.Use(requestLogger(deps.Log))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// Auth
	r.POST("/v1/auth/signup", s.authSignup)
	r.POST("/v1/auth/login", s.authLogin)

	// Protected Routes (User Token)
	authorized := r.Group("/v1")
	authorized.Use(s.requireAuth())
	{
		authorized.GET("/profile", s.getProfile)
		authorized.GET("/accounts", s.listAccounts)
		authorized.POST("/accounts", s.createAccount)
		authorized.GET("/summary", s.getSummary)
		authorized.GET("/statements", s.listStatements)
		authorized.GET("/statements/:id/download", s.downloadStatement)
		authorized.GET("/alerts", s.listAlerts)
		authorized.GET("/messages", s.listMessages)
		authorized.DELETE("/messages/:id", s.deleteMessage)
	}

	owned := authorized.Group("/accounts/:acc_no")
	owned.Use(s.requireAccountOwner())
	{
		owned.GET("/transactions", s.listTransactions)
		owned.GET("/history", s.getHistory)
		owned.POST("/deposit", s.deposit)
		owned.POST("/withdraw", s.withdraw)
		owned.POST("/transfer", s.transfer)
		owned.POST("/close", s.closeAccount)
	}

	admin := authorized.Group("/admin")
	admin.Use(requireAdmin())
	{
		admin.GET("/settings", s.getSettings)
		admin.PUT("/settings", s.updateSettings)
		admin.POST("/alerts", s.commitAlert)
		admin.POST("/messages", s.commitMessage)
		admin.POST("/term", s.runTerm)
	}

	return r, nil
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(s.cfg.ReqTimeoutSec)*time.Second)
}

const termAttempts = 3

// inCurrentTerm runs op with the active term and reruns it with a fresh
// read when the term advanced before op's unit of work began.
func (s *Server) inCurrentTerm(ctx context.Context, op func(termNo uint) error) error {
	var err error
	for attempt := 0; attempt < termAttempts; attempt++ {
		var termNo uint
		if termNo, err = s.ledger.CurrentTerm(ctx); err != nil {
			return err
		}
		if err = op(termNo); !errors.Is(err, ledger.ErrTermChanged) {
			return err
		}
	}
	return err
}

// GET /v1/profile
func (s *Server) getProfile(c *gin.Context) {
	c.JSON(200, currentUser(c))
}

// GET /v1/accounts
func (s *Server) listAccounts(c *gin.Context) {
	user := currentUser(c)

	var accs []models.Account
	if err := s.db.WithContext(c.Request.Context()).
		Where("username = ? AND status = ?", user.Username, true).
		Order("acc_no").
		Find(&accs).Error; err != nil {
		fail(c, err)
		return
	}

	savings := []format.Account{}
	checkings := []format.Account{}
	for _, a := range accs {
		if a.AccType == models.Savings {
			savings = append(savings, format.FormatAccount(a))
		} else {
			checkings = append(checkings, format.FormatAccount(a))
		}
	}
	c.JSON(200, gin.H{"savings": savings, "checkings": checkings})
}

// POST /v1/accounts
func (s *Server) createAccount(c *gin.Context) {
	var input struct {
		AccType *int            `json:"acc_type" binding:"required,oneof=0 1"`
		Balance decimal.Decimal `json:"balance"`
	}
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	acc, err := s.ledger.CreateAccount(ctx, ledger.CreateAccountRequest{
		Username: currentUser(c).Username,
		AccType:  models.AccountType(*input.AccType),
		Opening:  input.Balance,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, format.FormatAccount(*acc))
}

type transactionView struct {
	models.Transaction
	DateLabel string `json:"date_label"`
	AmtLabel  string `json:"amt_label"`
	EndLabel  string `json:"end_bal_label"`
}

// GET /v1/accounts/:acc_no/transactions
func (s *Server) listTransactions(c *gin.Context) {
	acc := currentAccount(c)

	var txs []models.Transaction
	if err := s.db.WithContext(c.Request.Context()).
		Where("acc_no = ?", acc.AccNo).
		Order("transaction_no DESC").
		Find(&txs).Error; err != nil {
		fail(c, err)
		return
	}

	out := make([]transactionView, len(txs))
	for i, t := range txs {
		out[i] = transactionView{
			Transaction: t,
			DateLabel:   format.LongDate(t.Date),
			AmtLabel:    format.Money(t.Signed()),
			EndLabel:    format.Money(t.EndBal),
		}
	}
	c.JSON(200, gin.H{"account": format.FormatAccount(*acc), "transactions": out})
}

// GET /v1/accounts/:acc_no/history
func (s *Server) getHistory(c *gin.Context) {
	acc := currentAccount(c)
	ctx, cancel := s.requestContext(c)
	defer cancel()

	last, err := s.ledger.LastTransactionNo(ctx, acc.AccNo)
	if err != nil {
		fail(c, err)
		return
	}
	key := fmt.Sprintf("history:%d:%d:%s", acc.AccNo, last, time.Now().UTC().Format("2006-01-02"))
	if h, ok := s.history.Get(ctx, key); ok {
		c.JSON(200, h.Chart())
		return
	}

	h, err := s.ledger.History(ctx, acc.AccNo)
	if err != nil {
		fail(c, err)
		return
	}
	s.history.Set(ctx, key, h)
	c.JSON(200, h.Chart())
}

// POST /v1/accounts/:acc_no/deposit
func (s *Server) deposit(c *gin.Context) {
	var input struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if !s.bindSchema(c, schemaMoneyOp, &input) {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	var rec *models.Transaction
	err := s.inCurrentTerm(ctx, func(termNo uint) error {
		var err error
		rec, err = s.ledger.Deposit(ctx, ledger.DepositRequest{
			AccNo:       currentAccount(c).AccNo,
			Amount:      input.Amount,
			Description: input.Description,
			Owner:       currentUser(c).Username,
			Term:        termNo,
		})
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, rec)
}

// POST /v1/accounts/:acc_no/withdraw
func (s *Server) withdraw(c *gin.Context) {
	var input struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if !s.bindSchema(c, schemaMoneyOp, &input) {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	var rec *models.Transaction
	err := s.inCurrentTerm(ctx, func(termNo uint) error {
		var err error
		rec, err = s.ledger.Withdraw(ctx, ledger.WithdrawRequest{
			AccNo:       currentAccount(c).AccNo,
			Amount:      input.Amount,
			Description: input.Description,
			Owner:       currentUser(c).Username,
			Term:        termNo,
		})
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, rec)
}

// POST /v1/accounts/:acc_no/transfer
func (s *Server) transfer(c *gin.Context) {
	var input struct {
		To          uint            `json:"to"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if !s.bindSchema(c, schemaTransfer, &input) {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	var res *ledger.TransferResult
	err := s.inCurrentTerm(ctx, func(termNo uint) error {
		var err error
		res, err = s.ledger.Transfer(ctx, ledger.TransferRequest{
			From:        currentAccount(c).AccNo,
			To:          input.To,
			Amount:      input.Amount,
			Description: input.Description,
			Owner:       currentUser(c).Username,
			Term:        termNo,
		})
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, res)
}

// POST /v1/accounts/:acc_no/close
func (s *Server) closeAccount(c *gin.Context) {
	var input struct {
		Password   string `json:"password"`
		TransferTo uint   `json:"transfer_to"`
	}
	if !s.bindSchema(c, schemaClose, &input) {
		return
	}
	user := currentUser(c)
	if !checkPassword(user, input.Password) {
		c.JSON(401, gin.H{"error": "invalid_password"})
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	var res *ledger.CloseResult
	err := s.inCurrentTerm(ctx, func(termNo uint) error {
		var err error
		res, err = s.ledger.Close(ctx, ledger.CloseRequest{
			AccNo:      currentAccount(c).AccNo,
			Owner:      user.Username,
			TransferTo: input.TransferTo,
			Term:       termNo,
		})
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"account": format.FormatAccount(*res.Account), "transfer": res.Transfer})
}
