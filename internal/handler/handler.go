package handler

import (
	"bytes"
	"errors"
	"net/http"

	"bankpro/internal/config"
	"bankpro/internal/infrastructure/lock"
	"bankpro/internal/model"
	"bankpro/internal/repository"
	"bankpro/internal/service"
	"bankpro/pkg/currency"
	"bankpro/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	sessionService   *service.SessionService
	transferService  *service.TransferService
	cardService      *service.CardService
	statementService *service.StatementService
	formatter        *currency.Formatter
}

// NewHandler 创建处理器实例，所有服务共享同一个账本
func NewHandler(ledger *service.Ledger, publisher service.EventPublisher, cfg *config.Config) *Handler {
	return &Handler{
		sessionService:   service.NewSessionService(ledger),
		transferService:  service.NewTransferService(ledger, publisher, cfg),
		cardService:      service.NewCardService(ledger, publisher, cfg),
		statementService: service.NewStatementService(ledger, cfg),
		formatter:        currency.NewFormatter(cfg.Business.CurrencyLocale),
	}
}

// writeError 业务错误映射为响应码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.BusinessError(c, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrSourceNotFound):
		response.BusinessError(c, response.CodeSourceNotFound, err.Error())
	case errors.Is(err, service.ErrDestinationNotFound):
		response.BusinessError(c, response.CodeDestinationNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, service.ErrCardNotFound):
		response.BusinessError(c, response.CodeCardNotFound, err.Error())
	case errors.Is(err, service.ErrSourceNotOwned):
		response.BusinessError(c, response.CodeSourceNotOwned, err.Error())
	case errors.Is(err, service.ErrNotLoggedIn):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, lock.ErrLockFailed):
		response.BusinessError(c, response.CodeConcurrentUpdate, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 登录相关接口
// ============================================================

// LoginRequest 登录请求
// 不做必填校验，空用户名或密码同样按认证失败处理
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 登录
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.sessionService.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, userView(*user))
}

// Logout 退出登录
// POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessionService.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message": "已退出登录",
	})
}

// Me 当前登录用户
// GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	response.Success(c, userView(mustUser(c)))
}

// ============================================================
// 账户相关接口
// ============================================================

// AccountView 账户展示信息，余额附带格式化文本
type AccountView struct {
	model.Account
	BalanceText string `json:"balanceText"`
}

// ListAccounts 当前用户的账户
// GET /api/v1/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.sessionService.Accounts(c.Request.Context(), mustUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, AccountView{Account: a, BalanceText: h.formatter.Format(a.Balance)})
	}
	response.Success(c, views)
}

// ============================================================
// 转账相关接口
// ============================================================

// TransferRequest 转账请求
// 必填校验交给业务层，保证错误码一致
type TransferRequest struct {
	FromAccount string `json:"fromAccount"`
	ToAccount   string `json:"toAccount"`
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Transfer 转账
// POST /api/v1/transfers
//
// 【注意】转账不是幂等的，客户端不要自动重试
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	tx, err := h.transferService.Transfer(c.Request.Context(), mustUser(c), service.TransferRequest{
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, tx)
}

// ============================================================
// 银行卡相关接口
// ============================================================

// ListCards 当前用户的银行卡
// GET /api/v1/cards
func (h *Handler) ListCards(c *gin.Context) {
	cards, err := h.sessionService.Cards(c.Request.Context(), mustUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, cards)
}

// IssueCardRequest 申请新卡，cardType 为空时使用默认类型
type IssueCardRequest struct {
	CardType string `json:"cardType"`
}

// IssueCard 申请新卡
// POST /api/v1/cards
func (h *Handler) IssueCard(c *gin.Context) {
	var req IssueCardRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, "参数错误: "+err.Error())
			return
		}
	}

	card, err := h.cardService.Issue(c.Request.Context(), mustUser(c), req.CardType)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, card)
}

// BlockCard 冻结银行卡
// POST /api/v1/cards/:number/block
func (h *Handler) BlockCard(c *gin.Context) {
	card, err := h.cardService.Block(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, card)
}

// ============================================================
// 对账单相关接口
// ============================================================

func (h *Handler) statementFilter(c *gin.Context) (service.StatementFilter, error) {
	from, err := h.statementService.ParseDate(c.Query("from"))
	if err != nil {
		return service.StatementFilter{}, err
	}
	to, err := h.statementService.ParseDate(c.Query("to"))
	if err != nil {
		return service.StatementFilter{}, err
	}
	return service.StatementFilter{
		AccountNumber: c.Query("account"),
		FromDate:      from,
		ToDate:        to,
	}, nil
}

// ListStatements 查询流水
// GET /api/v1/statements?account=xxx&from=2006-01-02&to=2006-01-02
func (h *Handler) ListStatements(c *gin.Context) {
	filter, err := h.statementFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	txs, err := h.statementService.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":  txs,
		"total": len(txs),
	})
}

// ExportStatements 导出 CSV
// GET /api/v1/statements/export?account=xxx&from=...&to=...
func (h *Handler) ExportStatements(c *gin.Context) {
	filter, err := h.statementFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	txs, err := h.statementService.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(txs) == 0 {
		response.BusinessError(c, response.CodeNoTransactions, "没有可导出的流水")
		return
	}

	var buf bytes.Buffer
	if err := h.statementService.ExportCSV(&buf, txs); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+service.ExportFileName(filter.AccountNumber)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func userView(u model.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"username": u.Username,
		"fullName": u.FullName,
	}
}
