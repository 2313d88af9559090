package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/service"
)

type WalletHandler struct {
	svc *service.LedgerService
}

type WithdrawReq struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

func NewWalletHandler(svc *service.LedgerService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

func (h *WalletHandler) Balance(c *gin.Context) {
	bal, err := h.svc.Balance(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "balance_cents": bal})
}

// History 流水，新的在前
func (h *WalletHandler) History(c *gin.Context) {
	list, err := h.svc.History(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *WalletHandler) Summary(c *gin.Context) {
	s, err := h.svc.Summary(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "summary": s})
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req WithdrawReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	tx, err := h.svc.Withdraw(c.Request.Context(), userID(c), req.AmountCents)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "transaction": tx})
}

// Watch SSE 推送余额，每次流水变更后重新折叠；只保留最新一次
func (h *WalletHandler) Watch(c *gin.Context) {
	ctx := c.Request.Context()
	latest := make(chan int64, 1)
	stop, err := h.svc.WatchBalance(ctx, userID(c), func(b int64) {
		for {
			select {
			case latest <- b:
				return
			default:
				select {
				case <-latest:
				default:
				}
			}
		}
	})
	if err != nil {
		fail(c, err)
		return
	}
	defer stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case b := <-latest:
			c.SSEvent("balance", gin.H{"balance_cents": b})
			return true
		}
	})
}
