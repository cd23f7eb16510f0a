package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/wzec-network/wzec-bridge/internal/config"
	bridgelogic "github.com/wzec-network/wzec-bridge/internal/logic/bridge"
	"github.com/wzec-network/wzec-bridge/internal/model"
	"github.com/wzec-network/wzec-bridge/pkg/log"
)

const defaultHistoryLimit = 50

type httpHandler struct {
	cfg          *config.Config
	db           *gorm.DB
	orchestrator *bridgelogic.OrchestratorService
	log          log.Logger
}

// RunHTTP serves the operator API and the prometheus scrape endpoint.
func RunHTTP(cfg *config.Config, db *gorm.DB, orchestrator *bridgelogic.OrchestratorService, logger log.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	h := &httpHandler{cfg: cfg, db: db, orchestrator: orchestrator, log: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", h.status)
		v1.GET("/deposit-address", h.depositAddress)
		v1.GET("/tx/:refid", h.lookup)
		v1.GET("/history", h.history)
		v1.POST("/pause", h.pause)
		v1.POST("/resume", h.resume)
		v1.POST("/initialize", h.initialize)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Infow("operator api listening", "addr", addr)
	return r.Run(addr)
}

// requestID tags every response so operator calls can be matched against logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (h *httpHandler) status(c *gin.Context) {
	report, err := h.orchestrator.Status()
	if err != nil {
		h.log.Errorw("status query failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *httpHandler) depositAddress(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"address":     h.cfg.Zcash.BridgeAddress,
		"min_deposit": h.cfg.Zcash.MinDepositAmount,
		"max_deposit": h.cfg.Zcash.MaxDepositAmount,
		"memo_format": "solana recipient address, plain or 0x-prefixed hex",
	})
}

// lookup resolves a zcash txid or a solana signature and returns the full
// cross chain trail recorded for it.
func (h *httpHandler) lookup(c *gin.Context) {
	refid := c.Param("refid")

	trail := gin.H{}
	found := false

	var deposit model.Deposit
	err := h.db.Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().ZecTxid), refid).First(&deposit).Error
	if err == nil {
		trail["deposit"] = deposit
		found = true
		var mint model.Mint
		if err := h.db.Where(fmt.Sprintf("%s = ?", model.Mint{}.Column().DepositID), deposit.ID).First(&mint).Error; err == nil {
			trail["mint"] = mint
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !found {
		var burn model.Burn
		err := h.db.Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().SolSignature), refid).First(&burn).Error
		if err == nil {
			trail["burn"] = burn
			found = true
			var withdrawal model.Withdrawal
			if err := h.db.Where(fmt.Sprintf("%s = ?", model.Withdrawal{}.Column().BurnID), burn.ID).First(&withdrawal).Error; err == nil {
				trail["withdrawal"] = withdrawal
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown reference id"})
		return
	}

	var audit []model.TransactionLog
	if err := h.db.Where("reference_id = ?", refid).Order("id asc").Find(&audit).Error; err == nil && len(audit) > 0 {
		trail["audit"] = audit
	}
	c.JSON(http.StatusOK, trail)
}

func (h *httpHandler) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &limit); err != nil || limit <= 0 || limit > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be in [1, 500]"})
			return
		}
	}
	var entries []model.TransactionLog
	if err := h.db.Order("id desc").Limit(limit).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *httpHandler) pause(c *gin.Context) {
	if err := h.orchestrator.Pause(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (h *httpHandler) resume(c *gin.Context) {
	if err := h.orchestrator.Resume(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

type initializeRequest struct {
	FeeBps int64 `json:"fee_bps" binding:"min=0,max=10000"`
}

func (h *httpHandler) initialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.orchestrator.Initialize(req.FeeBps); err != nil {
		if errors.Is(err, bridgelogic.ErrAlreadyInitialized) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_bps": req.FeeBps})
}
