package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/thanhnp/poa-ledger/internal/auth"
	"github.com/thanhnp/poa-ledger/internal/ledger"
	"github.com/thanhnp/poa-ledger/internal/models"
)

// ProposeRequest is the body of a block proposal
type ProposeRequest struct {
	SenderAddress    string      `json:"senderAddress" binding:"required,address"`
	SenderPrivateKey string      `json:"senderPrivateKey" binding:"required"`
	Metadata         interface{} `json:"metadata" binding:"required"`
	Timestamp        json.Number `json:"timestamp" binding:"required"`
}

// ConfirmRequest is the body of a confirmation
type ConfirmRequest struct {
	ValidatorAddress    string `json:"validatorAddress" binding:"required,address"`
	ValidatorPrivateKey string `json:"validatorPrivateKey" binding:"required"`
}

var bindingOnce sync.Once

// setupBinding keeps JSON numbers intact while binding and registers the
// address validation on gin's validator.
func setupBinding() {
	bindingOnce.Do(func() {
		binding.EnableDecoderUseNumber = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
				return auth.IsAddress(fl.Field().String())
			})
		}
	})
}

// WorkflowHandler handles proposals and confirmations
type WorkflowHandler struct {
	ledger Ledger
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(l Ledger) *WorkflowHandler {
	setupBinding()
	return &WorkflowHandler{
		ledger: l,
	}
}

// Propose stages a block for confirmation
// POST /api/v1/blocks
func (h *WorkflowHandler) Propose(c *gin.Context) {
	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := auth.Verify(req.SenderAddress, req.SenderPrivateKey); err != nil {
		respondError(c, err)
		return
	}

	timestamp, err := req.Timestamp.Int64()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp"})
		return
	}

	hash, err := h.ledger.ProposeAfter(models.Payload{
		"senderAddress": req.SenderAddress,
		"metadata":      req.Metadata,
	}, timestamp)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blockHash": hash})
}

// Confirm seals every pending block on behalf of a validator
// POST /api/v1/confirm
func (h *WorkflowHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := auth.Verify(req.ValidatorAddress, req.ValidatorPrivateKey); err != nil {
		respondError(c, err)
		return
	}

	hashes, err := h.ledger.Confirm(req.ValidatorAddress)
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError && len(hashes) > 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "blockHashes": hashes})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blockHashes": hashes})
}

var _ Ledger = (*ledger.Ledger)(nil)
