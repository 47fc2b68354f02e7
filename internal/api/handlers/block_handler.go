package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// BlockHandler handles chain read requests
type BlockHandler struct {
	ledger Ledger
}

// NewBlockHandler creates a new BlockHandler
func NewBlockHandler(l Ledger) *BlockHandler {
	return &BlockHandler{
		ledger: l,
	}
}

// GetByHash returns a block by its hash
// GET /api/v1/blocks/:hash
func (h *BlockHandler) GetByHash(c *gin.Context) {
	hash := c.Param("hash")

	block, height, err := h.ledger.ByHash(hash)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BlockResponse{Block: block, Height: height})
}

// GetByHeight returns a block by its height
// GET /api/v1/blocks/height/:height
func (h *BlockHandler) GetByHeight(c *gin.Context) {
	heightStr := c.Param("height")

	height, err := strconv.ParseInt(heightStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid height"})
		return
	}

	block, err := h.ledger.ByHeight(height)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BlockResponse{Block: block, Height: int(height)})
}

// GetLatest returns the tail of the chain
// GET /api/v1/blocks/latest
func (h *BlockHandler) GetLatest(c *gin.Context) {
	block, height, err := h.ledger.Latest()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BlockResponse{Block: block, Height: height})
}

// GetCurrent returns the chain height
// GET /api/v1/current
func (h *BlockHandler) GetCurrent(c *gin.Context) {
	height, err := h.ledger.Height()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"height": height})
}

// GetChain returns the whole chain and its hash index
// GET /api/v1/chain
func (h *BlockHandler) GetChain(c *gin.Context) {
	snapshot, err := h.ledger.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetPending returns the blocks waiting for confirmation
// GET /api/v1/pending
func (h *BlockHandler) GetPending(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Pending())
}
