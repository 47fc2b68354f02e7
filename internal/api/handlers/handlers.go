package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/poa-ledger/internal/auth"
	"github.com/thanhnp/poa-ledger/internal/ledger"
	"github.com/thanhnp/poa-ledger/internal/models"
)

// Ledger is the part of the ledger the handlers serve
type Ledger interface {
	Name() string
	Latest() (models.Block, int, error)
	Height() (int, error)
	ByHeight(height int64) (models.Block, error)
	ByHash(hash string) (models.Block, int, error)
	Snapshot() (*models.Snapshot, error)
	Pending() []models.Block
	ProposeAfter(data models.Payload, timestamp int64) (string, error)
	Confirm(identity string) ([]string, error)
}

// BlockResponse is a block together with its position in the chain
type BlockResponse struct {
	models.Block
	Height int `json:"height"`
}

// statusOf maps ledger and auth errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrMalformedPayload), errors.Is(err, ledger.ErrStaleTimestamp):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}
