package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/poa-ledger/internal/auth"
)

// GetAccount generates a new address and the secret it is derived from
// GET /api/v1/account
func GetAccount(c *gin.Context) {
	account, err := auth.NewAccount()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
