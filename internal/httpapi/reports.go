package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientReport lists clients with debts, or without with ?debts=false.
func (h Handlers) ClientReport(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		rows any
		err  error
	)
	switch c.DefaultQuery("debts", "true") {
	case "true":
		rows, err = h.Reports.ClientsWithDebts(ctx)
	case "false":
		rows, err = h.Reports.ClientsWithoutDebts(ctx)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "debts must be true or false"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": rows})
}

func (h Handlers) UnusedTerminals(c *gin.Context) {
	rows, err := h.Reports.UnusedTerminals(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminals": rows})
}

func (h Handlers) PositiveTerminals(c *gin.Context) {
	rows, err := h.Reports.TerminalsWithPositiveBalance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminals": rows})
}

func (h Handlers) Totals(c *gin.Context) {
	t, err := h.Reports.NetworkTotals(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
