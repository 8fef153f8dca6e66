package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:        http.StatusBadRequest,
	domain.KindInvalidCount:      http.StatusBadRequest,
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindNoBooking:         http.StatusNotFound,
	domain.KindInsufficientSeats: http.StatusConflict,
}

// writeError renders err as {"error", "code"}. Errors outside the ledger
// taxonomy are logged and hidden behind a generic 500.
func writeError(c *gin.Context, log logrus.FieldLogger, err error) {
	if errors.Is(err, booking.ErrFlightBusy) {
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "busy"})
		return
	}

	kind := domain.KindOf(err)
	if status, ok := kindStatus[kind]; ok {
		c.JSON(status, errorResponse{Error: err.Error(), Code: string(kind)})
		return
	}

	log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: string(domain.KindValidation)})
}
