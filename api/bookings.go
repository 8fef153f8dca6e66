package api

import (
	"net/http"

	"github.com/Domenick1991/airledger/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     logrus.FieldLogger
}

type bookingRequest struct {
	FlightNumber string `json:"flight_number" binding:"required"`
	CustomerID   int64  `json:"customer_id" binding:"required"`
	Tickets      int    `json:"tickets"`
}

func (r bookingRequest) input() booking.BookingInput {
	return booking.BookingInput{FlightNumber: r.FlightNumber, CustomerID: r.CustomerID, Tickets: r.Tickets}
}

func NewBookingHandler(service booking.BookingUseCase, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.book)
	router.POST("/cancellations", h.cancel)
}

// RegisterAudit mounts the ledger audit report.
func (h *BookingHandler) RegisterAudit(router *gin.RouterGroup) {
	router.GET("/audit", h.audit)
}

func (h *BookingHandler) book(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "flight_number and customer_id are required")
		return
	}

	result, err := h.service.Book(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "flight_number and customer_id are required")
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) audit(c *gin.Context) {
	discrepancies, err := h.service.Audit(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balanced": len(discrepancies) == 0, "discrepancies": discrepancies})
}
