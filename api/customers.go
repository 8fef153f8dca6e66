package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/airledger/internal/service/customers"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CustomerHandler struct {
	service customers.CustomerUseCase
	log     logrus.FieldLogger
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewCustomerHandler(service customers.CustomerUseCase, log logrus.FieldLogger) *CustomerHandler {
	return &CustomerHandler{service: service, log: log}
}

func (h *CustomerHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.register)
	router.POST("/login", h.login)
	router.GET("/:id", h.get)
	router.GET("/:id/bookings", h.bookings)
}

func (h *CustomerHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CustomerHandler) register(c *gin.Context) {
	var req customers.RegisterCustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	customer, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	customer, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) get(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	customer, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) bookings(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	bookings, err := h.service.Bookings(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func customerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
