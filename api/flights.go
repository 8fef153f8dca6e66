package api

import (
	"net/http"

	"github.com/Domenick1991/airledger/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type FlightHandler struct {
	service flights.FlightUseCase
	log     logrus.FieldLogger
}

func NewFlightHandler(service flights.FlightUseCase, log logrus.FieldLogger) *FlightHandler {
	return &FlightHandler{service: service, log: log}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.schedule)
	router.GET("/:number", h.get)
	router.GET("/:number/passengers", h.passengers)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FlightHandler) schedule(c *gin.Context) {
	var req flights.ScheduleFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	flight, err := h.service.Schedule(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) passengers(c *gin.Context) {
	passengers, err := h.service.Passengers(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, passengers)
}
