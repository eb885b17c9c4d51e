package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"carrental/internal/domain"
	"carrental/internal/pkg/response"
	"carrental/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes attaches the browse endpoints that need no
// session.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	cars := rg.Group("/cars")
	cars.GET("", h.List)
	cars.GET("/available", h.AvailableForRange)
	cars.GET("/:id", h.GetByID)
	cars.GET("/:id/availability", h.Availability)
}

// RegisterProtectedRoutes attaches the fleet management endpoints.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	cars := rg.Group("/cars")
	cars.POST("", h.Create)
	cars.PUT("/:id", h.Update)
	cars.DELETE("/:id", h.Deactivate)
	cars.GET("/mine", h.ListMine)
}

type createRequest struct {
	Name        string  `json:"name" validate:"required"`
	Brand       string  `json:"brand"`
	PricePerDay float64 `json:"price_per_day" validate:"required,gt=0"`
	Location    string  `json:"location"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", details)
		return
	}

	car, err := h.service.Create(c.Request.Context(), CreateCarRequest{
		OwnerID:     c.GetInt64("user_id"),
		Name:        req.Name,
		Brand:       req.Brand,
		PricePerDay: req.PricePerDay,
		LocationTag: req.Location,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"car": car})
}

type updateRequest struct {
	Name        *string  `json:"name"`
	Brand       *string  `json:"brand"`
	PricePerDay *float64 `json:"price_per_day"`
	Location    *string  `json:"location"`
	Status      *string  `json:"status"`
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	upd := UpdateCarRequest{
		Name:        req.Name,
		Brand:       req.Brand,
		PricePerDay: req.PricePerDay,
		LocationTag: req.Location,
	}
	if req.Status != nil {
		st := domain.CarStatus(*req.Status)
		switch st {
		case domain.CarActive, domain.CarMaintenance, domain.CarInactive:
			upd.Status = &st
		default:
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown car status")
			return
		}
	}

	role, _ := domain.ParseRole(c.GetString("role"))
	car, err := h.service.Update(c.Request.Context(), id, c.GetInt64("user_id"), role, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"car": car})
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	role, _ := domain.ParseRole(c.GetString("role"))
	if err := h.service.Deactivate(c.Request.Context(), id, c.GetInt64("user_id"), role); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

func (h *Handler) List(c *gin.Context) {
	cars, err := h.service.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cars": cars, "count": len(cars)})
}

func (h *Handler) ListMine(c *gin.Context) {
	cars, err := h.service.ListByOwner(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cars": cars, "count": len(cars)})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	car, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"car": car})
}

// Availability answers either the coarse "now" question or, with start
// and end query params, the exact date-range one.
func (h *Handler) Availability(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr == "" && endStr == "" {
		avail, err := h.service.IsAvailableNow(id)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"car_id": id, "available": avail})
		return
	}

	start, end, ok := h.parseRange(c, startStr, endStr)
	if !ok {
		return
	}
	avail, err := h.service.IsAvailableForRange(c.Request.Context(), id, start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"car_id":    id,
		"available": avail,
		"start":     startStr,
		"end":       endStr,
	})
}

func (h *Handler) AvailableForRange(c *gin.Context) {
	start, end, ok := h.parseRange(c, c.Query("start"), c.Query("end"))
	if !ok {
		return
	}
	cars, err := h.service.AvailableForRange(c.Request.Context(), start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cars": cars, "count": len(cars)})
}

func (h *Handler) parseRange(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if !end.After(start) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end must be after start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Car id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "CAR_NOT_FOUND", "Car does not exist")
	case errors.Is(err, ErrNotOwner):
		response.Error(c, http.StatusForbidden, "NOT_OWNER", "Car belongs to another hoster")
	default:
		response.Error(c, http.StatusInternalServerError, "SYSTEM_ERROR", "Catalog service failure")
	}
}
