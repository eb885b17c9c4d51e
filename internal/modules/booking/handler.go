package booking

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	bookings.POST("", h.Create)
	bookings.GET("", h.List)
	bookings.GET("/:id", h.GetByID)
	bookings.POST("/:id/status", h.Transition)
	bookings.POST("/:id/cancel", h.Cancel)
	bookings.POST("/:id/extend", h.Extend)
	bookings.POST("/:id/rating", h.Rate)
	bookings.POST("/:id/payment", h.Pay)
}

// RegisterReportRoutes attaches the aggregate views; wire them behind
// the reports permission.
func (h *Handler) RegisterReportRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	bookings.GET("/stats", h.Stats)
	bookings.GET("/revenue", h.Revenue)
	bookings.GET("/analytics", h.Analytics)
}

type createRequest struct {
	CarID          int64                 `json:"car_id" validate:"required"`
	StartDate      string                `json:"start_date" validate:"required"`
	EndDate        string                `json:"end_date" validate:"required"`
	StartTime      string                `json:"start_time" validate:"required"`
	EndTime        string                `json:"end_time" validate:"required"`
	PickupLocation string                `json:"pickup_location"`
	Extras         []domain.BookingExtra `json:"extras"`
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

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end_date must be YYYY-MM-DD")
		return
	}

	b, err := h.service.Create(c.Request.Context(), CreateBookingRequest{
		CarID:          req.CarID,
		CustomerID:     c.GetInt64("user_id"),
		StartDate:      start,
		EndDate:        end,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		PickupLocation: req.PickupLocation,
		Extras:         req.Extras,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	role, _ := domain.ParseRole(c.GetString("role"))

	if status := c.Query("status"); status != "" || c.Query("date_range") != "" {
		f := Filter{
			Status:    domain.BookingStatus(c.Query("status")),
			DateRange: c.Query("date_range"),
		}
		switch role {
		case domain.RoleHoster:
			f.HostID = userID
		case domain.RoleAdmin:
		default:
			f.CustomerID = userID
		}
		list, err := h.service.Filtered(c.Request.Context(), f)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"bookings": list, "count": len(list)})
		return
	}

	list, err := h.service.ListForPrincipal(c.Request.Context(), userID, role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "count": len(list)})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", details)
		return
	}

	b, err := h.service.TransitionStatus(c.Request.Context(), id, domain.BookingStatus(req.Status), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

type extendRequest struct {
	NewEndDate string `json:"new_end_date" validate:"required"`
	NewEndTime string `json:"new_end_time"`
}

func (h *Handler) Extend(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", details)
		return
	}
	newEnd, err := time.Parse(dateLayout, req.NewEndDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "new_end_date must be YYYY-MM-DD")
		return
	}

	res, err := h.service.Extend(c.Request.Context(), id, newEnd, req.NewEndTime)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

type rateRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review"`
}

func (h *Handler) Rate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5", details)
		return
	}

	b, err := h.service.Rate(c.Request.Context(), id, req.Rating, req.Review)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

type payRequest struct {
	Method string `json:"method" validate:"required"`
}

func (h *Handler) Pay(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing payment method", details)
		return
	}

	b, err := h.service.Pay(c.Request.Context(), id, req.Method)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) Revenue(c *gin.Context) {
	period := c.DefaultQuery("period", "month")
	total, err := h.service.RevenueByPeriod(c.Request.Context(), period)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"period": period, "revenue": total})
}

func (h *Handler) Analytics(c *gin.Context) {
	period := c.DefaultQuery("period", "month")
	a, err := h.service.AnalyticsForPeriod(c.Request.Context(), period)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Booking id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request",
			map[string]string{ve.Field: ve.Reason})
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking does not exist")
	case errors.Is(err, ErrCarNotFound):
		response.Error(c, http.StatusNotFound, "CAR_NOT_FOUND", "Car does not exist")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Car is already booked for the selected dates")
	case errors.Is(err, ErrIllegalTransition):
		response.Error(c, http.StatusConflict, "ILLEGAL_TRANSITION", "The requested change is not allowed from the current state")
	case errors.Is(err, ErrPaymentFailed):
		response.Error(c, http.StatusPaymentRequired, "PAYMENT_FAILED", "Payment could not be processed")
	case errors.Is(err, ErrCarQuarantined):
		response.Error(c, http.StatusServiceUnavailable, "CAR_QUARANTINED", "Car is temporarily unavailable for booking")
	default:
		response.Error(c, http.StatusInternalServerError, "SYSTEM_ERROR", "Booking service failure")
	}
}
