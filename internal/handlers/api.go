package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/food-recommender/internal/middleware"
	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/internal/services"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// APIHandler handles all API requests
type APIHandler struct {
	recommendationService *services.RecommendationService
	health                map[string]HealthChecker
	log                   *logger.Logger
}

// NewAPIHandler creates a new API handler. health maps a backend name to its checker.
func NewAPIHandler(recommendationService *services.RecommendationService, health map[string]HealthChecker, log *logger.Logger) *APIHandler {
	return &APIHandler{
		recommendationService: recommendationService,
		health:                health,
		log:                   log.Component("APIHandler"),
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(router *gin.Engine, verifier *middleware.TokenVerifier) {
	router.GET("/health", h.Health)

	api := router.Group("/api", middleware.RequireAuth(verifier))
	{
		api.GET("/recommendations", h.GetRecommendations)
		api.POST("/recommendations/track", h.TrackInteraction)
		api.GET("/recommendations/retraining-status", h.GetRetrainingStatus)
		api.POST("/recommendations/trigger-retraining",
			middleware.RequireRole(models.RoleAdmin, models.RoleRestaurantOwner),
			h.TriggerRetraining)
		api.POST("/recommendations/order-completed", h.OrderCompleted)
	}
}

// GetRecommendations returns the hybrid recommendations of the caller
func (h *APIHandler) GetRecommendations(c *gin.Context) {
	userID := middleware.UserID(c)

	recommendations, err := h.recommendationService.GetRecommendations(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("Error getting recommendations", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recommendations"})
		return
	}

	c.JSON(http.StatusOK, recommendations)
}

type trackRequest struct {
	ItemID          string `json:"itemId" binding:"required"`
	ItemType        string `json:"itemType" binding:"required"`
	InteractionType string `json:"interactionType" binding:"required"`
}

// TrackInteraction records a VIEW, CLICK, ORDER or FAVORITE event
func (h *APIHandler) TrackInteraction(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId, itemType and interactionType are required"})
		return
	}
	kind, err := models.ParseItemKind(req.ItemType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item type"})
		return
	}
	interaction, err := models.ParseInteractionKind(req.InteractionType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid interaction type"})
		return
	}

	userID := middleware.UserID(c)
	item := models.ItemRef{Kind: kind, ID: req.ItemID}
	if err := h.recommendationService.TrackInteraction(c.Request.Context(), userID, item, interaction); err != nil {
		if errors.Is(err, models.ErrInvalidItemKind) || errors.Is(err, models.ErrInvalidInteractionKind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Error tracking interaction", "user_id", userID, "item", item.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track interaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetRetrainingStatus reports the order counter against the retraining threshold
func (h *APIHandler) GetRetrainingStatus(c *gin.Context) {
	status, err := h.recommendationService.RetrainingStatus(c.Request.Context())
	if err != nil {
		h.log.Error("Error getting retraining status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get retraining status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// TriggerRetraining resets the counter and clears every cached recommendation
func (h *APIHandler) TriggerRetraining(c *gin.Context) {
	if err := h.recommendationService.TriggerRetraining(c.Request.Context()); err != nil {
		h.log.Error("Error triggering retraining", "user_id", middleware.UserID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger retraining"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Recommendation retraining triggered",
	})
}

type orderCompletedRequest struct {
	OrderID      string   `json:"orderId" binding:"required"`
	CustomerID   string   `json:"customerId"`
	RestaurantID string   `json:"restaurantId"`
	FoodIDs      []string `json:"foodIds"`
}

// OrderCompleted is called by the order workflow once an order completes.
// Admins and restaurant owners may report the order of another customer;
// everyone else reports their own. Bookkeeping failures never fail the request.
func (h *APIHandler) OrderCompleted(c *gin.Context) {
	var req orderCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	customerID := middleware.UserID(c)
	if req.CustomerID != "" && req.CustomerID != customerID {
		if !middleware.HasRole(c, models.RoleAdmin, models.RoleRestaurantOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot report orders of another customer"})
			return
		}
		customerID = req.CustomerID
	}

	order := models.Order{
		ID:           req.OrderID,
		CustomerID:   customerID,
		RestaurantID: req.RestaurantID,
	}
	for _, foodID := range req.FoodIDs {
		order.Items = append(order.Items, models.OrderItem{FoodID: foodID, Quantity: 1})
	}
	h.recommendationService.RecordOrderCompletion(c.Request.Context(), order)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health checks every configured backend
func (h *APIHandler) Health(c *gin.Context) {
	checks := make(gin.H, len(h.health))
	healthy := true
	for name, checker := range h.health {
		if err := checker.Health(c.Request.Context()); err != nil {
			h.log.Warn("Health check failed", "backend", name, "error", err)
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "checks": checks})
}
