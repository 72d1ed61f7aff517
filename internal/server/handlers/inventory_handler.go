package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/domain/models"
	"github.com/mamadbah2/stocklive/internal/service/ledger"
)

// LedgerService is the ledger surface the HTTP adapter depends on.
type LedgerService interface {
	Adjust(ctx context.Context, req ledger.AdjustRequest) (*ledger.AdjustResult, error)
	GetRecord(ctx context.Context, key models.InventoryKey) (*models.InventoryRecord, error)
	Movements(ctx context.Context, key models.InventoryKey, limit int64) ([]models.MovementEntry, error)
}

// InventoryHandler exposes the stock ledger over HTTP.
type InventoryHandler struct {
	svc    LedgerService
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc LedgerService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

type adjustPayload struct {
	WarehouseID  string `json:"warehouseId" binding:"required"`
	ProductID    string `json:"productId" binding:"required"`
	VariantID    string `json:"variantId"`
	UomID        string `json:"uomId"`
	Quantity     int64  `json:"quantity"`
	MovementType string `json:"movementType" binding:"required"`
	Version      int64  `json:"version" binding:"required"`
	Source       string `json:"source"`
	Reason       string `json:"reason"`
	Notes        string `json:"notes"`
	PerformedBy  string `json:"performedBy"`
	Rack         string `json:"rack"`
	Bin          string `json:"bin"`
	Zone         string `json:"zone"`
	Aisle        string `json:"aisle"`
}

// Adjust applies a stock mutation.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var payload adjustPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid adjustment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req := ledger.AdjustRequest{
		Key: models.InventoryKey{
			ProductID:   payload.ProductID,
			WarehouseID: payload.WarehouseID,
			VariantID:   payload.VariantID,
			UomID:       payload.UomID,
		},
		Quantity:        payload.Quantity,
		MovementType:    models.MovementType(payload.MovementType),
		ExpectedVersion: payload.Version,
		Source:          models.Source(payload.Source),
		Location: models.Location{
			Rack:  payload.Rack,
			Bin:   payload.Bin,
			Zone:  payload.Zone,
			Aisle: payload.Aisle,
		},
		Reason:      payload.Reason,
		Notes:       payload.Notes,
		PerformedBy: payload.PerformedBy,
	}

	result, err := h.svc.Adjust(c.Request.Context(), req)
	if err != nil {
		h.respondAdjustError(c, err)
		return
	}

	if result.Created {
		c.JSON(http.StatusCreated, result.Record)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inventory":        result.Record,
		"previousQuantity": result.PreviousQuantity,
		"newQuantity":      result.NewQuantity,
		"movement":         result.Movement,
	})
}

func (h *InventoryHandler) respondAdjustError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var stockErr *models.InsufficientStockError
	var versionErr *models.VersionMismatchError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.Is(err, models.ErrInvalidMovementType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "movementType must be one of in, out, adjustment"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":      "INSUFFICIENT_STOCK",
			"error":     stockErr.Error(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.As(err, &versionErr):
		c.JSON(http.StatusConflict, gin.H{
			"code":            "VERSION_MISMATCH",
			"error":           versionErr.Error(),
			"currentVersion":  versionErr.Current,
			"providedVersion": versionErr.Provided,
		})
	case errors.Is(err, models.ErrRetriesExhausted):
		c.JSON(http.StatusConflict, gin.H{
			"code":  "OPTIMISTIC_LOCK_FAILURE",
			"error": "concurrent writes exhausted retries, refetch and retry",
		})
	default:
		h.logger.Error("adjustment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func keyFromRequest(c *gin.Context) models.InventoryKey {
	return models.InventoryKey{
		WarehouseID: c.Param("warehouseId"),
		ProductID:   c.Param("productId"),
		VariantID:   c.Query("variantId"),
		UomID:       c.Query("uomId"),
	}
}

// Get returns the current record for a composite key.
func (h *InventoryHandler) Get(c *gin.Context) {
	record, err := h.svc.GetRecord(c.Request.Context(), keyFromRequest(c))
	if errors.Is(err, models.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "inventory record not found"})
		return
	}
	if err != nil {
		h.logger.Error("inventory read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Movements returns recent journal entries for a composite key.
func (h *InventoryHandler) Movements(c *gin.Context) {
	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.svc.Movements(c.Request.Context(), keyFromRequest(c), limit)
	if err != nil {
		h.logger.Error("movement read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if entries == nil {
		entries = []models.MovementEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"movements": entries})
}
