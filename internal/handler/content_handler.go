package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tina-boutique/store-service/internal/domain"
	"github.com/tina-boutique/store-service/internal/service"
	"go.uber.org/zap"
)

// ContentHandler covers the dashboard's category and hero screens.
type ContentHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewContentHandler(catalog *service.CatalogService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		catalog: catalog,
		logger:  logger,
	}
}

func (h *ContentHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list categories",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *ContentHandler) CreateCategory(c *gin.Context) {
	var req domain.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create category", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create category",
		})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *ContentHandler) DeleteCategory(c *gin.Context) {
	categoryID := c.Param("id")

	if err := h.catalog.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Category not found",
			})
		case errors.Is(err, service.ErrCategoryInUse):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Category still has products associated with it",
			})
		default:
			h.logger.Error("Failed to delete category",
				zap.String("category_id", categoryID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete category",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) GetHero(c *gin.Context) {
	hero, err := h.catalog.GetHero(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrHeroNotConfigured) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Hero section not configured",
			})
			return
		}

		h.logger.Error("Failed to get hero settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get hero settings",
		})
		return
	}

	c.JSON(http.StatusOK, hero)
}

func (h *ContentHandler) SaveHero(c *gin.Context) {
	var hero domain.HeroData
	if err := c.ShouldBindJSON(&hero); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.catalog.SaveHero(c.Request.Context(), &hero); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save hero settings",
		})
		return
	}

	c.JSON(http.StatusOK, hero)
}
