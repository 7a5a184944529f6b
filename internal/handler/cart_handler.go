package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tina-boutique/store-service/internal/cart"
	"github.com/tina-boutique/store-service/internal/service"
	"go.uber.org/zap"
)

const sessionCookie = "cart_session"

// Cookie lifetime only; the persisted cart has its own TTL.
const sessionCookieMaxAge = 60 * 60 * 24 * 30

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"   binding:"required,min=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartHandler serves one shopper's cart, identified by a session cookie.
// Quantities are not validated against live stock here; checkout is the
// authority.
type CartHandler struct {
	carts   *cart.Manager
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewCartHandler(carts *cart.Manager, catalog *service.CatalogService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		logger:  logger,
	}
}

// session returns the shopper's cart store, minting a session cookie on
// first contact.
func (h *CartHandler) session(c *gin.Context) *cart.Store {
	sessionID, err := c.Cookie(sessionCookie)
	if err != nil || sessionID == "" {
		sessionID = uuid.NewString()
		c.SetCookie(sessionCookie, sessionID, sessionCookieMaxAge, "/", "", false, true)
	}
	return h.carts.Get(c.Request.Context(), sessionID)
}

func (h *CartHandler) cartResponse(store *cart.Store) gin.H {
	return gin.H{
		"items":      store.Items(),
		"total":      store.Total(),
		"item_count": store.ItemCount(),
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartResponse(h.session(c)))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}

		h.logger.Error("Failed to load product for cart",
			zap.String("product_id", req.ProductID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to add item",
		})
		return
	}

	store := h.session(c)
	store.AddItem(product, req.Quantity, req.Size, req.Color)

	c.JSON(http.StatusOK, h.cartResponse(store))
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	store := h.session(c)
	store.UpdateQuantity(c.Param("id"), *req.Quantity)

	c.JSON(http.StatusOK, h.cartResponse(store))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	store := h.session(c)
	store.RemoveItem(c.Param("id"))

	c.JSON(http.StatusOK, h.cartResponse(store))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	store := h.session(c)
	store.Clear()

	c.JSON(http.StatusOK, h.cartResponse(store))
}
