package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aswaq/aswaq-backend/internal/apierrors"
	"github.com/aswaq/aswaq-backend/internal/catalog"
	"github.com/aswaq/aswaq-backend/internal/config"
	"github.com/aswaq/aswaq-backend/internal/models"
	"github.com/aswaq/aswaq-backend/internal/storage"
	"github.com/aswaq/aswaq-backend/internal/users"
	"github.com/aswaq/aswaq-backend/pkg/logger"
	"github.com/aswaq/aswaq-backend/pkg/middleware"
)

const maxImageSize = 5 << 20 // 5 MiB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// CatalogHandler exposes the shop CRUD behind the auth layer: reads are
// public, mutations require an admin, orders require any authenticated user.
type CatalogHandler struct {
	cfg      *config.Config
	store    *catalog.Store
	images   *storage.ImageStore
	usersSvc *users.Service
}

func NewCatalogHandler(cfg *config.Config, s *catalog.Store, img *storage.ImageStore, u *users.Service) *CatalogHandler {
	return &CatalogHandler{cfg: cfg, store: s, images: img, usersSvc: u}
}

func (h *CatalogHandler) Register(r *gin.Engine) {
	secret := h.cfg.JWT.Secret
	authed := middleware.VerifyToken(secret, h.usersSvc)
	admin := middleware.RequireRole(models.RoleAdmin)

	g := r.Group("/api/ecommerce")
	g.GET("/products", h.ListProducts)
	g.GET("/products/:id", h.GetProduct)
	g.POST("/products", authed, admin, h.CreateProduct)
	g.PUT("/products/:id", authed, admin, h.UpdateProduct)
	g.DELETE("/products/:id", authed, admin, h.DeleteProduct)

	g.GET("/categories", h.ListCategories)
	g.POST("/categories", authed, admin, h.CreateCategory)
	g.DELETE("/categories/:id", authed, admin, h.DeleteCategory)

	g.POST("/orders", authed, h.CreateOrder)
	g.GET("/orders", authed, h.ListOrders)
	g.PATCH("/orders/:id/status", authed, admin, h.UpdateOrderStatus)

	g.POST("/upload", authed, admin, h.UploadImage)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	items, err := h.store.ListProducts(c.Request.Context(), c.Query("category"), page, limit)
	if err != nil {
		logger.Errorf("list products: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.store.GetProduct(c.Request.Context(), c.Param("id"))
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "product not found"})
		return
	}
	if err != nil {
		logger.Errorf("get product: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

type productRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       float64  `json:"price" binding:"required,gte=0"`
	Category    string   `json:"category" binding:"required"`
	Stock       int      `json:"stock" binding:"gte=0"`
	Images      []string `json:"images"`
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	catID, err := primitive.ObjectIDFromHex(req.Category)
	if err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, "invalid category id")
		return
	}
	p, err := h.store.CreateProduct(c.Request.Context(), &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    catID,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		logger.Errorf("create product: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": p})
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	set := bson.M{}
	for _, k := range []string{"name", "description", "price", "stock", "images"} {
		if v, ok := req[k]; ok {
			set[k] = v
		}
	}
	if len(set) == 0 {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, "no updatable fields provided")
		return
	}
	p, err := h.store.UpdateProduct(c.Request.Context(), c.Param("id"), set)
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "product not found"})
		return
	}
	if err != nil {
		logger.Errorf("update product: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	err := h.store.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "product not found"})
		return
	}
	if err != nil {
		logger.Errorf("delete product: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	items, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		logger.Errorf("list categories: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

type categoryRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	ParentCategory string `json:"parentCategory"`
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	cat := &models.Category{Name: req.Name, Description: req.Description}
	if req.ParentCategory != "" {
		pid, err := primitive.ObjectIDFromHex(req.ParentCategory)
		if err != nil {
			apierrors.JSONMsg(c, apierrors.ValidationFailed, "invalid parent category id")
			return
		}
		cat.ParentCategory = pid
	}
	created, err := h.store.CreateCategory(c.Request.Context(), cat)
	if err != nil {
		logger.Errorf("create category: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	err := h.store.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "category not found"})
		return
	}
	if err != nil {
		logger.Errorf("delete category: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type orderRequest struct {
	Products []struct {
		Product  string `json:"product" binding:"required"`
		Quantity int    `json:"quantity" binding:"required,gte=1"`
	} `json:"products" binding:"required,min=1"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
}

func (h *CatalogHandler) CreateOrder(c *gin.Context) {
	u := middleware.UserFromContext(c)
	if u == nil {
		apierrors.JSON(c, apierrors.UserNotFound)
		return
	}
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	items := make([]models.OrderItem, 0, len(req.Products))
	for _, it := range req.Products {
		pid, err := primitive.ObjectIDFromHex(it.Product)
		if err != nil {
			apierrors.JSONMsg(c, apierrors.ValidationFailed, "invalid product id")
			return
		}
		items = append(items, models.OrderItem{Product: pid, Quantity: it.Quantity})
	}
	o, err := h.store.CreateOrder(c.Request.Context(), u.ID, items, req.ShippingAddress, req.PaymentMethod)
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "product not found"})
		return
	}
	if err != nil {
		logger.Errorf("create order: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": o})
}

func (h *CatalogHandler) ListOrders(c *gin.Context) {
	u := middleware.UserFromContext(c)
	if u == nil {
		apierrors.JSON(c, apierrors.UserNotFound)
		return
	}
	orders, err := h.store.ListOrdersByUser(c.Request.Context(), u.ID)
	if err != nil {
		logger.Errorf("list orders: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (h *CatalogHandler) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	o, err := h.store.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "order not found"})
		return
	}
	if err != nil {
		logger.Errorf("update order status: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": o})
}

// UploadImage stores a product image and returns a presigned URL the client
// can attach to a product.
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "image storage not configured"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, "no file provided")
		return
	}
	if file.Size > maxImageSize {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, "file exceeds 5MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, "unsupported file type")
		return
	}
	f, err := file.Open()
	if err != nil {
		logger.Errorf("open upload: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	defer f.Close()
	key, err := h.images.UploadImage(c.Request.Context(), f, file.Size, contentType)
	if err != nil {
		logger.Errorf("image upload: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	url, err := h.images.URL(c.Request.Context(), key, 7*24*time.Hour)
	if err != nil {
		logger.Errorf("image presign: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"key": key, "url": url}})
}
