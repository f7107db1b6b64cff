package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dipandhali2021/jims-sub002/internal/cascade"
	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/metrics"
	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProductHandler serves inventory items. Non-admin writes do not touch
// the products table directly; they become ProductRequests that an
// admin approves or rejects.
type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db}
}

// errDuplicateSKU marks a SKU uniqueness conflict.
var errDuplicateSKU = errors.New("duplicate sku")

// productPayload is the field set carried by create/update requests and
// stored as the JSON payload of a ProductRequest.
type productPayload struct {
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	Category          string `json:"category"`
	Price             int64  `json:"price"`      // paise
	CostPrice         int64  `json:"cost_price"` // paise
	Stock             int    `json:"stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	ImageURL          string `json:"image_url"`
}

type productReq struct {
	Name              string `json:"name" binding:"required,max=128"`
	SKU               string `json:"sku" binding:"required,max=64"`
	Category          string `json:"category" binding:"max=64"`
	Price             string `json:"price" binding:"required"`
	CostPrice         string `json:"cost_price" binding:"required"`
	Stock             int    `json:"stock" binding:"min=0"`
	LowStockThreshold int    `json:"low_stock_threshold" binding:"min=0"`
	ImageURL          string `json:"image_url" binding:"max=512"`
}

func (r *productReq) toPayload() (*productPayload, error) {
	price, err := util.ParseAmount(r.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price")
	}
	costPrice, err := util.ParseAmount(r.CostPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid cost price")
	}
	if price < 0 || costPrice < 0 {
		return nil, fmt.Errorf("prices must not be negative")
	}
	threshold := r.LowStockThreshold
	if threshold == 0 {
		threshold = 5
	}
	return &productPayload{
		Name:              strings.TrimSpace(r.Name),
		SKU:               strings.TrimSpace(r.SKU),
		Category:          r.Category,
		Price:             price,
		CostPrice:         costPrice,
		Stock:             r.Stock,
		LowStockThreshold: threshold,
		ImageURL:          r.ImageURL,
	}, nil
}

func productResp(p *models.Product) gin.H {
	return gin.H{
		"id":                  p.ID,
		"name":                p.Name,
		"sku":                 p.SKU,
		"category":            p.Category,
		"price":               p.Price,
		"price_display":       util.FormatAmount(p.Price),
		"cost_price":          p.CostPrice,
		"stock":               p.Stock,
		"low_stock_threshold": p.LowStockThreshold,
		"low_stock":           p.Stock <= p.LowStockThreshold,
		"image_url":           p.ImageURL,
		"created_by_id":       p.CreatedByID,
		"created_at":          p.CreatedAt,
	}
}

func productRequestResp(r *models.ProductRequest) gin.H {
	resp := gin.H{
		"id":              r.ID,
		"type":            r.Type,
		"product_id":      r.ProductID,
		"requested_by_id": r.RequestedByID,
		"is_approved":     r.IsApproved,
		"created_at":      r.CreatedAt,
	}
	if r.Payload != "" {
		resp["payload"] = json.RawMessage(r.Payload)
	}
	return resp
}

// List returns the whole inventory.
func (h *ProductHandler) List(c *gin.Context) {
	var products []models.Product
	if err := h.DB.Order("name ASC").Find(&products).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list products")
		return
	}

	items := make([]gin.H, 0, len(products))
	for i := range products {
		items = append(items, productResp(&products[i]))
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := idFromParam(c)
	if !ok {
		return
	}
	var p models.Product
	if err := h.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "product not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load product")
		}
		return
	}
	util.Success(c, util.Response{"product": productResp(&p)})
}

// Create inserts a product directly for admins; for everyone else it
// files a pending create request.
func (h *ProductHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	payload, err := req.toPayload()
	if err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if user.IsAdmin() {
		p, err := insertProduct(h.DB, payload, user.ID)
		if err != nil {
			if errors.Is(err, errDuplicateSKU) {
				util.Error(c, http.StatusConflict, "sku already exists")
				return
			}
			util.Error(c, http.StatusInternalServerError, "failed to create product")
			return
		}
		util.Success(c, util.Response{"product": productResp(p)})
		return
	}

	pr, err := fileProductRequest(h.DB, models.ProductReqCreate, nil, payload, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to file product request")
		return
	}
	util.Success(c, util.Response{"request": productRequestResp(pr)})
}

// Update applies directly for admins; files an update request otherwise.
func (h *ProductHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var existing models.Product
	if err := h.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "product not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load product")
		}
		return
	}

	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	payload, err := req.toPayload()
	if err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if user.IsAdmin() {
		if err := applyProductUpdate(h.DB, &existing, payload); err != nil {
			if errors.Is(err, errDuplicateSKU) {
				util.Error(c, http.StatusConflict, "sku already exists")
				return
			}
			util.Error(c, http.StatusInternalServerError, "failed to update product")
			return
		}
		util.Success(c, util.Response{"product": productResp(&existing)})
		return
	}

	pr, err := fileProductRequest(h.DB, models.ProductReqUpdate, &existing.ID, payload, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to file product request")
		return
	}
	util.Success(c, util.Response{"request": productRequestResp(pr)})
}

// Delete removes the product directly for admins; files a delete
// request otherwise. Either way the sales history keeps its denormalized
// product name and SKU.
func (h *ProductHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var p models.Product
	if err := h.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "product not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load product")
		}
		return
	}

	if user.IsAdmin() {
		if err := deleteProduct(h.DB, &p); err != nil {
			util.Error(c, http.StatusInternalServerError, "failed to delete product")
			return
		}
		util.Success(c, util.Response{"message": "product deleted"})
		return
	}

	pr, err := fileProductRequest(h.DB, models.ProductReqDelete, &p.ID, nil, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to file product request")
		return
	}
	util.Success(c, util.Response{"request": productRequestResp(pr)})
}

// ListRequests returns pending product requests (admin only).
func (h *ProductHandler) ListRequests(c *gin.Context) {
	var reqs []models.ProductRequest
	if err := h.DB.Where("is_approved = ?", false).
		Order("created_at ASC").
		Find(&reqs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list product requests")
		return
	}

	items := make([]gin.H, 0, len(reqs))
	for i := range reqs {
		items = append(items, productRequestResp(&reqs[i]))
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

// ApproveRequest decides a pending product request (admin only).
// Approval applies the payload to the inventory inside one transaction;
// rejection deletes the request row.
func (h *ProductHandler) ApproveRequest(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "approve field is required")
		return
	}

	var pr models.ProductRequest
	if err := h.DB.First(&pr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "product request not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load product request")
		}
		return
	}
	if pr.IsApproved {
		util.Error(c, http.StatusConflict, "product request already approved")
		return
	}

	if !*req.Approve {
		if err := h.DB.Delete(&pr).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "failed to reject product request")
			return
		}
		metrics.ApprovalsTotal.WithLabelValues("product_request", "rejected").Inc()
		util.Success(c, util.Response{"message": "product request rejected and removed"})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := applyProductRequest(tx, &pr); err != nil {
			return err
		}
		return tx.Model(&pr).Updates(map[string]interface{}{
			"is_approved":    true,
			"approved_by_id": user.ID,
		}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, errDuplicateSKU):
			util.Error(c, http.StatusConflict, "sku already exists")
		case errors.Is(err, ledger.ErrNotFound):
			util.Error(c, http.StatusNotFound, "target product no longer exists")
		default:
			util.Error(c, http.StatusInternalServerError, "failed to apply product request")
		}
		return
	}

	metrics.ApprovalsTotal.WithLabelValues("product_request", "approved").Inc()
	util.Success(c, util.Response{"request": productRequestResp(&pr)})
}

// ---------- inventory mutations ----------

func checkDuplicateSKU(db *gorm.DB, sku string, excludeID uint) error {
	var count int64
	q := db.Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errDuplicateSKU
	}
	return nil
}

func insertProduct(db *gorm.DB, payload *productPayload, ownerID uint) (*models.Product, error) {
	if err := checkDuplicateSKU(db, payload.SKU, 0); err != nil {
		return nil, err
	}
	p := models.Product{
		Name:              payload.Name,
		SKU:               payload.SKU,
		Category:          payload.Category,
		Price:             payload.Price,
		CostPrice:         payload.CostPrice,
		Stock:             payload.Stock,
		LowStockThreshold: payload.LowStockThreshold,
		ImageURL:          payload.ImageURL,
		CreatedByID:       ownerID,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func applyProductUpdate(db *gorm.DB, p *models.Product, payload *productPayload) error {
	if err := checkDuplicateSKU(db, payload.SKU, p.ID); err != nil {
		return err
	}
	p.Name = payload.Name
	p.SKU = payload.SKU
	p.Category = payload.Category
	p.Price = payload.Price
	p.CostPrice = payload.CostPrice
	p.Stock = payload.Stock
	p.LowStockThreshold = payload.LowStockThreshold
	p.ImageURL = payload.ImageURL
	return db.Save(p).Error
}

func deleteProduct(db *gorm.DB, p *models.Product) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := cascade.DetachSalesItems(tx, p); err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}

func fileProductRequest(db *gorm.DB, reqType string, productID *uint, payload *productPayload, requesterID uint) (*models.ProductRequest, error) {
	var payloadJSON string
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadJSON = string(raw)
	}
	pr := models.ProductRequest{
		Type:          reqType,
		ProductID:     productID,
		Payload:       payloadJSON,
		RequestedByID: requesterID,
	}
	if err := db.Create(&pr).Error; err != nil {
		return nil, err
	}
	return &pr, nil
}

// applyProductRequest mutates the inventory per the request payload.
// The request was filed by its requester; the product row it produces
// belongs to them too.
func applyProductRequest(tx *gorm.DB, pr *models.ProductRequest) error {
	switch pr.Type {
	case models.ProductReqCreate:
		var payload productPayload
		if err := json.Unmarshal([]byte(pr.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		p, err := insertProduct(tx, &payload, pr.RequestedByID)
		if err != nil {
			return err
		}
		pr.ProductID = &p.ID
		return tx.Model(pr).Update("product_id", p.ID).Error

	case models.ProductReqUpdate:
		if pr.ProductID == nil {
			return ledger.ErrNotFound
		}
		var p models.Product
		if err := tx.First(&p, *pr.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return err
		}
		var payload productPayload
		if err := json.Unmarshal([]byte(pr.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return applyProductUpdate(tx, &p, &payload)

	case models.ProductReqDelete:
		if pr.ProductID == nil {
			return ledger.ErrNotFound
		}
		var p models.Product
		if err := tx.First(&p, *pr.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return err
		}
		if err := cascade.DetachSalesItems(tx, &p); err != nil {
			return err
		}
		return tx.Delete(&p).Error
	}
	return fmt.Errorf("unknown request type %q", pr.Type)
}
