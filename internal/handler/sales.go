package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SalesHandler serves customer sales. Product name, SKU and unit price
// are copied onto the items at creation time so the sale stays readable
// after the product changes or disappears.
type SalesHandler struct {
	DB *gorm.DB
}

func NewSalesHandler(db *gorm.DB) *SalesHandler {
	return &SalesHandler{DB: db}
}

var errSaleCompleted = errors.New("sale already completed")

type createSaleReq struct {
	CustomerName string `json:"customer_name" binding:"max=128"`
	Items        []struct {
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1"`
}

func salesItemResp(it *models.SalesItem) gin.H {
	return gin.H{
		"id":           it.ID,
		"product_id":   it.ProductID,
		"product_name": it.ProductName,
		"product_sku":  it.ProductSKU,
		"quantity":     it.Quantity,
		"unit_price":   it.UnitPrice,
	}
}

func saleResp(s *models.SalesRequest) gin.H {
	items := make([]gin.H, 0, len(s.Items))
	for i := range s.Items {
		items = append(items, salesItemResp(&s.Items[i]))
	}
	return gin.H{
		"id":            s.ID,
		"customer_name": s.CustomerName,
		"status":        s.Status,
		"total_amount":  s.TotalAmount,
		"total_display": util.FormatAmount(s.TotalAmount),
		"created_by_id": s.CreatedByID,
		"created_at":    s.CreatedAt,
		"items":         items,
	}
}

// List returns sales; admins see everything, users their own.
func (h *SalesHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	q := h.DB.Preload("Items").Order("created_at DESC")
	if !user.IsAdmin() {
		q = q.Where("created_by_id = ?", user.ID)
	}

	var sales []models.SalesRequest
	if err := q.Find(&sales).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list sales")
		return
	}

	items := make([]gin.H, 0, len(sales))
	for i := range sales {
		items = append(items, saleResp(&sales[i]))
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

func (h *SalesHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var sale models.SalesRequest
	if err := h.DB.Preload("Items").First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "sale not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load sale")
		}
		return
	}
	if sale.CreatedByID != user.ID && !user.IsAdmin() {
		util.Error(c, http.StatusNotFound, "sale not found")
		return
	}
	util.Success(c, util.Response{"sale": saleResp(&sale)})
}

// Create opens a pending sale, snapshotting product details per line.
func (h *SalesHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	var req createSaleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var sale models.SalesRequest
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		sale = models.SalesRequest{
			CustomerName: req.CustomerName,
			Status:       models.SaleStatusPending,
			CreatedByID:  user.ID,
		}

		var total int64
		for _, line := range req.Items {
			var p models.Product
			if err := tx.First(&p, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d not found", line.ProductID)
				}
				return err
			}
			if p.Stock < line.Quantity {
				return fmt.Errorf("not enough stock for %s", p.SKU)
			}
			pid := p.ID
			sale.Items = append(sale.Items, models.SalesItem{
				ProductID:   &pid,
				ProductName: p.Name,
				ProductSKU:  p.SKU,
				Quantity:    line.Quantity,
				UnitPrice:   p.Price,
			})
			total += p.Price * int64(line.Quantity)
		}
		sale.TotalAmount = total

		return tx.Create(&sale).Error
	})
	if err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	util.Success(c, util.Response{"sale": saleResp(&sale)})
}

// Complete closes a pending sale and deducts stock (admin only).
func (h *SalesHandler) Complete(c *gin.Context) {
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var sale models.SalesRequest
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&sale, id).Error; err != nil {
			return err
		}
		if sale.Status == models.SaleStatusCompleted {
			return errSaleCompleted
		}

		for i := range sale.Items {
			it := &sale.Items[i]
			if it.ProductID == nil {
				continue // product already gone, nothing to deduct
			}
			var p models.Product
			if err := tx.First(&p, *it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if p.Stock < it.Quantity {
				return fmt.Errorf("not enough stock for %s", p.SKU)
			}
			if err := tx.Model(&p).Update("stock", p.Stock-it.Quantity).Error; err != nil {
				return err
			}
		}

		return tx.Model(&sale).Update("status", models.SaleStatusCompleted).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "sale not found")
			return
		}
		if errors.Is(err, errSaleCompleted) {
			util.Error(c, http.StatusConflict, "sale already completed")
			return
		}
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	sale.Status = models.SaleStatusCompleted
	util.Success(c, util.Response{"sale": saleResp(&sale)})
}
