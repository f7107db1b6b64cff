package handler

import (
	"net/http"

	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReportHandler serves the dashboard summary.
type ReportHandler struct {
	DB *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{DB: db}
}

// Summary aggregates stock value, low-stock products and outstanding
// khata balances per counterparty kind.
func (h *ReportHandler) Summary(c *gin.Context) {
	// inventory
	var products []models.Product
	if err := h.DB.Find(&products).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to load products")
		return
	}

	var stockValue, stockCost int64
	lowStock := make([]gin.H, 0)
	for i := range products {
		p := &products[i]
		stockValue += p.Price * int64(p.Stock)
		stockCost += p.CostPrice * int64(p.Stock)
		if p.Stock <= p.LowStockThreshold {
			lowStock = append(lowStock, gin.H{
				"id":    p.ID,
				"name":  p.Name,
				"sku":   p.SKU,
				"stock": p.Stock,
			})
		}
	}

	// outstanding balances, per kind
	outstanding := gin.H{}
	for _, kind := range []string{models.KindVyapari, models.KindKarigar} {
		var cps []models.Counterparty
		if err := h.DB.Where("kind = ? AND is_approved = ?", kind, true).
			Find(&cps).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "failed to load counterparties")
			return
		}
		var total int64
		for i := range cps {
			bal, err := ledger.ComputeBalance(h.DB, cps[i].ID)
			if err != nil {
				util.Error(c, http.StatusInternalServerError, "failed to compute balances")
				return
			}
			total += bal
		}
		outstanding[kind] = gin.H{
			"counterparties": len(cps),
			"total":          total,
			"total_display":  util.FormatAmount(total),
		}
	}

	// pending approvals
	var pendingCp, pendingTxn, pendingPay, pendingReq int64
	h.DB.Model(&models.Counterparty{}).Where("is_approved = ?", false).Count(&pendingCp)
	h.DB.Model(&models.LedgerTransaction{}).Where("is_approved = ?", false).Count(&pendingTxn)
	h.DB.Model(&models.Payment{}).Where("is_approved = ?", false).Count(&pendingPay)
	h.DB.Model(&models.ProductRequest{}).Where("is_approved = ?", false).Count(&pendingReq)

	util.Success(c, util.Response{
		"inventory": gin.H{
			"products":            len(products),
			"stock_value":         stockValue,
			"stock_value_display": util.FormatAmount(stockValue),
			"stock_cost":          stockCost,
			"low_stock":           lowStock,
		},
		"outstanding": outstanding,
		"pending": gin.H{
			"counterparties":   pendingCp,
			"transactions":     pendingTxn,
			"payments":         pendingPay,
			"product_requests": pendingReq,
		},
	})
}
