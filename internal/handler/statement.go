package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// StatementHandler exports a counterparty's khata as CSV or XLSX.
// Visibility rules are identical to the ledger endpoints.
type StatementHandler struct {
	DB *gorm.DB
	CP *CounterpartyHandler
}

func NewStatementHandler(db *gorm.DB) *StatementHandler {
	return &StatementHandler{DB: db, CP: NewCounterpartyHandler(db)}
}

// statementRow is one dated line of the khata: either a transaction or
// a payment.
type statementRow struct {
	Date     time.Time
	DocID    string
	Kind     string // transaction / payment
	Detail   string
	Amount   int64
	Approved bool
}

func (h *StatementHandler) loadRows(c *gin.Context) (*models.Counterparty, []statementRow, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return nil, nil, false
	}
	cp, err := h.CP.load(c, user)
	if err != nil {
		h.CP.respondLoadError(c, err)
		return nil, nil, false
	}

	var txns []models.LedgerTransaction
	if err := h.DB.Where("counterparty_id = ?", cp.ID).Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to load transactions")
		return nil, nil, false
	}
	var pays []models.Payment
	if err := h.DB.Where("counterparty_id = ?", cp.ID).Find(&pays).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to load payments")
		return nil, nil, false
	}

	rows := make([]statementRow, 0, len(txns)+len(pays))
	for _, t := range txns {
		rows = append(rows, statementRow{
			Date: t.CreatedAt, DocID: t.TransactionID, Kind: "transaction",
			Detail: t.Description, Amount: t.Amount, Approved: t.IsApproved,
		})
	}
	for _, p := range pays {
		rows = append(rows, statementRow{
			Date: p.CreatedAt, DocID: p.PaymentID, Kind: "payment",
			Detail: p.PaymentMode + " " + p.ReferenceNumber, Amount: p.Amount, Approved: p.IsApproved,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return cp, rows, true
}

var statementHeaders = []string{"Date", "Document", "Type", "Detail", "Amount (₹)", "Approved"}

func statementRecord(r *statementRow) []string {
	approved := "no"
	if r.Approved {
		approved = "yes"
	}
	return []string{
		r.Date.Format("2006-01-02"),
		r.DocID,
		r.Kind,
		r.Detail,
		util.FormatAmount(r.Amount),
		approved,
	}
}

// ExportCSV streams the khata as CSV.
func (h *StatementHandler) ExportCSV(c *gin.Context) {
	cp, rows, ok := h.loadRows(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"khata_%s_%d_%s.csv\"",
		cp.Kind, cp.ID, time.Now().Format("20060102")))

	w := csv.NewWriter(c.Writer)
	_ = w.Write(statementHeaders)
	for i := range rows {
		_ = w.Write(statementRecord(&rows[i]))
	}
	w.Flush()
}

// ExportXLSX streams the khata as a spreadsheet, with a closing balance
// row computed the same way as the balance endpoint.
func (h *StatementHandler) ExportXLSX(c *gin.Context) {
	cp, rows, ok := h.loadRows(c)
	if !ok {
		return
	}

	balance, err := ledger.ComputeBalance(h.DB, cp.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	f := excelize.NewFile()
	sheetName := "Khata"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, hdr := range statementHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, hdr)
	}

	for idx := range rows {
		rec := statementRecord(&rows[idx])
		rowNum := idx + 2
		for col, val := range rec {
			cell := fmt.Sprintf("%c%d", 'A'+col, rowNum)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	closing := len(rows) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", closing), "Closing balance")
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", closing), util.FormatAmount(balance))

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 30)
	f.SetColWidth(sheetName, "E", "F", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"khata_%s_%d_%s.xlsx\"",
		cp.Kind, cp.ID, time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to write spreadsheet")
	}
}
