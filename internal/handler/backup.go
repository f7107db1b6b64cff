package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler writes encrypted snapshots of the business data.
// Admin only; the configured encryption key protects files at rest.
type BackupHandler struct {
	DB         *gorm.DB
	EncryptKey string
	BackupDir  string
}

func NewBackupHandler(db *gorm.DB, encryptKey, backupDir string) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
	}
}

// backupData is the snapshot file content: the full khata plus
// inventory and sales history.
type backupData struct {
	Created        time.Time                  `json:"created"`
	Counterparties []models.Counterparty      `json:"counterparties"`
	Transactions   []models.LedgerTransaction `json:"transactions"`
	Payments       []models.Payment           `json:"payments"`
	Products       []models.Product           `json:"products"`
	Sales          []models.SalesRequest      `json:"sales"`
}

// Create snapshots the database into an encrypted file.
func (h *BackupHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	data := backupData{Created: time.Now()}
	if err := h.DB.Find(&data.Counterparties).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to read counterparties")
		return
	}
	if err := h.DB.Find(&data.Transactions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to read transactions")
		return
	}
	if err := h.DB.Find(&data.Payments).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to read payments")
		return
	}
	if err := h.DB.Find(&data.Products).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to read products")
		return
	}
	if err := h.DB.Preload("Items").Find(&data.Sales).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to read sales")
		return
	}

	raw, err := json.MarshalIndent(&data, "", "  ")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to serialize backup")
		return
	}

	enc, err := util.EncryptAES(h.EncryptKey, raw)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to encrypt backup")
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to create backup dir")
		return
	}

	fileName := fmt.Sprintf("backup-%s.bin", uuid.New().String())
	filePath := filepath.Join(h.BackupDir, fileName)

	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to write backup file")
		return
	}

	info, _ := os.Stat(filePath)

	backup := models.Backup{
		FileName:    fileName,
		FilePath:    filePath,
		Size:        info.Size(),
		CreatedByID: user.ID,
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		util.Error(c, http.StatusInternalServerError, "failed to record backup")
		return
	}

	util.Success(c, util.Response{
		"backup": gin.H{
			"id":         backup.ID,
			"file_name":  backup.FileName,
			"size":       backup.Size,
			"created_at": backup.CreatedAt,
		},
	})
}

// List returns backups, newest first.
func (h *BackupHandler) List(c *gin.Context) {
	var backups []models.Backup
	if err := h.DB.Order("created_at DESC").Find(&backups).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list backups")
		return
	}

	items := make([]gin.H, 0, len(backups))
	for _, b := range backups {
		items = append(items, gin.H{
			"id":         b.ID,
			"file_name":  b.FileName,
			"size":       b.Size,
			"created_at": b.CreatedAt,
		})
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

// Download streams the decrypted snapshot back as JSON.
func (h *BackupHandler) Download(c *gin.Context) {
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var backup models.Backup
	if err := h.DB.First(&backup, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load backup")
		}
		return
	}

	enc, err := os.ReadFile(backup.FilePath)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to read backup file")
		return
	}
	raw, err := util.DecryptAES(h.EncryptKey, enc)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to decrypt backup")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", backup.FileName))
	c.Data(http.StatusOK, "application/json", raw)
}

// Delete removes a backup record and its file.
func (h *BackupHandler) Delete(c *gin.Context) {
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var backup models.Backup
	if err := h.DB.First(&backup, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load backup")
		}
		return
	}

	if err := h.DB.Delete(&backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to delete backup")
		return
	}
	_ = os.Remove(backup.FilePath)

	util.Success(c, util.Response{"message": "backup deleted"})
}
