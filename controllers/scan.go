// controllers/scan.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"complylaw-api/config"
	"complylaw-api/models"
	"complylaw-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetScans lists the firm's scans, newest first.
func GetScans(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	var scans []models.ScanResult
	if err := config.DB.Where("firm_id = ?", firmID).
		Order("scan_date DESC").
		Find(&scans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch scans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"scans":   scans,
		"total":   len(scans),
	})
}

// GetScan returns one scan with its current status. The scan runner updates
// the row out of band; clients poll this endpoint.
func GetScan(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	scanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan id"})
		return
	}

	var scan models.ScanResult
	if err := config.DB.Where("scan_id = ? AND firm_id = ?", scanID, firmID).First(&scan).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"scan":    scan,
	})
}

// StartScan queues a new domain scan for the firm. Only one scan per
// (firm, domain) may be in flight at a time.
func StartScan(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	type startRequest struct {
		Domain string `json:"domain" binding:"required"`
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	domain := utils.NormalizeDomain(req.Domain)
	if !utils.ValidateDomain(domain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain format"})
		return
	}

	inFlight, err := hasInFlightScan(firmID, domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check running scans"})
		return
	}
	if inFlight {
		c.JSON(http.StatusConflict, gin.H{"error": "A scan for this domain is already in progress"})
		return
	}

	scan, err := queueScan(firmID, domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create scan"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Scan queued",
		"scan":    scan,
	})
}

// CancelScan stops a queued or running scan. Scans that already finished
// cannot be cancelled.
func CancelScan(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	scanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan id"})
		return
	}

	var scan models.ScanResult
	if err := config.DB.Where("scan_id = ? AND firm_id = ?", scanID, firmID).First(&scan).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}
	if !scan.IsInFlight() {
		c.JSON(http.StatusConflict, gin.H{"error": "Scan is not in progress"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&scan).Updates(map[string]interface{}{
		"status":    models.ScanStatusCancelled,
		"update_at": now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel scan"})
		return
	}
	scan.Status = models.ScanStatusCancelled
	scan.UpdateAt = &now

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scan cancelled",
		"scan":    scan,
	})
}

// RetryScan queues a fresh scan for the same domain as a failed or cancelled
// one. The original row stays for history.
func RetryScan(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	scanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan id"})
		return
	}

	var scan models.ScanResult
	if err := config.DB.Where("scan_id = ? AND firm_id = ?", scanID, firmID).First(&scan).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}
	if !scan.CanRetry() {
		c.JSON(http.StatusConflict, gin.H{"error": "Only failed or cancelled scans can be retried"})
		return
	}

	inFlight, err := hasInFlightScan(firmID, scan.Domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check running scans"})
		return
	}
	if inFlight {
		c.JSON(http.StatusConflict, gin.H{"error": "A scan for this domain is already in progress"})
		return
	}

	retry, err := queueScan(firmID, scan.Domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create scan"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Scan queued",
		"scan":    retry,
	})
}

// hasInFlightScan reports whether the firm already has a PENDING or RUNNING
// scan for the domain.
func hasInFlightScan(firmID int, domain string) (bool, error) {
	var count int64
	err := config.DB.Model(&models.ScanResult{}).
		Where("firm_id = ? AND domain = ? AND status IN ?", firmID, domain,
			[]string{models.ScanStatusPending, models.ScanStatusRunning}).
		Count(&count).Error
	return count > 0, err
}

func queueScan(firmID int, domain string) (*models.ScanResult, error) {
	now := time.Now()
	scan := models.ScanResult{
		ScanRef:  uuid.NewString()[:8],
		FirmID:   firmID,
		Domain:   domain,
		Status:   models.ScanStatusPending,
		ScanDate: now,
		CreateAt: &now,
		UpdateAt: &now,
	}
	if err := config.DB.Create(&scan).Error; err != nil {
		return nil, err
	}
	return &scan, nil
}
