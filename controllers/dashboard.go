package controllers

import (
	"net/http"
	"strconv"

	"complylaw-api/config"
	"complylaw-api/models"
	"complylaw-api/services"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats returns the firm's home view: recent scans, unread
// alerts and the latest audit score (recomputed, never cached).
func GetDashboardStats(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	stats := make(map[string]interface{})

	var recentScans []models.ScanResult
	if err := config.DB.Where("firm_id = ?", firmID).
		Order("scan_date DESC").
		Limit(5).
		Find(&recentScans).Error; err == nil {
		stats["recent_scans"] = recentScans
	}

	var totalScans int64
	config.DB.Model(&models.ScanResult{}).Where("firm_id = ?", firmID).Count(&totalScans)
	stats["total_scans"] = totalScans

	var unreadAlerts int64
	config.DB.Model(&models.Alert{}).Where("firm_id = ? AND `read` = ?", firmID, false).Count(&unreadAlerts)
	stats["unread_alerts"] = unreadAlerts

	// Latest audit: most recent submission with its recomputed score.
	var latest models.ChecklistSubmission
	if err := config.DB.Where("firm_id = ?", firmID).
		Order("created_at DESC").
		First(&latest).Error; err == nil {
		svc := checklistService()
		if responses, err := svc.ResponsesForSubmission(latest.SubmissionID, firmID); err == nil {
			stats["latest_audit"] = gin.H{
				"submission_id": latest.SubmissionID,
				"status":        latest.Status,
				"is_locked":     latest.IsLocked,
				"score":         services.ComputeScore(responses),
				"progress":      services.Completion(responses),
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// GetAlerts lists the firm's alerts, newest first.
func GetAlerts(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	var alerts []models.Alert
	if err := config.DB.Where("firm_id = ?", firmID).
		Order("create_at DESC").
		Find(&alerts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"alerts":  alerts,
		"total":   len(alerts),
	})
}

// MarkAlertRead marks one of the firm's alerts as read.
func MarkAlertRead(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	alertID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert id"})
		return
	}

	var alert models.Alert
	if err := config.DB.Where("alert_id = ? AND firm_id = ?", alertID, firmID).First(&alert).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	if err := config.DB.Model(&alert).Update("read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
