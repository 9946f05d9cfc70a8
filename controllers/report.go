// controllers/report.go
package controllers

import (
	"io"
	"net/http"

	"complylaw-api/config"
	"complylaw-api/services"

	"github.com/gin-gonic/gin"
)

const maxReportSize = int64(25 * 1024 * 1024)

func reportService() *services.ReportService {
	return services.NewReportService(config.DB, checklistService())
}

// GetReportData returns the renderer input for a submission: the submission,
// ordered responses, weighted score and risk breakdown. The PDF renderer
// consumes this payload; layout is not this API's concern.
func GetReportData(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	payload, err := reportService().BuildPayload(c.Param("id"), firmID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  payload,
	})
}

// RegisterReport accepts the rendered report bytes, stores their sha256 and
// returns the verification record. The renderer calls this once per
// generated PDF so the hash can be checked later.
func RegisterReport(c *gin.Context) {
	firmID, userID, ok := firmScope(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxReportSize+1))
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Report body is required"})
		return
	}
	if int64(len(body)) > maxReportSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Report exceeds size limit"})
		return
	}

	verification, err := reportService().RecordVerification(c.Param("id"), firmID, userID, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": verification,
	})
}

// VerifyReport checks a report hash against the stored verifications. This
// endpoint is public: anyone holding a report copy can confirm the system
// produced it.
func VerifyReport(c *gin.Context) {
	hash := c.Param("hash")
	if len(hash) != 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report hash"})
		return
	}

	verification, err := reportService().Verify(hash)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verified":     true,
		"verification": verification,
	})
}
