// controllers/checklist.go
package controllers

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"complylaw-api/config"
	"complylaw-api/models"
	"complylaw-api/services"
	"complylaw-api/utils"

	"github.com/gin-gonic/gin"
)

const maxEvidenceSize = int64(10 * 1024 * 1024) // 10MB per file

func checklistService() *services.ChecklistService {
	svc := services.NewChecklistService(config.DB)
	svc.RequireFullCompletion = os.Getenv("AUDIT_REQUIRE_FULL_COMPLETION") == "true"
	return svc
}

// firmScope pulls the caller's firm and user ids out of the auth context.
func firmScope(c *gin.Context) (firmID, userID int, ok bool) {
	firmVal, firmExists := c.Get("firmID")
	userVal, userExists := c.Get("userID")
	if !firmExists || !userExists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication context missing"})
		return 0, 0, false
	}
	return firmVal.(int), userVal.(int), true
}

// respondServiceError maps lifecycle errors onto HTTP statuses. Locked
// mutations are explicit 403 rejections, never silent no-ops.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "Submission is locked"})
	case errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid response status"})
	case errors.Is(err, services.ErrIncomplete):
		c.JSON(http.StatusConflict, gin.H{"error": "All responses must be answered before completion"})
	default:
		log.Printf("checklist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// OpenChecklist finds or creates the audit submission for a scan and returns
// the wizard data: ordered responses plus the current progress snapshot.
func OpenChecklist(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	scanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan id"})
		return
	}

	submission, responses, err := checklistService().OpenSubmission(scanID, firmID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
		"responses":  responses,
		"progress":   services.Completion(responses),
	})
}

// UpdateResponse changes a response's status and/or comment.
func UpdateResponse(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	responseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid response id"})
		return
	}

	type updateRequest struct {
		Status  *string `json:"status"`
		Comment *string `json:"comment"`
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == nil && req.Comment == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	response, err := checklistService().UpdateResponse(responseID, firmID, services.UpdateResponseInput{
		Status:  req.Status,
		Comment: req.Comment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": response,
	})
}

// UploadEvidence attaches one or more files to a response. The lock check
// runs before any byte hits disk and again when the row is written, so an
// upload racing a completion cannot land on a locked audit.
func UploadEvidence(c *gin.Context) {
	firmID, userID, ok := firmScope(c)
	if !ok {
		return
	}

	responseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid response id"})
		return
	}

	svc := checklistService()
	if _, err := svc.MutableResponse(responseID, firmID); err != nil {
		respondServiceError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	files := form.File["evidence"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	for _, file := range files {
		if file.Size > maxEvidenceSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
			return
		}
		if !isValidEvidenceType(file) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
			return
		}
	}

	now := time.Now()
	folder, err := utils.EvidenceFolder(now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare storage"})
		return
	}

	uploaded := make([]models.EvidenceFile, 0, len(files))
	for _, file := range files {
		storedName := utils.GenerateUniqueFilename(folder, file.Filename)
		storedPath := filepath.Join(folder, storedName)

		if err := c.SaveUploadedFile(file, storedPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

		hash, err := utils.SHA256File(storedPath)
		if err != nil {
			os.Remove(storedPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash file"})
			return
		}

		evidence := models.EvidenceFile{
			StoredPath: storedPath,
			Filename:   file.Filename,
			FileSize:   file.Size,
			MimeType:   file.Header.Get("Content-Type"),
			FileHash:   hash,
			UploadedBy: userID,
			UploadedAt: now,
		}
		saved, err := svc.AddEvidence(responseID, firmID, &evidence)
		if err != nil {
			// Drop the staged file if the record never made it.
			os.Remove(storedPath)
			respondServiceError(c, err)
			return
		}
		uploaded = append(uploaded, *saved)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Evidence uploaded successfully",
		"evidence": uploaded,
	})
}

// DeleteEvidence removes an evidence record and its stored file.
func DeleteEvidence(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	evidenceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid evidence id"})
		return
	}

	evidence, err := checklistService().RemoveEvidence(evidenceID, firmID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if evidence.StoredPath != "" {
		if err := os.Remove(evidence.StoredPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: failed to remove evidence file %s: %v", evidence.StoredPath, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Evidence deleted",
	})
}

// GetProgress returns the completion snapshot the wizard polls.
func GetProgress(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	responses, err := checklistService().ResponsesForSubmission(c.Param("id"), firmID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"progress": services.Completion(responses),
	})
}

// GetRoadmap returns the score, per-tier risk breakdown and progress for a
// submission. The weighted score and the unweighted tier percentages answer
// different questions and are returned side by side, never merged.
func GetRoadmap(c *gin.Context) {
	firmID, _, ok := firmScope(c)
	if !ok {
		return
	}

	submission, responses, err := checklistService().SubmissionWithResponses(c.Param("id"), firmID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"submission":     submission,
		"score":          services.ComputeScore(responses),
		"risk_breakdown": services.RiskBreakdown(responses),
		"progress":       services.Completion(responses),
	})
}

// CompleteAudit locks the submission. After this every response and evidence
// mutation is rejected; there is no unlock.
func CompleteAudit(c *gin.Context) {
	firmID, userID, ok := firmScope(c)
	if !ok {
		return
	}

	submission, err := checklistService().Complete(c.Param("id"), firmID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Audit completed. Your report is ready to generate.",
		"submission": submission,
	})
}

func isValidEvidenceType(file *multipart.FileHeader) bool {
	allowed := []string{
		"application/pdf",
		"image/jpeg",
		"image/jpg",
		"image/png",
		"text/plain",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	contentType := file.Header.Get("Content-Type")
	for _, t := range allowed {
		if contentType == t {
			return true
		}
	}
	return false
}
