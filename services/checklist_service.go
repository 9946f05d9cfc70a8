package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"complylaw-api/config"
	"complylaw-api/models"
	"complylaw-api/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChecklistService owns the audit submission lifecycle: lazy creation from a
// scan, response/evidence mutation while unlocked, and the one-way completion
// transition. Scores and progress are never persisted; callers fetch the
// responses once and run the pure computations in scoring.go over them.
type ChecklistService struct {
	db *gorm.DB

	// RequireFullCompletion refuses Complete() below 100% progress.
	// The default allows early sign-off on a partially answered audit.
	RequireFullCompletion bool
}

func NewChecklistService(db *gorm.DB) *ChecklistService {
	return &ChecklistService{db: db}
}

// OpenSubmission finds or lazily creates the submission for a scan and
// returns it with its ordered responses. On first creation one pending
// response is materialized per active catalog template. Safe under
// concurrent first access: the scan_id unique index collapses duplicate
// submissions and the (submission, template) unique index collapses
// duplicate responses, so two racing opens converge on the same rows.
func (s *ChecklistService) OpenSubmission(scanID, firmID int) (*models.ChecklistSubmission, []models.ChecklistResponse, error) {
	var scan models.ScanResult
	if err := s.db.Where("scan_id = ? AND firm_id = ?", scanID, firmID).First(&scan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("scan %d: %w", scanID, ErrNotFound)
		}
		return nil, nil, err
	}

	submission, created, err := s.getOrCreateSubmission(&scan)
	if err != nil {
		return nil, nil, err
	}

	if created {
		if err := s.materializeResponses(submission); err != nil {
			return nil, nil, err
		}
	}

	responses, err := s.responsesFor(submission.SubmissionID)
	if err != nil {
		return nil, nil, err
	}
	return submission, responses, nil
}

func (s *ChecklistService) getOrCreateSubmission(scan *models.ScanResult) (*models.ChecklistSubmission, bool, error) {
	var submission models.ChecklistSubmission
	err := s.db.Where("scan_id = ?", scan.ScanID).First(&submission).Error
	if err == nil {
		return &submission, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	submission = models.ChecklistSubmission{
		SubmissionID: uuid.NewString(),
		ScanID:       scan.ScanID,
		FirmID:       scan.FirmID,
		Status:       models.SubmissionStatusDraft,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(&submission).Error; err != nil {
		// Lost the creation race: the other request's row won on the
		// scan_id unique index, so read it back.
		var existing models.ChecklistSubmission
		if ferr := s.db.Where("scan_id = ?", scan.ScanID).First(&existing).Error; ferr == nil {
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create submission for scan %d: %w", scan.ScanID, err)
	}
	return &submission, true, nil
}

func (s *ChecklistService) materializeResponses(submission *models.ChecklistSubmission) error {
	templates, err := GetActiveTemplates()
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return nil
	}

	responses := make([]models.ChecklistResponse, 0, len(templates))
	for _, tpl := range templates {
		responses = append(responses, models.ChecklistResponse{
			SubmissionID: submission.SubmissionID,
			TemplateID:   tpl.TemplateID,
			Status:       models.ResponseStatusPending,
		})
	}

	// DoNothing rides the (submission, template) unique index, so a
	// concurrent open that already inserted some rows is harmless.
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&responses).Error; err != nil {
		return fmt.Errorf("failed to materialize responses: %w", err)
	}
	return nil
}

// GetSubmission returns a firm's submission by id.
func (s *ChecklistService) GetSubmission(submissionID string, firmID int) (*models.ChecklistSubmission, error) {
	var submission models.ChecklistSubmission
	if err := s.db.Where("submission_id = ? AND firm_id = ?", submissionID, firmID).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}
	return &submission, nil
}

// SubmissionWithResponses loads a firm's submission together with its
// ordered responses. The submission row is read once; callers that need
// both must not pair GetSubmission with ResponsesForSubmission, which would
// load it twice.
func (s *ChecklistService) SubmissionWithResponses(submissionID string, firmID int) (*models.ChecklistSubmission, []models.ChecklistResponse, error) {
	submission, err := s.GetSubmission(submissionID, firmID)
	if err != nil {
		return nil, nil, err
	}
	responses, err := s.responsesFor(submissionID)
	if err != nil {
		return nil, nil, err
	}
	return submission, responses, nil
}

// ResponsesForSubmission returns the submission's responses in wizard order
// with templates and evidence preloaded. Fetch once per computation; score,
// breakdown and progress all run off the same slice.
func (s *ChecklistService) ResponsesForSubmission(submissionID string, firmID int) ([]models.ChecklistResponse, error) {
	if _, err := s.GetSubmission(submissionID, firmID); err != nil {
		return nil, err
	}
	return s.responsesFor(submissionID)
}

func (s *ChecklistService) responsesFor(submissionID string) ([]models.ChecklistResponse, error) {
	var responses []models.ChecklistResponse
	err := s.db.
		Select("checklist_responses.*").
		Joins("JOIN checklist_templates ON checklist_templates.template_id = checklist_responses.template_id").
		Where("checklist_responses.submission_id = ?", submissionID).
		Order("checklist_templates.standard, checklist_templates.code").
		Preload("Template").
		Preload("Evidence").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	return responses, nil
}

// UpdateResponseInput carries the optional fields of a response update. Nil
// means leave the field alone.
type UpdateResponseInput struct {
	Status  *string
	Comment *string
}

// UpdateResponse changes a response's status and/or comment. Fails with
// ErrLocked once the owning submission is completed and ErrInvalidStatus for
// anything outside the five accepted statuses.
func (s *ChecklistService) UpdateResponse(responseID, firmID int, input UpdateResponseInput) (*models.ChecklistResponse, error) {
	response, err := s.mutableResponse(responseID, firmID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Status != nil {
		if !models.IsValidResponseStatus(*input.Status) {
			return nil, fmt.Errorf("status %q: %w", *input.Status, ErrInvalidStatus)
		}
		updates["status"] = *input.Status
	}
	if input.Comment != nil {
		updates["comment"] = *input.Comment
	}
	if len(updates) == 0 {
		return response, nil
	}

	if err := s.db.Model(response).Omit(clause.Associations).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update response %d: %w", responseID, err)
	}
	if input.Status != nil {
		response.Status = *input.Status
	}
	if input.Comment != nil {
		response.Comment = *input.Comment
	}
	return response, nil
}

// mutableResponse loads a response and enforces the firm + lock guards that
// every mutation path shares.
func (s *ChecklistService) mutableResponse(responseID, firmID int) (*models.ChecklistResponse, error) {
	var response models.ChecklistResponse
	if err := s.db.Preload("Submission").Preload("Template").First(&response, responseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("response %d: %w", responseID, ErrNotFound)
		}
		return nil, err
	}
	if response.Submission.FirmID != firmID {
		return nil, fmt.Errorf("response %d: %w", responseID, ErrNotFound)
	}
	if err := EnsureMutable(&response.Submission); err != nil {
		return nil, err
	}
	return &response, nil
}

// EnsureMutable rejects any write against a locked submission.
func EnsureMutable(submission *models.ChecklistSubmission) error {
	if submission.IsLocked {
		return fmt.Errorf("submission %s: %w", submission.SubmissionID, ErrLocked)
	}
	return nil
}

// MutableResponse exposes the shared guard to the evidence upload path,
// which has to stage the file on disk before the row exists.
func (s *ChecklistService) MutableResponse(responseID, firmID int) (*models.ChecklistResponse, error) {
	return s.mutableResponse(responseID, firmID)
}

// AddEvidence attaches an already-stored file to a response. The lock and
// ownership guards are re-checked so a completion racing the upload cannot
// slip an attachment onto a locked audit.
func (s *ChecklistService) AddEvidence(responseID, firmID int, evidence *models.EvidenceFile) (*models.EvidenceFile, error) {
	response, err := s.mutableResponse(responseID, firmID)
	if err != nil {
		return nil, err
	}

	evidence.ResponseID = response.ResponseID
	if evidence.UploadedAt.IsZero() {
		evidence.UploadedAt = time.Now()
	}
	if err := s.db.Create(evidence).Error; err != nil {
		return nil, fmt.Errorf("failed to record evidence: %w", err)
	}
	return evidence, nil
}

// RemoveEvidence deletes an evidence row and returns it so the caller can
// remove the stored file. Forbidden once the submission is locked.
func (s *ChecklistService) RemoveEvidence(evidenceID, firmID int) (*models.EvidenceFile, error) {
	var evidence models.EvidenceFile
	if err := s.db.Preload("Response.Submission").First(&evidence, evidenceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evidence %d: %w", evidenceID, ErrNotFound)
		}
		return nil, err
	}
	if evidence.Response.Submission.FirmID != firmID {
		return nil, fmt.Errorf("evidence %d: %w", evidenceID, ErrNotFound)
	}
	if err := EnsureMutable(&evidence.Response.Submission); err != nil {
		return nil, err
	}

	if err := s.db.Delete(&models.EvidenceFile{}, evidenceID).Error; err != nil {
		return nil, fmt.Errorf("failed to delete evidence %d: %w", evidenceID, err)
	}
	return &evidence, nil
}

// Complete locks the submission and marks it completed. The transition is
// one-way: there is no unlock. With RequireFullCompletion set, a submission
// with pending responses is refused with ErrIncomplete; otherwise early
// sign-off on a partially answered audit is allowed, matching the wizard's
// explicit "complete audit" action.
func (s *ChecklistService) Complete(submissionID string, firmID, userID int) (*models.ChecklistSubmission, error) {
	submission, err := s.GetSubmission(submissionID, firmID)
	if err != nil {
		return nil, err
	}
	if err := EnsureMutable(submission); err != nil {
		return nil, err
	}

	if s.RequireFullCompletion {
		responses, err := s.responsesFor(submissionID)
		if err != nil {
			return nil, err
		}
		if progress := Completion(responses); progress.Percentage < 100 {
			return nil, fmt.Errorf("%d of %d responses answered: %w",
				progress.CompletedCount, progress.TotalCount, ErrIncomplete)
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_locked":    true,
		"status":       models.SubmissionStatusCompleted,
		"completed_by": userID,
		"completed_at": now,
	}
	if err := s.db.Model(submission).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to complete submission %s: %w", submissionID, err)
	}
	submission.IsLocked = true
	submission.Status = models.SubmissionStatusCompleted
	submission.CompletedBy = &userID
	submission.CompletedAt = &now

	s.notifyCompleted(submission)
	return submission, nil
}

// notifyCompleted raises an in-app alert and a best-effort email. Neither
// failure blocks the completion that already happened.
func (s *ChecklistService) notifyCompleted(submission *models.ChecklistSubmission) {
	now := time.Now()
	alert := models.Alert{
		FirmID:   submission.FirmID,
		Title:    "Audit completed",
		Message:  fmt.Sprintf("Audit %s has been completed and locked. The compliance report is ready to generate.", submission.SubmissionID),
		CreateAt: &now,
	}
	if err := s.db.Create(&alert).Error; err != nil {
		log.Printf("Warning: failed to create completion alert for %s: %v", submission.SubmissionID, err)
	}

	var firm models.FirmProfile
	if err := s.db.First(&firm, submission.FirmID).Error; err != nil || !utils.ValidateEmail(firm.ContactEmail) {
		return
	}
	body := fmt.Sprintf("<p>Your compliance audit <strong>%s</strong> is complete. Log in to download the signed report.</p>", submission.SubmissionID)
	if err := config.SendMail([]string{firm.ContactEmail}, "Compliance audit completed", body); err != nil {
		log.Printf("Warning: failed to send completion mail for %s: %v", submission.SubmissionID, err)
	}
}
