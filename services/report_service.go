package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"complylaw-api/models"
	"complylaw-api/utils"

	"gorm.io/gorm"
)

// ReportService assembles the data a report renderer consumes and keeps the
// integrity record for each generated report. Rendering itself (PDF layout)
// lives outside this API; we hand over the payload and remember its hash.
type ReportService struct {
	db        *gorm.DB
	checklist *ChecklistService
}

func NewReportService(db *gorm.DB, checklist *ChecklistService) *ReportService {
	return &ReportService{db: db, checklist: checklist}
}

// ReportPayload is the renderer input: the submission, its responses in
// wizard order, and the final numbers. For a locked submission these are the
// authoritative results; for a draft they are a point-in-time preview.
type ReportPayload struct {
	Submission  *models.ChecklistSubmission `json:"submission"`
	Responses   []models.ChecklistResponse  `json:"responses"`
	Score       float64                     `json:"score"`
	Breakdown   []RiskTierBreakdown         `json:"risk_breakdown"`
	Progress    Progress                    `json:"progress"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// BuildPayload computes the report input for a submission. Responses are
// fetched once and every derived number comes from that same snapshot.
func (s *ReportService) BuildPayload(submissionID string, firmID int) (*ReportPayload, error) {
	submission, responses, err := s.checklist.SubmissionWithResponses(submissionID, firmID)
	if err != nil {
		return nil, err
	}

	return &ReportPayload{
		Submission:  submission,
		Responses:   responses,
		Score:       ComputeScore(responses),
		Breakdown:   RiskBreakdown(responses),
		Progress:    Completion(responses),
		GeneratedAt: time.Now(),
	}, nil
}

// RecordVerification hashes the rendered report bytes and stores the result
// for later verification. Re-recording the same bytes is a no-op returning
// the existing row.
func (s *ReportService) RecordVerification(submissionID string, firmID, userID int, report []byte) (*models.ReportVerification, error) {
	if _, err := s.checklist.GetSubmission(submissionID, firmID); err != nil {
		return nil, err
	}

	hash := utils.SHA256Bytes(report)

	var existing models.ReportVerification
	if err := s.db.Where("report_hash = ?", hash).First(&existing).Error; err == nil {
		return &existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	verification := models.ReportVerification{
		SubmissionID: submissionID,
		ReportHash:   hash,
		GeneratedBy:  userID,
		GeneratedAt:  time.Now(),
	}
	if err := s.db.Create(&verification).Error; err != nil {
		return nil, fmt.Errorf("failed to record report verification: %w", err)
	}
	return &verification, nil
}

// Verify looks up a report hash. ErrNotFound means the bytes do not match
// any report this system generated.
func (s *ReportService) Verify(hash string) (*models.ReportVerification, error) {
	var verification models.ReportVerification
	if err := s.db.Where("report_hash = ?", hash).First(&verification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("report hash %s: %w", hash, ErrNotFound)
		}
		return nil, err
	}
	return &verification, nil
}

// PayloadBytes renders the payload to canonical JSON. complyctl report
// hashes this form when no rendered PDF is supplied.
func (p *ReportPayload) PayloadBytes() ([]byte, error) {
	return json.Marshal(p)
}
