package models

import (
	"time"
)

// Risk impact levels for checklist controls. RiskImpactOrder fixes the
// iteration order used whenever breakdowns are rendered per level.
const (
	RiskImpactHigh   = "HIGH"
	RiskImpactMedium = "MEDIUM"
	RiskImpactLow    = "LOW"
)

var RiskImpactOrder = []string{RiskImpactHigh, RiskImpactMedium, RiskImpactLow}

// Response statuses. A response starts as pending and stays in the
// progress denominator until the user picks one of the other four.
const (
	ResponseStatusPending = "pending"
	ResponseStatusYes     = "yes"
	ResponseStatusNo      = "no"
	ResponseStatusPartial = "partial"
	ResponseStatusNA      = "na"
)

// Submission lifecycle statuses.
const (
	SubmissionStatusDraft     = "draft"
	SubmissionStatusCompleted = "completed"
)

type ChecklistTemplate struct {
	TemplateID       int        `gorm:"primaryKey;column:template_id" json:"template_id"`
	Standard         string     `gorm:"column:standard;index;uniqueIndex:uniq_standard_code" json:"standard"`
	Code             string     `gorm:"column:code;uniqueIndex:uniq_standard_code" json:"code"`
	ReferenceArticle string     `gorm:"column:reference_article" json:"reference_article"`
	Title            string     `gorm:"column:title" json:"title"`
	Description      string     `gorm:"column:description" json:"description"`
	RiskImpact       string     `gorm:"column:risk_impact;default:MEDIUM" json:"risk_impact"`
	Weight           float64    `gorm:"column:weight;default:1.0" json:"weight"`
	RequiresEvidence bool       `gorm:"column:requires_evidence" json:"requires_evidence"`
	Active           bool       `gorm:"column:active;default:true" json:"active"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
}

type ChecklistSubmission struct {
	SubmissionID  string     `gorm:"primaryKey;column:submission_id;type:char(36)" json:"submission_id"`
	ScanID        int        `gorm:"column:scan_id;uniqueIndex" json:"scan_id"`
	FirmID        int        `gorm:"column:firm_id;index" json:"firm_id"`
	CompletedBy   *int       `gorm:"column:completed_by" json:"completed_by,omitempty"`
	IsLocked      bool       `gorm:"column:is_locked" json:"is_locked"`
	Status        string     `gorm:"column:status;default:draft" json:"status"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Relations
	Scan      ScanResult          `gorm:"foreignKey:ScanID" json:"scan,omitempty"`
	Firm      FirmProfile         `gorm:"foreignKey:FirmID" json:"firm,omitempty"`
	Completer *User               `gorm:"foreignKey:CompletedBy" json:"completer,omitempty"`
	Responses []ChecklistResponse `gorm:"foreignKey:SubmissionID" json:"responses,omitempty"`
}

type ChecklistResponse struct {
	ResponseID   int    `gorm:"primaryKey;column:response_id" json:"response_id"`
	SubmissionID string `gorm:"column:submission_id;type:char(36);uniqueIndex:uniq_submission_template" json:"submission_id"`
	TemplateID   int    `gorm:"column:template_id;uniqueIndex:uniq_submission_template" json:"template_id"`
	Status       string `gorm:"column:status;default:pending" json:"status"`
	Comment      string `gorm:"column:comment" json:"comment"`

	// Relations
	Submission ChecklistSubmission `gorm:"foreignKey:SubmissionID;references:SubmissionID" json:"-"`
	Template   ChecklistTemplate   `gorm:"foreignKey:TemplateID;references:TemplateID" json:"template,omitempty"`
	Evidence   []EvidenceFile      `gorm:"foreignKey:ResponseID" json:"evidence,omitempty"`
}

type EvidenceFile struct {
	EvidenceID int       `gorm:"primaryKey;column:evidence_id" json:"evidence_id"`
	ResponseID int       `gorm:"column:response_id;index" json:"response_id"`
	StoredPath string    `gorm:"column:stored_path" json:"-"`
	Filename   string    `gorm:"column:filename" json:"filename"`
	FileSize   int64     `gorm:"column:file_size" json:"file_size"`
	MimeType   string    `gorm:"column:mime_type" json:"mime_type"`
	FileHash   string    `gorm:"column:file_hash" json:"file_hash"`
	UploadedBy int       `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`

	// Relations
	Response ChecklistResponse `gorm:"foreignKey:ResponseID;references:ResponseID" json:"-"`
	Uploader User              `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

// TableName overrides
func (ChecklistTemplate) TableName() string {
	return "checklist_templates"
}

func (ChecklistSubmission) TableName() string {
	return "checklist_submissions"
}

func (ChecklistResponse) TableName() string {
	return "checklist_responses"
}

func (EvidenceFile) TableName() string {
	return "evidence_files"
}

// IsValidResponseStatus reports whether s is one of the five accepted
// response statuses. Anything else is rejected at the API boundary.
func IsValidResponseStatus(s string) bool {
	switch s {
	case ResponseStatusPending, ResponseStatusYes, ResponseStatusNo,
		ResponseStatusPartial, ResponseStatusNA:
		return true
	}
	return false
}

// IsValidRiskImpact reports whether s is a known risk impact level.
func IsValidRiskImpact(s string) bool {
	switch s {
	case RiskImpactHigh, RiskImpactMedium, RiskImpactLow:
		return true
	}
	return false
}

// IsAnswered reports whether the response has moved past its initial
// pending placeholder.
func (r *ChecklistResponse) IsAnswered() bool {
	return r.Status != ResponseStatusPending
}
