package models

import (
	"time"
)

// ReportVerification stores the sha256 of a generated report so a copy can
// later be checked against what the system actually produced.
type ReportVerification struct {
	VerificationID int       `gorm:"primaryKey;column:verification_id" json:"verification_id"`
	SubmissionID   string    `gorm:"column:submission_id;type:char(36);index" json:"submission_id"`
	ReportHash     string    `gorm:"column:report_hash;uniqueIndex" json:"report_hash"`
	GeneratedBy    int       `gorm:"column:generated_by" json:"generated_by"`
	GeneratedAt    time.Time `gorm:"column:generated_at" json:"generated_at"`

	// Relations
	Submission ChecklistSubmission `gorm:"foreignKey:SubmissionID" json:"-"`
}

func (ReportVerification) TableName() string {
	return "report_verifications"
}
