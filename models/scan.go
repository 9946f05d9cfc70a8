package models

import (
	"time"
)

// Scan lifecycle statuses. The scan runner owns the PENDING -> RUNNING ->
// COMPLETED/FAILED progression; this API creates PENDING rows, may mark an
// in-flight scan CANCELLED, and otherwise reads whatever the runner wrote.
const (
	ScanStatusPending   = "PENDING"
	ScanStatusRunning   = "RUNNING"
	ScanStatusCompleted = "COMPLETED"
	ScanStatusFailed    = "FAILED"
	ScanStatusCancelled = "CANCELLED"
)

type ScanResult struct {
	ScanID   int        `gorm:"primaryKey;column:scan_id" json:"scan_id"`
	ScanRef  string     `gorm:"column:scan_ref;unique" json:"scan_ref"`
	FirmID   int        `gorm:"column:firm_id" json:"firm_id"`
	Domain   string     `gorm:"column:domain" json:"domain"`
	Status   string     `gorm:"column:status" json:"status"`
	Grade    *string    `gorm:"column:grade" json:"grade,omitempty"`
	ScanDate time.Time  `gorm:"column:scan_date" json:"scan_date"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	Firm FirmProfile `gorm:"foreignKey:FirmID" json:"firm,omitempty"`
}

type Alert struct {
	AlertID  int        `gorm:"primaryKey;column:alert_id" json:"alert_id"`
	FirmID   int        `gorm:"column:firm_id" json:"firm_id"`
	Title    string     `gorm:"column:title" json:"title"`
	Message  string     `gorm:"column:message" json:"message"`
	Read     bool       `gorm:"column:read" json:"read"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`

	// Relations
	Firm FirmProfile `gorm:"foreignKey:FirmID" json:"firm,omitempty"`
}

// TableName overrides
func (ScanResult) TableName() string {
	return "scan_results"
}

func (Alert) TableName() string {
	return "alerts"
}

func (s *ScanResult) IsInFlight() bool {
	return s.Status == ScanStatusPending || s.Status == ScanStatusRunning
}

// CanRetry reports whether a fresh scan may be queued from this one. Only
// scans that stopped without a result qualify.
func (s *ScanResult) CanRetry() bool {
	return s.Status == ScanStatusFailed || s.Status == ScanStatusCancelled
}
