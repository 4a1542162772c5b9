package models

import "time"

// IntakeResponse is a single answer of a form session, stored as text.
// There is at most one row per (SessionID, QuestionID).
type IntakeResponse struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID      string    `gorm:"size:36;not null;uniqueIndex:idx_session_question,priority:1" json:"sessionId"`
	ClientID       *uint64   `gorm:"index" json:"clientId"`
	IntakeClientID *uint64   `gorm:"index" json:"intakeClientId,omitempty"`
	FormID         uint64    `gorm:"not null;index" json:"formId"`
	QuestionID     uint64    `gorm:"not null;uniqueIndex:idx_session_question,priority:2;index" json:"questionId"`
	ResponseValue  string    `gorm:"size:4000" json:"responseValue"`
	SubmittedAt    time.Time `gorm:"not null" json:"submittedAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName overrides the table name for IntakeResponse
func (IntakeResponse) TableName() string {
	return "intake_responses"
}
