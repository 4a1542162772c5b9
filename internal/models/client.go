package models

import "time"

// Client is a client record, the target of session reconciliation.
// DateOfBirth is kept as text; rows written by older tooling are not
// guaranteed to use YYYY-MM-DD.
type Client struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName   string    `gorm:"size:255;not null;index:idx_client_name,priority:1" json:"firstName"`
	LastName    string    `gorm:"size:255;not null;index:idx_client_name,priority:2" json:"lastName"`
	PhoneNumber string    `gorm:"size:64" json:"phoneNumber"`
	DateOfBirth string    `gorm:"size:32" json:"dateOfBirth"`
	Email       string    `gorm:"size:255" json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IntakeClient is the light client entity created through the dynamic
// form flow. Everything beyond these columns lives in IntakeResponse rows
// sharing SessionID.
type IntakeClient struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedBy string    `gorm:"size:255;not null" json:"createdBy"`
	UnitID    uint64    `gorm:"not null;index" json:"unitId"`
	Status    string    `gorm:"size:32;not null" json:"status"`
	FirstName string    `gorm:"size:255" json:"firstName"`
	LastName  string    `gorm:"size:255" json:"lastName"`
	FormID    uint64    `gorm:"not null" json:"formId"`
	SessionID string    `gorm:"size:36;not null;uniqueIndex" json:"sessionId"`
	ClientID  *uint64   `gorm:"index" json:"clientId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for Client
func (Client) TableName() string {
	return "clients"
}

// TableName overrides the table name for IntakeClient
func (IntakeClient) TableName() string {
	return "intake_clients"
}
