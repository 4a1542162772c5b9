package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionType is the answer type of a form question. It drives both the
// text encoding of stored responses and their coercion when read back.
type QuestionType string

const (
	QuestionText       QuestionType = "text"
	QuestionNumber     QuestionType = "number"
	QuestionBoolean    QuestionType = "boolean"
	QuestionDate       QuestionType = "date"
	QuestionSelect     QuestionType = "select"
	QuestionTextarea   QuestionType = "textarea"
	QuestionRatingGrid QuestionType = "rating_grid"
)

// Valid reports whether t is a known question type
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionNumber, QuestionBoolean, QuestionDate,
		QuestionSelect, QuestionTextarea, QuestionRatingGrid:
		return true
	}
	return false
}

// SemanticField names a client-identifying field a question carries.
type SemanticField string

const (
	SemanticNone        SemanticField = ""
	SemanticFirstName   SemanticField = "first_name"
	SemanticLastName    SemanticField = "last_name"
	SemanticPhoneNumber SemanticField = "phone_number"
	SemanticDateOfBirth SemanticField = "date_of_birth"
)

// Valid reports whether s is empty or one of the known semantic fields
func (s SemanticField) Valid() bool {
	switch s {
	case SemanticNone, SemanticFirstName, SemanticLastName, SemanticPhoneNumber, SemanticDateOfBirth:
		return true
	}
	return false
}

// QuestionOption is one choice of a select question
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// IntakeForm is a configurable form (intake screening, exit survey, ...)
type IntakeForm struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FormKey     string    `gorm:"uniqueIndex;size:100;not null" json:"formKey"`
	FormName    string    `gorm:"size:255;not null" json:"formName"`
	Description string    `gorm:"size:2000" json:"description"`
	IsActive    bool      `gorm:"not null" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FormQuestion is one question of an IntakeForm
type FormQuestion struct {
	ID              uint64                              `gorm:"primaryKey;autoIncrement" json:"id"`
	FormID          uint64                              `gorm:"not null;uniqueIndex:idx_form_field_key,priority:1;index" json:"formId"`
	FieldKey        string                              `gorm:"size:100;not null;uniqueIndex:idx_form_field_key,priority:2" json:"fieldKey"`
	QuestionText    string                              `gorm:"size:1000;not null" json:"questionText"`
	QuestionType    QuestionType                        `gorm:"size:32;not null" json:"questionType"`
	Category        string                              `gorm:"size:100" json:"category"`
	Options         datatypes.JSONSlice[QuestionOption] `json:"options"`
	ValidationRules JSON                                `json:"validationRules,omitempty"`
	IsRequired      bool                                `gorm:"not null" json:"isRequired"`
	IsVisible       bool                                `gorm:"not null" json:"isVisible"`
	IsCore          bool                                `gorm:"not null" json:"isCore"`
	DisplayOrder    int                                 `gorm:"not null" json:"displayOrder"`
	SemanticField   SemanticField                       `gorm:"size:32" json:"semanticField,omitempty"`
	CreatedAt       time.Time                           `json:"createdAt"`
	UpdatedAt       time.Time                           `json:"updatedAt"`
}

// TableName overrides the table name for IntakeForm
func (IntakeForm) TableName() string {
	return "intake_forms"
}

// TableName overrides the table name for FormQuestion
func (FormQuestion) TableName() string {
	return "form_questions"
}
