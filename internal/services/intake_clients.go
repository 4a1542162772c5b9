package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/validation"
	"gorm.io/gorm"
)

// StatusPending is the status of a new intake client
const StatusPending = "pending"

// IntakeClientInput creates an intake client and its first session.
// Fields holds the dynamic answers keyed by field key.
type IntakeClientInput struct {
	CreatedBy string         `json:"createdBy" validate:"required,max=255"`
	UnitID    uint64         `json:"unitId" validate:"required"`
	Status    string         `json:"status" validate:"max=32"`
	FirstName string         `json:"firstName" validate:"required,max=255"`
	LastName  string         `json:"lastName" validate:"required,max=255"`
	FormID    uint64         `json:"formId"`
	FormKey   string         `json:"formKey"`
	Fields    map[string]any `json:"-"`
}

// IntakeClientResult identifies a created intake client
type IntakeClientResult struct {
	ID        uint64  `json:"id"`
	SessionID string  `json:"sessionId"`
	ClientID  *uint64 `json:"clientId"`
}

// IntakeClientDetail is an intake client with its materialized answers
type IntakeClientDetail struct {
	models.IntakeClient
	Responses Record `json:"responses"`
}

// CreateIntakeClient stores the intake client row and its answers in one
// transaction. defaultFormKey applies when the input names no form. The new
// session is then matched against existing clients.
func CreateIntakeClient(ctx context.Context, db *gorm.DB, in IntakeClientInput, defaultFormKey string) (*IntakeClientResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	form, err := ResolveForm(ctx, db, in.FormID, in.FormKey, defaultFormKey)
	if err != nil {
		return nil, err
	}
	questions, err := ListQuestions(ctx, db, form.ID, true)
	if err != nil {
		return nil, err
	}

	answers := make(map[string]any, len(in.Fields)+2)
	for k, v := range in.Fields {
		answers[k] = v
	}
	for _, q := range questions {
		switch q.SemanticField {
		case models.SemanticFirstName:
			answers[q.FieldKey] = in.FirstName
		case models.SemanticLastName:
			answers[q.FieldKey] = in.LastName
		}
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}

	ic := &models.IntakeClient{
		CreatedBy: in.CreatedBy,
		UnitID:    in.UnitID,
		Status:    status,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		FormID:    form.ID,
		SessionID: uuid.NewString(),
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ic).Error; err != nil {
			return types.WrapDatabaseError(err, "create intake client")
		}

		now := time.Now().UTC()
		rows, err := buildResponseRows(questions, answers, func(q *models.FormQuestion) models.IntakeResponse {
			return models.IntakeResponse{
				SessionID:      ic.SessionID,
				IntakeClientID: &ic.ID,
				FormID:         form.ID,
				QuestionID:     q.ID,
				SubmittedAt:    now,
				UpdatedAt:      now,
			}
		})
		if err != nil {
			return err
		}
		return upsertResponses(tx, rows, []string{"response_value", "updated_at"})
	})
	if err != nil {
		return nil, err
	}

	result := &IntakeClientResult{ID: ic.ID, SessionID: ic.SessionID}
	result.ClientID = linkSessionClient(ctx, db, ic.SessionID, questions, answers)
	return result, nil
}

// GetIntakeClient returns an intake client and its materialized session
func GetIntakeClient(ctx context.Context, db *gorm.DB, id uint64) (*IntakeClientDetail, error) {
	var ic models.IntakeClient
	if err := db.WithContext(ctx).First(&ic, id).Error; err != nil {
		return nil, notFound(err, "get intake client", "intake client %d not found", id)
	}

	detail := &IntakeClientDetail{IntakeClient: ic, Responses: Record{}}
	rec, err := GetSession(ctx, db, ic.SessionID)
	switch {
	case err == nil:
		detail.Responses = rec
	case !types.IsKind(err, types.KindNotFound):
		return nil, err
	}
	return detail, nil
}
