package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/values"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmitInput is one form submission. Answers are keyed by field key in
// snake_case or camelCase; keys that match no question are ignored.
type SubmitInput struct {
	SessionID      string         `json:"sessionId"`
	FormID         uint64         `json:"formId"`
	ClientID       *uint64        `json:"clientId"`
	IntakeClientID *uint64        `json:"-"`
	Answers        map[string]any `json:"answers"`
}

// SubmitResult reports what a submission stored
type SubmitResult struct {
	SessionID string  `json:"sessionId"`
	Stored    int     `json:"stored"`
	ClientID  *uint64 `json:"clientId"`
}

// SubmitResponses stores the answers of a session in one transaction, one
// row per question, replacing earlier answers to the same question. A new
// session id is generated when none is given. Without a client id the
// answers are matched against existing clients after the commit.
func SubmitResponses(ctx context.Context, db *gorm.DB, in SubmitInput) (*SubmitResult, error) {
	sessionID, err := sessionIDOrNew(in.SessionID)
	if err != nil {
		return nil, err
	}

	if _, err := GetForm(ctx, db, in.FormID); err != nil {
		return nil, err
	}
	if in.ClientID != nil {
		if _, err := GetClient(ctx, db, *in.ClientID); err != nil {
			return nil, err
		}
	}

	questions, err := ListQuestions(ctx, db, in.FormID, true)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows, err := buildResponseRows(questions, in.Answers, func(q *models.FormQuestion) models.IntakeResponse {
		return models.IntakeResponse{
			SessionID:      sessionID,
			ClientID:       in.ClientID,
			IntakeClientID: in.IntakeClientID,
			FormID:         in.FormID,
			QuestionID:     q.ID,
			SubmittedAt:    now,
			UpdatedAt:      now,
		}
	})
	if err != nil {
		return nil, err
	}

	updates := []string{"response_value", "submitted_at", "updated_at"}
	if in.ClientID != nil {
		updates = append(updates, "client_id")
	}
	if in.IntakeClientID != nil {
		updates = append(updates, "intake_client_id")
	}

	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertResponses(tx, rows, updates)
	}); err != nil {
		return nil, err
	}

	result := &SubmitResult{SessionID: sessionID, Stored: len(rows), ClientID: in.ClientID}
	if in.ClientID == nil && len(rows) > 0 {
		result.ClientID = linkSessionClient(ctx, db, sessionID, questions, in.Answers)
	}
	return result, nil
}

// UpdateSession changes answers of an existing session. Unknown keys are
// ignored; the session keeps its client link and submission time.
func UpdateSession(ctx context.Context, db *gorm.DB, sessionID string, answers map[string]any) (*SubmitResult, error) {
	var first models.IntakeResponse
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").First(&first).Error; err != nil {
		return nil, notFound(err, "update session", "session %s not found", sessionID)
	}

	questions, err := ListQuestions(ctx, db, first.FormID, true)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows, err := buildResponseRows(questions, answers, func(q *models.FormQuestion) models.IntakeResponse {
		return models.IntakeResponse{
			SessionID:      sessionID,
			ClientID:       first.ClientID,
			IntakeClientID: first.IntakeClientID,
			FormID:         first.FormID,
			QuestionID:     q.ID,
			SubmittedAt:    first.SubmittedAt,
			UpdatedAt:      now,
		}
	})
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertResponses(tx, rows, []string{"response_value", "updated_at"})
	}); err != nil {
		return nil, err
	}

	return &SubmitResult{SessionID: sessionID, Stored: len(rows), ClientID: first.ClientID}, nil
}

// DeleteSession removes every response of a session and returns the count
func DeleteSession(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	res := db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.IntakeResponse{})
	if res.Error != nil {
		return 0, types.WrapDatabaseError(res.Error, "delete session")
	}
	return res.RowsAffected, nil
}

// AttachClient links every response of a session to a client, or unlinks
// them when clientID is nil. The session's intake client follows the link.
func AttachClient(ctx context.Context, db *gorm.DB, sessionID string, clientID *uint64) (int64, error) {
	found, err := exists(ctx, db, &models.IntakeResponse{}, "session_id = ?", sessionID)
	if err != nil {
		return 0, types.WrapDatabaseError(err, "attach client")
	}
	if !found {
		return 0, types.NewNotFoundError("session %s not found", sessionID)
	}

	var link any = gorm.Expr("NULL")
	if clientID != nil {
		if _, err := GetClient(ctx, db, *clientID); err != nil {
			return 0, err
		}
		link = *clientID
	}

	var affected int64
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.IntakeResponse{}).
			Where("session_id = ?", sessionID).
			Updates(map[string]any{"client_id": link, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return types.WrapDatabaseError(res.Error, "attach client")
		}
		affected = res.RowsAffected

		if err := tx.Model(&models.IntakeClient{}).
			Where("session_id = ?", sessionID).
			Update("client_id", link).Error; err != nil {
			return types.WrapDatabaseError(err, "attach client")
		}
		return nil
	})
	return affected, err
}

// buildResponseRows encodes the answers that match a question. A key equal
// to the field key wins over its camelCase mirror.
func buildResponseRows(questions []models.FormQuestion, answers map[string]any, newRow func(*models.FormQuestion) models.IntakeResponse) ([]models.IntakeResponse, error) {
	exact := make(map[string]*models.FormQuestion, len(questions))
	mirror := make(map[string]*models.FormQuestion, len(questions))
	for i := range questions {
		q := &questions[i]
		exact[q.FieldKey] = q
		mirror[values.CamelKey(q.FieldKey)] = q
		mirror[values.SnakeKey(q.FieldKey)] = q
	}

	chosen := make(map[uint64]string, len(answers))
	matched := make(map[uint64]*models.FormQuestion, len(answers))
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		q, isExact := exact[k]
		if !isExact {
			if q = mirror[k]; q == nil {
				continue
			}
		}
		if prev, ok := chosen[q.ID]; ok && prev == q.FieldKey {
			continue
		}
		chosen[q.ID] = k
		matched[q.ID] = q
	}

	ids := make([]uint64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]models.IntakeResponse, 0, len(ids))
	for _, id := range ids {
		q := matched[id]
		key := chosen[id]
		stored, err := values.Encode(q.QuestionType, answers[key])
		if err != nil {
			return nil, types.NewValidationError("answer %q: %v", key, err)
		}
		if len(stored) > maxResponseLength {
			return nil, types.NewValidationError("answer %q exceeds %d characters", key, maxResponseLength)
		}
		row := newRow(q)
		row.ResponseValue = stored
		rows = append(rows, row)
	}
	return rows, nil
}

const maxResponseLength = 4000

func upsertResponses(tx *gorm.DB, rows []models.IntakeResponse, updates []string) error {
	if len(rows) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&rows).Error
	return types.WrapDatabaseError(err, "store responses")
}

// linkSessionClient returns the client already linked to the session or
// links the client recognised from the answers
func linkSessionClient(ctx context.Context, db *gorm.DB, sessionID string, questions []models.FormQuestion, answers map[string]any) *uint64 {
	var linked models.IntakeResponse
	err := db.WithContext(ctx).
		Select("client_id").
		Where("session_id = ? AND client_id IS NOT NULL", sessionID).
		Limit(1).
		Find(&linked).Error
	if err == nil && linked.ClientID != nil {
		return linked.ClientID
	}

	clientID := matchSession(ctx, db, questions, answers)
	if clientID == nil {
		return nil
	}
	if _, err := AttachClient(ctx, db, sessionID, clientID); err != nil {
		zap.L().Warn("failed to link matched client",
			zap.String("session_id", sessionID),
			zap.Uint64("client_id", *clientID),
			zap.Error(err))
		return nil
	}
	zap.L().Info("linked session to existing client",
		zap.String("session_id", sessionID),
		zap.Uint64("client_id", *clientID))
	return clientID
}

func sessionIDOrNew(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", types.NewValidationError("sessionId %q is not a UUID", id)
	}
	return parsed.String(), nil
}
