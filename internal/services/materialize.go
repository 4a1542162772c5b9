package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/localnerve/shelter-intake/internal/filters"
	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/values"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// Record is one materialized session or client: static keys plus every
// answered field under its field key and camelCase mirror
type Record map[string]any

// Static record keys
const (
	KeySessionID       = "sessionId"
	KeyFormID          = "formId"
	KeyFormKey         = "formKey"
	KeyClientID        = "clientId"
	KeyIntakeClientID  = "intakeClientId"
	KeySubmittedAt     = "submittedAt"
	KeyUpdatedAt       = "updatedAt"
	KeyClientFirstName = "clientFirstName"
	KeyClientLastName  = "clientLastName"
	KeyFormResponses   = "formResponses"
)

var reservedKeys = map[string]bool{
	KeySessionID: true, KeyFormID: true, KeyFormKey: true, KeyClientID: true,
	KeyIntakeClientID: true, KeySubmittedAt: true, KeyUpdatedAt: true,
	KeyClientFirstName: true, KeyClientLastName: true, KeyFormResponses: true,
}

// MaterializeQuery narrows and pages a by-session materialization
type MaterializeQuery struct {
	Filter *filters.Filter
	Search string
	Page
}

// SessionPage is one page of materialized sessions, newest first
type SessionPage struct {
	Records  []Record `json:"records"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

// responseRow is an EAV row joined with its question, form and linked client
type responseRow struct {
	ID             uint64
	SessionID      string
	ClientID       *uint64
	IntakeClientID *uint64
	FormID         uint64
	FormKey        string
	SubmittedAt    time.Time
	UpdatedAt      time.Time
	ResponseValue  string
	FieldKey       string
	QuestionType   models.QuestionType
	FirstName      *string
	LastName       *string
}

// sessionRecord accumulates the rows of one session
type sessionRecord struct {
	record      Record
	submittedAt time.Time
	updatedAt   time.Time
	clientName  string
	raw         []string
}

// MaterializeBySession rebuilds one record per session of a form
func MaterializeBySession(ctx context.Context, db *gorm.DB, formID uint64, query MaterializeQuery) (*SessionPage, error) {
	if _, err := GetForm(ctx, db, formID); err != nil {
		return nil, err
	}

	sessions, err := materializeSessions(ctx, db, formID, query.Filter, query.Search)
	if err != nil {
		return nil, err
	}

	page := query.Page.normalize()
	start, end := page.bounds(len(sessions))
	records := make([]Record, 0, end-start)
	for _, s := range sessions[start:end] {
		records = append(records, s.record)
	}

	return &SessionPage{
		Records:  records,
		Total:    len(sessions),
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// GetSession materializes a single session
func GetSession(ctx context.Context, db *gorm.DB, sessionID string) (Record, error) {
	rows, err := loadRows(ctx, db, "get_session", "", func(q *gorm.DB) *gorm.DB {
		return q.Where("r.session_id = ?", sessionID)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.NewNotFoundError("session %s not found", sessionID)
	}
	return groupSessions(rows)[0].record, nil
}

// MaterializeByClient merges every answer linked to a client into one flat
// record, later submissions overriding earlier ones, and keeps a copy per
// form under formResponses. A formID of 0 includes every form.
func MaterializeByClient(ctx context.Context, db *gorm.DB, clientID uint64, formID uint64) (Record, error) {
	client, err := GetClient(ctx, db, clientID)
	if err != nil {
		return nil, err
	}

	rows, err := loadRows(ctx, db, "materialize_by_client", "", func(q *gorm.DB) *gorm.DB {
		q = q.Where("r.client_id = ?", clientID)
		if formID > 0 {
			q = q.Where("r.form_id = ?", formID)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].SubmittedAt.Equal(rows[j].SubmittedAt) {
			return rows[i].SubmittedAt.Before(rows[j].SubmittedAt)
		}
		return rows[i].ID < rows[j].ID
	})

	record := Record{
		KeyClientID:        client.ID,
		KeyClientFirstName: client.FirstName,
		KeyClientLastName:  client.LastName,
	}
	perForm := make(map[string]Record)
	var latest time.Time

	for _, row := range rows {
		v := values.Decode(row.QuestionType, row.ResponseValue).Interface()
		setField(record, row.FieldKey, v)

		fr, ok := perForm[row.FormKey]
		if !ok {
			fr = Record{KeyFormID: row.FormID}
			perForm[row.FormKey] = fr
		}
		setField(fr, row.FieldKey, v)
		fr[KeySessionID] = row.SessionID
		fr[KeySubmittedAt] = row.SubmittedAt
		if row.SubmittedAt.After(latest) {
			latest = row.SubmittedAt
		}
	}

	record[KeyFormResponses] = perForm
	if !latest.IsZero() {
		record[KeySubmittedAt] = latest
	}
	return record, nil
}

// materializeSessions loads, groups, searches and sorts the sessions of a form
func materializeSessions(ctx context.Context, db *gorm.DB, formID uint64, filter *filters.Filter, search string) ([]*sessionRecord, error) {
	rows, err := loadRows(ctx, db, "materialize_by_session", formIndex, func(q *gorm.DB) *gorm.DB {
		q = q.Where("r.form_id = ?", formID)
		if !filter.Empty() {
			sql, args := filters.Build(filter, formID, db.Dialector.Name())
			q = q.Where("r.session_id IN (?)", gorm.Expr(sql, args...))
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	sessions := groupSessions(rows)

	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return sessions, nil
	}

	matched := sessions[:0]
	for _, s := range sessions {
		if s.matches(search) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// formIndex is hinted on MySQL for whole-form reads
const formIndex = "idx_intake_responses_form_id"

// loadRows selects response rows with their question metadata. where adds
// the row restriction; index, when set, is hinted on MySQL.
func loadRows(ctx context.Context, db *gorm.DB, label, index string, where func(*gorm.DB) *gorm.DB) ([]responseRow, error) {
	table := "intake_responses r"
	if index != "" && db.Dialector.Name() == "mysql" {
		table += " USE INDEX (" + index + ")"
	}

	q := db.WithContext(ctx).
		Clauses(hints.Comment("select", label)).
		Table(table).
		Select(`r.id, r.session_id, r.client_id, r.intake_client_id, r.form_id, f.form_key,
			r.submitted_at, r.updated_at, r.response_value,
			q.field_key, q.question_type, c.first_name, c.last_name`).
		Joins("JOIN form_questions q ON q.id = r.question_id").
		Joins("JOIN intake_forms f ON f.id = r.form_id").
		Joins("LEFT JOIN clients c ON c.id = r.client_id").
		Order("r.session_id, q.display_order, q.id")

	var rows []responseRow
	if err := where(q).Scan(&rows).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "load responses")
	}
	return rows, nil
}

// groupSessions folds rows into one record per session, newest first
func groupSessions(rows []responseRow) []*sessionRecord {
	byID := make(map[string]*sessionRecord)
	order := make([]*sessionRecord, 0)

	for _, row := range rows {
		s, ok := byID[row.SessionID]
		if !ok {
			s = &sessionRecord{record: Record{
				KeySessionID:       row.SessionID,
				KeyFormID:          row.FormID,
				KeyFormKey:         row.FormKey,
				KeyClientID:        nil,
				KeyClientFirstName: nil,
				KeyClientLastName:  nil,
			}}
			byID[row.SessionID] = s
			order = append(order, s)
		}

		if row.ClientID != nil {
			s.record[KeyClientID] = *row.ClientID
		}
		if row.IntakeClientID != nil {
			s.record[KeyIntakeClientID] = *row.IntakeClientID
		}
		if row.FirstName != nil || row.LastName != nil {
			first, last := deref(row.FirstName), deref(row.LastName)
			s.record[KeyClientFirstName] = first
			s.record[KeyClientLastName] = last
			s.clientName = strings.ToLower(strings.TrimSpace(first + " " + last))
		}
		if row.SubmittedAt.After(s.submittedAt) {
			s.submittedAt = row.SubmittedAt
		}
		if row.UpdatedAt.After(s.updatedAt) {
			s.updatedAt = row.UpdatedAt
		}

		setField(s.record, row.FieldKey, values.Decode(row.QuestionType, row.ResponseValue).Interface())
		s.raw = append(s.raw, strings.ToLower(row.ResponseValue))
	}

	for _, s := range order {
		s.record[KeySubmittedAt] = s.submittedAt
		s.record[KeyUpdatedAt] = s.updatedAt
	}

	sort.SliceStable(order, func(i, j int) bool {
		if !order[i].submittedAt.Equal(order[j].submittedAt) {
			return order[i].submittedAt.After(order[j].submittedAt)
		}
		return order[i].record[KeySessionID].(string) < order[j].record[KeySessionID].(string)
	})
	return order
}

// matches reports whether the lower-cased term occurs in the client name,
// session id, submission time or any raw answer
func (s *sessionRecord) matches(term string) bool {
	if strings.Contains(s.clientName, term) {
		return true
	}
	if strings.Contains(strings.ToLower(s.record[KeySessionID].(string)), term) {
		return true
	}
	if strings.Contains(strings.ToLower(s.submittedAt.UTC().Format(time.RFC3339)), term) {
		return true
	}
	for _, v := range s.raw {
		if strings.Contains(v, term) {
			return true
		}
	}
	return false
}

// setField stores v under the field key and its camelCase mirror. Field
// keys never replace the static record keys.
func setField(r Record, fieldKey string, v any) {
	if !reservedKeys[fieldKey] {
		r[fieldKey] = v
	}
	if camel := values.CamelKey(fieldKey); camel != fieldKey && !reservedKeys[camel] {
		r[camel] = v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
