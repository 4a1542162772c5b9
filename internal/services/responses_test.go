package services_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/shelter-intake/internal/filters"
	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/testutil"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitResponsesRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")

	res, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID: form.ID,
		Answers: map[string]any{
			"householdSize":   "42",
			"has_children":    true,
			"notes":           "needs a lower bunk",
			"program_ratings": map[string]any{"meals": 5, "staff": 4},
			"favourite_color": "green",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Stored)
	assert.Nil(t, res.ClientID)
	_, err = uuid.Parse(res.SessionID)
	require.NoError(t, err)

	rec, err := services.GetSession(ctx, db, res.SessionID)
	require.NoError(t, err)

	assert.Equal(t, 42.0, rec["household_size"])
	assert.Equal(t, 42.0, rec["householdSize"])
	assert.Equal(t, true, rec["has_children"])
	assert.Equal(t, true, rec["hasChildren"])
	assert.Equal(t, "needs a lower bunk", rec["notes"])
	assert.Equal(t, map[string]any{"meals": 5.0, "staff": 4.0}, rec["program_ratings"])
	assert.Equal(t, "client_intake", rec[services.KeyFormKey])
	assert.Equal(t, form.ID, rec[services.KeyFormID])
	assert.Nil(t, rec[services.KeyClientID])
	assert.Nil(t, rec[services.KeyClientFirstName])
	assert.NotContains(t, rec, "favourite_color")
	assert.NotContains(t, rec, "first_name")

	var stored models.IntakeResponse
	require.NoError(t, db.Where("session_id = ? AND response_value = ?", res.SessionID, "true").First(&stored).Error)
}

func TestSubmitResponsesIsIdempotentPerQuestion(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")

	sessionID := uuid.NewString()
	for _, size := range []any{2, 3.0, "4"} {
		_, err := services.SubmitResponses(ctx, db, services.SubmitInput{
			SessionID: sessionID,
			FormID:    form.ID,
			Answers:   map[string]any{"household_size": size, "notes": "same"},
		})
		require.NoError(t, err)
	}

	assert.EqualValues(t, 2, countRows(t, db, &models.IntakeResponse{}, "session_id = ?", sessionID))

	rec, err := services.GetSession(ctx, db, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rec["household_size"])
}

func TestSubmitResponsesExactKeyWinsOverMirror(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")

	res, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID:  form.ID,
		Answers: map[string]any{"notes": "exact", "Notes": "ignored", "householdSize": 1, "household_size": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stored)

	rec, err := services.GetSession(ctx, db, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "exact", rec["notes"])
	assert.Equal(t, 2.0, rec["household_size"])
}

func TestSubmitResponsesRejects(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")
	missingClient := uint64(404)

	tests := []struct {
		name string
		in   services.SubmitInput
		kind types.ErrorKind
	}{
		{"bad session id", services.SubmitInput{SessionID: "session-1", FormID: form.ID}, types.KindValidation},
		{"unknown form", services.SubmitInput{FormID: 999}, types.KindNotFound},
		{"unknown client", services.SubmitInput{FormID: form.ID, ClientID: &missingClient}, types.KindNotFound},
		{"bad number", services.SubmitInput{FormID: form.ID, Answers: map[string]any{"household_size": "many"}}, types.KindValidation},
		{"bad boolean", services.SubmitInput{FormID: form.ID, Answers: map[string]any{"has_children": "perhaps"}}, types.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := services.SubmitResponses(ctx, db, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, types.KindOf(err), err.Error())
		})
	}

	assert.EqualValues(t, 0, countRows(t, db, &models.IntakeResponse{}, "1 = 1"))
}

func TestSubmitResponsesLinksMatchingClient(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")
	john := johnDoe(t, db)

	res, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID: form.ID,
		Answers: map[string]any{
			"firstName":   "John",
			"lastName":    "Doe",
			"phoneNumber": "(714) 555-1234",
			"dateOfBirth": "1990-01-15",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.ClientID)
	assert.Equal(t, john.ID, *res.ClientID)

	assert.EqualValues(t, 4, countRows(t, db, &models.IntakeResponse{}, "session_id = ? AND client_id = ?", res.SessionID, john.ID))

	rec, err := services.GetSession(ctx, db, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, john.ID, rec[services.KeyClientID])
	assert.Equal(t, "John", rec[services.KeyClientFirstName])
	assert.Equal(t, "Doe", rec[services.KeyClientLastName])
	assert.Equal(t, "1990-01-15", rec["dateOfBirth"])
}

func TestSubmitResponsesKeepsGivenClient(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")
	johnDoe(t, db)
	other := &models.Client{FirstName: "Ann", LastName: "Lee"}
	testutil.MustCreate(t, db, other)

	res, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID:   form.ID,
		ClientID: &other.ID,
		Answers: map[string]any{
			"first_name": "John", "last_name": "Doe", "phone_number": "7145551234", "date_of_birth": "1990-01-15",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.ClientID)
	assert.Equal(t, other.ID, *res.ClientID)
}

func TestUpdateSession(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")

	res, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID:  form.ID,
		Answers: map[string]any{"notes": "before", "household_size": 3},
	})
	require.NoError(t, err)
	backdate(t, db, res.SessionID, time.Hour)

	before, err := services.GetSession(ctx, db, res.SessionID)
	require.NoError(t, err)

	updated, err := services.UpdateSession(ctx, db, res.SessionID, map[string]any{"notes": "after", "hasChildren": "no"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stored)

	rec, err := services.GetSession(ctx, db, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "after", rec["notes"])
	assert.Equal(t, false, rec["has_children"])
	assert.Equal(t, 3.0, rec["household_size"])
	assert.True(t, before[services.KeySubmittedAt].(time.Time).Equal(rec[services.KeySubmittedAt].(time.Time)))

	_, err = services.UpdateSession(ctx, db, uuid.NewString(), map[string]any{"notes": "x"})
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestDeleteSession(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")

	res, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID:  form.ID,
		Answers: map[string]any{"notes": "x", "household_size": 1, "has_children": false},
	})
	require.NoError(t, err)

	n, err := services.DeleteSession(ctx, db, res.SessionID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, err = services.GetSession(ctx, db, res.SessionID)
	assert.True(t, types.IsKind(err, types.KindNotFound))

	n, err = services.DeleteSession(ctx, db, res.SessionID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestAttachClient(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")
	john := johnDoe(t, db)

	res, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID:  form.ID,
		Answers: map[string]any{"notes": "x", "household_size": 1},
	})
	require.NoError(t, err)

	n, err := services.AttachClient(ctx, db, res.SessionID, &john.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rec, err := services.GetSession(ctx, db, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, john.ID, rec[services.KeyClientID])

	n, err = services.AttachClient(ctx, db, res.SessionID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.EqualValues(t, 0, countRows(t, db, &models.IntakeResponse{}, "client_id IS NOT NULL"))

	missing := uint64(999)
	_, err = services.AttachClient(ctx, db, res.SessionID, &missing)
	assert.True(t, types.IsKind(err, types.KindNotFound))

	_, err = services.AttachClient(ctx, db, uuid.NewString(), &john.ID)
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestMaterializeBySession(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")
	john := johnDoe(t, db)

	submit := func(answers map[string]any, clientID *uint64) string {
		res, err := services.SubmitResponses(ctx, db, services.SubmitInput{FormID: form.ID, ClientID: clientID, Answers: answers})
		require.NoError(t, err)
		return res.SessionID
	}

	oldest := submit(map[string]any{"household_size": 1, "notes": "first visit"}, nil)
	middle := submit(map[string]any{"household_size": 4, "notes": "Family of four"}, &john.ID)
	newest := submit(map[string]any{"household_size": 6, "has_children": true}, nil)
	backdate(t, db, oldest, 3*time.Hour)
	backdate(t, db, middle, 2*time.Hour)

	page, err := services.MaterializeBySession(ctx, db, form.ID, services.MaterializeQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, services.DefaultPageSize, page.PageSize)
	require.Len(t, page.Records, 3)
	assert.Equal(t, newest, page.Records[0][services.KeySessionID])
	assert.Equal(t, middle, page.Records[1][services.KeySessionID])
	assert.Equal(t, oldest, page.Records[2][services.KeySessionID])

	paged, err := services.MaterializeBySession(ctx, db, form.ID, services.MaterializeQuery{Page: services.Page{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, paged.Total)
	require.Len(t, paged.Records, 1)
	assert.Equal(t, oldest, paged.Records[0][services.KeySessionID])

	byNote, err := services.MaterializeBySession(ctx, db, form.ID, services.MaterializeQuery{Search: "FAMILY"})
	require.NoError(t, err)
	require.Len(t, byNote.Records, 1)
	assert.Equal(t, middle, byNote.Records[0][services.KeySessionID])

	byClient, err := services.MaterializeBySession(ctx, db, form.ID, services.MaterializeQuery{Search: "john doe"})
	require.NoError(t, err)
	require.Len(t, byClient.Records, 1)
	assert.Equal(t, middle, byClient.Records[0][services.KeySessionID])

	_, err = services.MaterializeBySession(ctx, db, 999, services.MaterializeQuery{})
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestMaterializeBySessionFilter(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")
	john := johnDoe(t, db)

	sessions := make(map[string]string)
	for name, in := range map[string]services.SubmitInput{
		"small":  {FormID: form.ID, Answers: map[string]any{"household_size": 1, "notes": "Quiet"}},
		"medium": {FormID: form.ID, Answers: map[string]any{"household_size": 3, "has_children": true}},
		"large":  {FormID: form.ID, ClientID: &john.ID, Answers: map[string]any{"household_size": 10, "has_children": true}},
	} {
		res, err := services.SubmitResponses(ctx, db, in)
		require.NoError(t, err)
		sessions[res.SessionID] = name
	}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"numeric gte", `{"clauses":[{"field":"household_size","op":"gte","value":3}]}`, []string{"large", "medium"}},
		{"numeric lt", `{"clauses":[{"field":"householdSize","op":"lt","value":"3"}]}`, []string{"small"}},
		{"text field numeric operand", `{"clauses":[{"field":"notes","op":"gt","value":5}]}`, []string{"small"}},
		{"eq ignores case", `{"clauses":[{"field":"notes","op":"eq","value":"quiet"}]}`, []string{"small"}},
		{"contains", `{"clauses":[{"field":"notes","op":"contains","value":"uie"}]}`, []string{"small"}},
		{"empty counts missing", `{"clauses":[{"field":"notes","op":"empty"}]}`, []string{"large", "medium"}},
		{"bool and", `{"combinator":"and","clauses":[{"field":"has_children","op":"eq","value":"true"},{"field":"household_size","op":"lte","value":3}]}`, []string{"medium"}},
		{"or", `{"combinator":"or","clauses":[{"field":"notes","op":"not_empty"},{"field":"household_size","op":"gt","value":5}]}`, []string{"large", "small"}},
		{"linked", `{"clauses":[{"field":"linked","op":"eq","value":true}]}`, []string{"large"}},
		{"unlinked", `{"clauses":[{"field":"linked","op":"eq","value":false}]}`, []string{"medium", "small"}},
		{"client id", `{"clauses":[{"field":"clientId","op":"eq","value":"` + strconv.FormatUint(john.ID, 10) + `"}]}`, []string{"large"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := filters.Parse(tt.filter)
			require.NoError(t, err)

			page, err := services.MaterializeBySession(ctx, db, form.ID, services.MaterializeQuery{Filter: f})
			require.NoError(t, err)

			got := make([]string, 0, len(page.Records))
			for _, rec := range page.Records {
				got = append(got, sessions[rec[services.KeySessionID].(string)])
			}
			assert.ElementsMatch(t, tt.want, got)
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestMaterializeByClient(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	intake, _ := intakeForm(t, db, "client_intake")
	exit, _ := testutil.SeedForm(t, db, "exit_survey",
		models.FormQuestion{FieldKey: "notes", IsVisible: true},
		models.FormQuestion{FieldKey: "would_recommend", QuestionType: models.QuestionBoolean, IsVisible: true},
	)
	john := johnDoe(t, db)

	first, err := services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID: intake.ID, ClientID: &john.ID,
		Answers: map[string]any{"notes": "arrived", "household_size": 2},
	})
	require.NoError(t, err)
	backdate(t, db, first.SessionID, 24*time.Hour)

	_, err = services.SubmitResponses(ctx, db, services.SubmitInput{
		FormID: exit.ID, ClientID: &john.ID,
		Answers: map[string]any{"notes": "moved out", "wouldRecommend": "yes"},
	})
	require.NoError(t, err)

	rec, err := services.MaterializeByClient(ctx, db, john.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, john.ID, rec[services.KeyClientID])
	assert.Equal(t, "moved out", rec["notes"])
	assert.Equal(t, 2.0, rec["householdSize"])
	assert.Equal(t, true, rec["would_recommend"])

	perForm, ok := rec[services.KeyFormResponses].(map[string]services.Record)
	require.True(t, ok)
	require.Len(t, perForm, 2)
	assert.Equal(t, "arrived", perForm["client_intake"]["notes"])
	assert.Equal(t, first.SessionID, perForm["client_intake"][services.KeySessionID])
	assert.Equal(t, "moved out", perForm["exit_survey"]["notes"])

	only, err := services.MaterializeByClient(ctx, db, john.ID, intake.ID)
	require.NoError(t, err)
	assert.Equal(t, "arrived", only["notes"])
	assert.Len(t, only[services.KeyFormResponses], 1)

	_, err = services.MaterializeByClient(ctx, db, 999, 0)
	assert.True(t, types.IsKind(err, types.KindNotFound))
}
