package services_test

import (
	"context"
	"testing"

	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/testutil"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntakeClient(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")

	res, err := services.CreateIntakeClient(ctx, db, services.IntakeClientInput{
		CreatedBy: "staff@example.org",
		UnitID:    7,
		FirstName: " Jane ",
		LastName:  "Roe",
		Fields:    map[string]any{"householdSize": 2, "notes": "arrived by bus", "unknown": "x"},
	}, "client_intake")
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.NotEmpty(t, res.SessionID)
	assert.Nil(t, res.ClientID)

	detail, err := services.GetIntakeClient(ctx, db, res.ID)
	require.NoError(t, err)
	assert.Equal(t, services.StatusPending, detail.Status)
	assert.Equal(t, "Jane", detail.FirstName)
	assert.Equal(t, form.ID, detail.FormID)
	assert.Equal(t, res.SessionID, detail.SessionID)

	assert.Equal(t, "Jane", detail.Responses["first_name"])
	assert.Equal(t, "Roe", detail.Responses["lastName"])
	assert.Equal(t, 2.0, detail.Responses["household_size"])
	assert.Equal(t, "arrived by bus", detail.Responses["notes"])
	assert.Equal(t, res.ID, detail.Responses[services.KeyIntakeClientID])
	assert.NotContains(t, detail.Responses, "unknown")
}

func TestCreateIntakeClientLinksExistingClient(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	form, _ := intakeForm(t, db, "client_intake")
	john := johnDoe(t, db)

	res, err := services.CreateIntakeClient(ctx, db, services.IntakeClientInput{
		CreatedBy: "staff@example.org",
		UnitID:    1,
		Status:    "screening",
		FirstName: "john",
		LastName:  "DOE",
		FormID:    form.ID,
		Fields:    map[string]any{"phone_number": "714.555.1234", "date_of_birth": "01/15/1990"},
	}, "")
	require.NoError(t, err)
	require.NotNil(t, res.ClientID)
	assert.Equal(t, john.ID, *res.ClientID)

	var ic models.IntakeClient
	require.NoError(t, db.First(&ic, res.ID).Error)
	assert.Equal(t, "screening", ic.Status)
	require.NotNil(t, ic.ClientID)
	assert.Equal(t, john.ID, *ic.ClientID)
}

func TestCreateIntakeClientRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	intakeForm(t, db, "client_intake")

	_, err := services.CreateIntakeClient(ctx, db, services.IntakeClientInput{
		CreatedBy: "staff@example.org",
		UnitID:    1,
		FirstName: "Jane",
		LastName:  "Roe",
		Fields:    map[string]any{"household_size": "a few"},
	}, "client_intake")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindValidation))

	assert.EqualValues(t, 0, countRows(t, db, &models.IntakeClient{}, "1 = 1"))
	assert.EqualValues(t, 0, countRows(t, db, &models.IntakeResponse{}, "1 = 1"))
}

func TestCreateIntakeClientRejects(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	intakeForm(t, db, "client_intake")

	valid := services.IntakeClientInput{CreatedBy: "staff", UnitID: 1, FirstName: "Jane", LastName: "Roe"}

	missingName := valid
	missingName.LastName = "  "
	_, err := services.CreateIntakeClient(ctx, db, missingName, "client_intake")
	assert.True(t, types.IsKind(err, types.KindValidation))

	missingUnit := valid
	missingUnit.UnitID = 0
	_, err = services.CreateIntakeClient(ctx, db, missingUnit, "client_intake")
	assert.True(t, types.IsKind(err, types.KindValidation))

	unknownForm := valid
	unknownForm.FormKey = "nope"
	_, err = services.CreateIntakeClient(ctx, db, unknownForm, "client_intake")
	assert.True(t, types.IsKind(err, types.KindNotFound))

	_, err = services.GetIntakeClient(ctx, db, 999)
	assert.True(t, types.IsKind(err, types.KindNotFound))
}
