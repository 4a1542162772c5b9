package services_test

import (
	"context"
	"testing"

	"github.com/localnerve/shelter-intake/data"
	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFormsIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	created, err := services.SeedForms(ctx, db, data.SeedForms)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = services.SeedForms(ctx, db, data.SeedForms)
	require.NoError(t, err)
	assert.Zero(t, created)

	form, err := services.GetFormByKey(ctx, db, "client_intake")
	require.NoError(t, err)
	assert.True(t, form.IsActive)

	questions, err := services.ListQuestions(ctx, db, form.ID, true)
	require.NoError(t, err)
	require.NotEmpty(t, questions)

	semantic := make(map[models.SemanticField]string)
	for i, q := range questions {
		assert.Equal(t, i+1, q.DisplayOrder, q.FieldKey)
		if q.SemanticField != models.SemanticNone {
			semantic[q.SemanticField] = q.FieldKey
			assert.True(t, q.IsCore, q.FieldKey)
			assert.True(t, q.IsVisible, q.FieldKey)
		}
		if q.QuestionType == models.QuestionSelect {
			assert.NotEmpty(t, q.Options, q.FieldKey)
		}
	}
	assert.Len(t, semantic, 4)

	_, err = services.GetFormByKey(ctx, db, "exit_survey")
	require.NoError(t, err)
}

func TestSeedFormsRejectsMalformedCatalog(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := services.SeedForms(context.Background(), db, []byte(`{"formKey":`))
	assert.Error(t, err)
}
