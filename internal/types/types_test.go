package types_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIDUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  types.FlexID
		isErr bool
	}{
		{"number", `{"id":42}`, types.FlexID{ID: 42, Valid: true, Set: true}, false},
		{"string", `{"id":" 42 "}`, types.FlexID{ID: 42, Valid: true, Set: true}, false},
		{"null", `{"id":null}`, types.FlexID{Set: true}, false},
		{"empty string", `{"id":""}`, types.FlexID{Set: true}, false},
		{"absent", `{}`, types.FlexID{}, false},
		{"bad string", `{"id":"abc"}`, types.FlexID{}, true},
		{"negative", `{"id":-1}`, types.FlexID{}, true},
		{"object", `{"id":{}}`, types.FlexID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				ID types.FlexID `json:"id"`
			}
			err := json.Unmarshal([]byte(tt.raw), &v)
			if tt.isErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.ID)
		})
	}
}

func TestFlexIDPtrAndMarshal(t *testing.T) {
	assert.Nil(t, types.FlexID{}.Ptr())

	id := types.NewFlexID(7)
	require.NotNil(t, id.Ptr())
	assert.Equal(t, uint64(7), *id.Ptr())

	raw, err := json.Marshal(map[string]types.FlexID{"a": id, "b": {}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":7,"b":null}`, string(raw))
}

func TestFlexListAcceptsObjectOrArray(t *testing.T) {
	type item struct {
		ID int `json:"id"`
	}

	var one types.FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(`{"id":1}`), &one))
	assert.Equal(t, []item{{ID: 1}}, one.Slice())

	var many types.FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1},{"id":2}]`), &many))
	assert.Equal(t, 2, many.Len())

	var none types.FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(`null`), &none))
	assert.Zero(t, none.Len())

	var bad types.FlexList[item]
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &bad))
}

func TestErrorKinds(t *testing.T) {
	err := types.NewConflictError("question %d has responses", 3)
	assert.Equal(t, types.KindConflict, types.KindOf(err))
	assert.Equal(t, "conflict: question 3 has responses", err.Error())

	wrapped := fmt.Errorf("delete: %w", err)
	assert.True(t, types.IsKind(wrapped, types.KindConflict))
	assert.Equal(t, types.ErrorKind(""), types.KindOf(errors.New("plain")))
}

func TestWrapDatabaseError(t *testing.T) {
	assert.NoError(t, types.WrapDatabaseError(nil, "op"))

	driverErr := errors.New("connection reset")
	err := types.WrapDatabaseError(driverErr, "list clients")
	assert.True(t, types.IsKind(err, types.KindDatabase))
	assert.ErrorIs(t, err, driverErr)

	notFound := types.NewNotFoundError("client 1 not found")
	assert.Same(t, notFound, types.WrapDatabaseError(notFound, "get client"))
}
