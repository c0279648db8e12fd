package fillblank

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdict_JSON(t *testing.T) {
	res := Result{Blanks: map[int]Verdict{1: Correct, 2: Incorrect, 3: Ungraded}}

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blanks":{"1":true,"2":false,"3":null},"all_correct":false}`, string(data))

	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, res.Blanks, decoded.Blanks)
}

func TestVerdict_UnmarshalRejectsGarbage(t *testing.T) {
	var v Verdict
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &v))
}

func TestVerdict_Bool(t *testing.T) {
	assert.Nil(t, Ungraded.Bool())
	assert.True(t, *Correct.Bool())
	assert.False(t, *Incorrect.Bool())

	for _, v := range []Verdict{Correct, Incorrect, Ungraded} {
		assert.Equal(t, v, VerdictOf(v.Bool()))
	}
	assert.Equal(t, "ungraded", Ungraded.String())
}
