package fillblank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSyncTextConfigs(t *testing.T) {
	tmpl := Parse("{BLANK_1} {BLANK_3}")

	custom := TextBlankConfig{BlankID: 1, Placeholder: strPtr("city"), Label: strPtr("Capital")}
	stale := TextBlankConfig{BlankID: 2, Label: strPtr("gone")}

	synced := SyncTextConfigs(tmpl, []TextBlankConfig{stale, custom})

	require.Len(t, synced, 2)
	assert.Equal(t, custom, synced[0], "surviving entry must be kept unchanged")
	assert.Equal(t, DefaultTextConfig(3), synced[1])
	assert.Equal(t, "Enter answer for blank 3", *synced[1].Placeholder)
	assert.Equal(t, "Blank 3", *synced[1].Label)
}

func TestSyncTextConfigs_KeepsNilFields(t *testing.T) {
	tmpl := Parse("{BLANK_4}")
	bare := TextBlankConfig{BlankID: 4}

	synced := SyncTextConfigs(tmpl, []TextBlankConfig{bare})

	require.Len(t, synced, 1)
	assert.Nil(t, synced[0].Placeholder)
	assert.Nil(t, synced[0].Label)
}

func TestSyncTextConfigs_DuplicateExistingCollapse(t *testing.T) {
	tmpl := Parse("{BLANK_1}")
	first := TextBlankConfig{BlankID: 1, Label: strPtr("first")}
	second := TextBlankConfig{BlankID: 1, Label: strPtr("second")}

	synced := SyncTextConfigs(tmpl, []TextBlankConfig{first, second})

	require.Len(t, synced, 1)
	assert.Equal(t, "first", *synced[0].Label)
}

func TestSyncDropdownConfigs(t *testing.T) {
	tmpl := Parse("pick {BLANK_2} and {BLANK_1}")

	synced := SyncDropdownConfigs(tmpl, []DropdownBlankConfig{{BlankID: 2, Label: strPtr("Colour")}})

	require.Len(t, synced, 2)
	assert.Equal(t, 1, synced[0].BlankID)
	assert.Equal(t, "Dropdown 1", *synced[0].Label)
	assert.Equal(t, "Colour", *synced[1].Label)
}

func TestSync_Idempotent(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		existing []TextBlankConfig
	}{
		{"empty", "", nil},
		{"fresh", "{BLANK_1} {BLANK_2}", nil},
		{"stale and custom", "{BLANK_2} {BLANK_5}", []TextBlankConfig{
			{BlankID: 1}, {BlankID: 5, Label: strPtr("five")}, {BlankID: 9},
		}},
		{"duplicates", "{BLANK_3}{BLANK_3}", []TextBlankConfig{{BlankID: 3}, {BlankID: 3, Label: strPtr("x")}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := Parse(tc.text)
			once := SyncTextConfigs(tmpl, tc.existing)
			twice := SyncTextConfigs(tmpl, once)
			assert.Equal(t, once, twice)
			ids := make([]int, len(once))
			for i, cfg := range once {
				ids[i] = cfg.BlankID
			}
			assert.Equal(t, BlankIDs(tmpl), ids)
		})
	}

	t.Run("dropdown", func(t *testing.T) {
		tmpl := Parse("{BLANK_8} {BLANK_2}")
		once := SyncDropdownConfigs(tmpl, []DropdownBlankConfig{{BlankID: 4}})
		assert.Equal(t, once, SyncDropdownConfigs(tmpl, once))
	})
}

func TestSync_EmptyTemplateDropsEverything(t *testing.T) {
	synced := SyncTextConfigs(Parse("no blanks"), []TextBlankConfig{{BlankID: 1}})
	assert.Empty(t, synced)
}

func TestPrune_CorrectAnswers(t *testing.T) {
	tmpl := Parse("{BLANK_1} {BLANK_3}")
	answers := []CorrectAnswer{
		{BlankID: 1, AnswerText: "a"},
		{BlankID: 2, AnswerText: "b"},
		{BlankID: 3, AnswerText: "c"},
		{BlankID: 2, AnswerText: "d"},
	}

	kept, orphaned := Prune(tmpl, answers, func(a CorrectAnswer) int { return a.BlankID })

	assert.Equal(t, []CorrectAnswer{answers[0], answers[2]}, kept)
	assert.Equal(t, []CorrectAnswer{answers[1], answers[3]}, orphaned)
}

func TestPrune_Options(t *testing.T) {
	tmpl := Parse("{BLANK_5}")
	options := []Option{{ID: 10, BlankID: 5}, {ID: 11, BlankID: 6}}

	kept, orphaned := Prune(tmpl, options, func(o Option) int { return o.BlankID })

	assert.Equal(t, []Option{options[0]}, kept)
	assert.Equal(t, []Option{options[1]}, orphaned)
}

func TestOrphanedBlankIDs(t *testing.T) {
	tmpl := Parse("{BLANK_1}")
	assert.Equal(t, []int{2, 4}, OrphanedBlankIDs(tmpl, []int{4, 1, 2, 4}))
	assert.Empty(t, OrphanedBlankIDs(tmpl, []int{1, 1}))
}
