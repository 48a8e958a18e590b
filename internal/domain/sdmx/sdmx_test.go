package sdmx

import (
	"errors"
	"testing"

	"github.com/statload/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestCategoryMapper_LongestPrefixWins(t *testing.T) {
	mapper := NewCategoryMapper([]Category{
		{ID: "22"},
		{ID: "22_289"},
		{ID: "22_28"},
		{ID: "101"},
	})

	tests := []struct {
		dataflow string
		want     string
		ok       bool
	}{
		{"22_289_DF_DCIS_POPRES1_1", "22_289", true},
		{"22_28_DF_X", "22_28", true},
		{"22_315_DF_Y", "22", true},
		{"101_1015_DF_Z", "101", true},
		{"1011_DF", "", false},
		{"22", "", false},
		{"DCIS_POPRES1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.dataflow, func(t *testing.T) {
			got, ok := mapper.CategoryFor(tt.dataflow)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryMapper_Map(t *testing.T) {
	mapper := NewCategoryMapper([]Category{{ID: "22"}, {ID: "39"}})

	links := mapper.Map([]string{"22_1", "77_2", "39_9"})

	assert.Equal(t, []DataflowCategory{
		{DataflowID: "22_1", CategoryID: "22"},
		{DataflowID: "39_9", CategoryID: "39"},
	}, links)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Popolazione", Category{ID: "1", NameIT: "Popolazione", NameEN: "Population"}.DisplayName())
	assert.Equal(t, "Population", Category{ID: "1", NameEN: "Population"}.DisplayName())
	assert.Equal(t, "1", Category{ID: "1"}.DisplayName())
	assert.Equal(t, "DF", Dataflow{ID: "DF"}.DisplayName())
}

func TestDataflow_TableName(t *testing.T) {
	assert.Equal(t, "DF_1_DSD_1", Dataflow{ID: "DF_1", RefID: "DSD_1"}.TableName())
	assert.Equal(t, "DF_1", Dataflow{ID: "DF_1"}.TableName())
}

func TestCategoryPrefix(t *testing.T) {
	assert.Equal(t, "22", CategoryPrefix("22_289_DF"))
	assert.Equal(t, "", CategoryPrefix("NOPREFIX"))
}

func TestParseDataflowIDs(t *testing.T) {
	assert.Equal(t, []string{"A", "B_1", "C"}, ParseDataflowIDs(" A, B_1 ,,C , "))
	assert.Nil(t, ParseDataflowIDs("  "))
}

func TestFilterKnown(t *testing.T) {
	known := []Dataflow{{ID: "A"}, {ID: "B"}}

	kept, rejected := FilterKnown([]string{"B", "X", "A"}, known)

	assert.Equal(t, []string{"B", "A"}, kept)
	assert.Equal(t, []string{"X"}, rejected)
}

func TestCode_Description(t *testing.T) {
	assert.Equal(t, "Italy", Code{ID: "IT", NameIT: "Italia", NameEN: "Italy"}.Description())
	assert.Equal(t, "Italia", Code{ID: "IT", NameIT: "Italia"}.Description())
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("DF"))
	assert.True(t, errors.Is(ValidateID(" "), shared.ErrInvalidInput))
}

func TestStructureSet_StructureIDs(t *testing.T) {
	set := StructureSet{Structures: []DataStructure{{ID: "A"}, {ID: "B"}}}
	assert.Equal(t, []string{"A", "B"}, set.StructureIDs())
}
