package eurostatapi

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/config"
)

const tocXML = `<?xml version="1.0" encoding="UTF-8"?>
<nt:tree xmlns:nt="urn:eu.europa.ec.eurostat.navtree">
  <nt:branch>
    <nt:title language="de">Daten</nt:title>
    <nt:title language="en"> Database by themes </nt:title>
    <nt:code>data</nt:code>
    <nt:children>
      <nt:branch>
        <nt:title language="en">General and regional statistics</nt:title>
        <nt:code>general</nt:code>
        <nt:children>
          <nt:leaf type="dataset">
            <nt:title language="en">GDP per capita</nt:title>
            <nt:code>tec00114</nt:code>
          </nt:leaf>
        </nt:children>
      </nt:branch>
      <nt:leaf type="table">
        <nt:code>nama_10_gdp</nt:code>
      </nt:leaf>
    </nt:children>
  </nt:branch>
</nt:tree>`

func TestParseTOC(t *testing.T) {
	root, err := ParseTOC(strings.NewReader(tocXML))
	require.NoError(t, err)

	assert.Equal(t, eurostat.NodeBranch, root.Kind)
	assert.Equal(t, "data", root.Code)
	assert.Equal(t, "Database by themes", root.Name)
	assert.Equal(t, []string{"Database by themes"}, root.Path)
	require.Len(t, root.Children, 2)

	general := root.Children[0]
	assert.Equal(t, "general", general.Code)
	require.Len(t, general.Children, 1)
	leaf := general.Children[0]
	assert.True(t, leaf.IsLeaf())
	assert.Equal(t, "GDP per capita", leaf.Name)
	assert.Equal(t, "Database by themes > General and regional statistics > GDP per capita", leaf.PathString())

	untitled := root.Children[1]
	assert.True(t, untitled.IsLeaf())
	assert.Equal(t, "nama_10_gdp", untitled.Name, "missing English title falls back to the code")
}

func TestParseTOC_NoBranch(t *testing.T) {
	_, err := ParseTOC(strings.NewReader(`<nt:tree xmlns:nt="urn:eu.europa.ec.eurostat.navtree"/>`))
	assert.ErrorIs(t, err, shared.ErrEmptyCatalogue)
}

func TestParseTSV(t *testing.T) {
	body := "freq,unit,geo\\TIME_PERIOD\t2020 \t2021 \t2022-Q1 \n" +
		"A,PC_GDP,AT\t1.5 \t2.25 p\t: \n" +
		"A,PC_GDP,IT\t:c\t-0.4 e\t3 \n"

	ds, err := ParseTSV(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"freq", "unit", "geo", "2020", "2021", "2022q1"}, ds.Columns)
	assert.Equal(t, []string{"freq", "unit", "geo"}, ds.Params)
	assert.Equal(t, []string{"freq", "unit", "geo"}, ds.DimensionColumns())
	assert.Equal(t, []string{"2020", "2021", "2022q1"}, ds.TimeColumns())
	require.Len(t, ds.Rows, 2)

	first := ds.Rows[0]
	assert.Equal(t, "AT", first[2])
	assert.True(t, decimal.RequireFromString("1.5").Equal(first[3].(decimal.Decimal)))
	assert.True(t, decimal.RequireFromString("2.25").Equal(first[4].(decimal.Decimal)), "flag is dropped")
	assert.Nil(t, first[5])

	second := ds.Rows[1]
	assert.Nil(t, second[3], "missing value with attached flag")
	assert.True(t, decimal.RequireFromString("-0.4").Equal(second[4].(decimal.Decimal)))
}

func TestParseTSV_TimePeriodWithSpace(t *testing.T) {
	ds, err := ParseTSV(strings.NewReader("unit,GEO\\TIME PERIOD\t2020\nNR,DE\t7\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"unit", "geo", "2020"}, ds.Columns)
	assert.Equal(t, []string{"unit", "geo"}, ds.Params)
}

func TestParseTSV_ShortRowIsPadded(t *testing.T) {
	ds, err := ParseTSV(strings.NewReader("unit,geo\\TIME_PERIOD\t2020\t2021\nNR\t7\n"))
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, []any{"NR", "", decimal.RequireFromString("7"), nil}, ds.Rows[0])
}

func TestParseTSV_Empty(t *testing.T) {
	_, err := ParseTSV(strings.NewReader(""))
	assert.ErrorIs(t, err, shared.ErrEmptyDataset)

	_, err = ParseTSV(strings.NewReader("unit,geo\\TIME_PERIOD\t2020\n"))
	assert.ErrorIs(t, err, shared.ErrEmptyDataset, "header only")
}

func TestParseTSV_DuplicateColumns(t *testing.T) {
	_, err := ParseTSV(strings.NewReader("unit,geo\\TIME_PERIOD\t2020\t2020 \nNR,DE\t1\t2\n"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestParseObservation(t *testing.T) {
	tests := []struct {
		cell string
		want string
		ok   bool
	}{
		{"12.5", "12.5", true},
		{"12.5 p", "12.5", true},
		{"7b", "7", true},
		{": ", "", false},
		{": c", "", false},
		{"", "", false},
		{"n/a", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := ParseObservation(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestParseCodelist(t *testing.T) {
	body := `<m:Structure xmlns:m="http://www.sdmx.org/resources/sdmxml/schemas/v2_1/message"
  xmlns:s="http://www.sdmx.org/resources/sdmxml/schemas/v2_1/structure"
  xmlns:c="http://www.sdmx.org/resources/sdmxml/schemas/v2_1/common">
<m:Structures><s:Codelists><s:Codelist id="GEO">
  <s:Code id="AT"><c:Name xml:lang="en">Austria</c:Name></s:Code>
  <s:Code id="IT"><c:Name xml:lang="it">Italia</c:Name></s:Code>
</s:Codelist></s:Codelists></m:Structures></m:Structure>`

	codes, err := ParseCodelist(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "Austria", codes[0].Description())
	assert.Equal(t, "Italia", codes[1].Description())
}

func TestEndpoints(t *testing.T) {
	e := NewEndpoints(config.EurostatConfig{
		TOCURL:          "https://example.test/toc/xml",
		DataURL:         "https://example.test/sdmx/2.1/data/",
		CodelistURL:     "https://example.test/sdmx/2.1/codelist/ESTAT",
		DatasetLinkBase: "https://example.test/dataset/",
	})

	assert.Equal(t, "https://example.test/toc/xml", e.TOC())
	assert.Equal(t, "https://example.test/sdmx/2.1/data/TEC00114?format=TSV&compressed=false", e.Data("tec00114"))
	assert.Equal(t, "https://example.test/sdmx/2.1/codelist/ESTAT/GEO/latest?format=sdmx_2.1_structure", e.Codelist("geo"))
	assert.Equal(t, "https://example.test/dataset/tec00114", e.DatasetLink("TEC00114"))
}
