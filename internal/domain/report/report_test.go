package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/domain/ckan"
	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/sdmx"
)

func sampleTree(t *testing.T) *eurostat.Node {
	t.Helper()
	root := eurostat.NewBranch("data", "Database by themes", nil)
	general := eurostat.NewBranch("general", "General", root.Path)
	require.NoError(t, root.AddChild(general))
	require.NoError(t, general.AddChild(eurostat.NewLeaf("tec00114", "GDP per capita", general.Path)))
	return root
}

func TestEurostatStructure(t *testing.T) {
	s := EurostatStructure(sampleTree(t))

	want := EurostatTitle + "\n" +
		strings.Repeat("=", len(EurostatTitle)) + "\n\n" +
		"* Database by themes (codice: data)\n" +
		"  * General (codice: general)\n" +
		"    - GDP per capita (codice: tec00114)\n"
	assert.Equal(t, want, s.Text())

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Line{
		Text:  "    - GDP per capita (codice: tec00114)",
		Depth: 2, Kind: KindLeaf, Code: "tec00114", Name: "GDP per capita",
		Path: "Database by themes > General > GDP per capita",
	}, entries[2])
}

func TestEurostatStructure_Nil(t *testing.T) {
	s := EurostatStructure(nil)
	assert.True(t, strings.HasSuffix(s.Text(), "\n\n(Nessuna struttura trovata)\n"))
}

func TestIstatStructure(t *testing.T) {
	cats := []sdmx.Category{
		{ID: "POP", NameEN: "Population"},
		{ID: "AGR", NameIT: "Agricoltura"},
		{ID: "EMPTY"},
	}
	flows := []sdmx.Dataflow{
		{ID: "AGR_2", NameIT: "Allevamenti"},
		{ID: "AGR_1", NameIT: "Coltivazioni", RefID: "DCSP_COLT"},
		{ID: "POP_1", RefID: "DCIS_POP"},
		{ID: "NOPREFIX"},
		{ID: "XYZ_1", NameEN: "Orphan"},
	}
	set := sdmx.StructureSet{
		Structures: []sdmx.DataStructure{
			{ID: "DCSP_COLT", NameIT: "Coltivazioni"},
			{ID: "DCIS_POP", NameEN: "Pop"},
		},
		Details: []sdmx.StructureDetail{
			{DataStructureID: "DCSP_COLT", Type: sdmx.ComponentDimension, DetailID: "FREQ", EnumID: "CL_FREQ"},
			{DataStructureID: "DCSP_COLT", Type: sdmx.ComponentDimension, DetailID: "TIPO"},
			{DataStructureID: "DCSP_COLT", Type: sdmx.ComponentAttribute, DetailID: "OBS_STATUS", EnumID: "CL_OBS"},
		},
	}

	text := IstatStructure(cats, flows, set).Text()
	want := IstatTitle + "\n" + strings.Repeat("=", len(IstatTitle)) + "\n\n" +
		"* Categoria: AGR  (Nome: Agricoltura)\n" +
		"   - Dataflow: AGR_1  (Nome: Coltivazioni)\n" +
		"       -> DataStructure: DCSP_COLT (Nome: Coltivazioni)\n" +
		"           -> Dimensione: FREQ, codelist = CL_FREQ\n" +
		"           -> Dimensione: TIPO (no codelist)\n" +
		"\n" +
		"   - Dataflow: AGR_2  (Nome: Allevamenti)\n" +
		"       (DataStructure non trovata o ref_id mancante)\n" +
		"\n" +
		"\n" +
		"* Categoria: EMPTY  (Nome: N/A)\n" +
		"   - Nessun dataflow associato a questa categoria.\n" +
		"\n" +
		"* Categoria: POP  (Nome: Population)\n" +
		"   - Dataflow: POP_1  (Nome: N/A)\n" +
		"       -> DataStructure: DCIS_POP (Nome: Pop)\n" +
		"           Nessuna dimensione con codelist associata trovata.\n" +
		"\n" +
		"\n" +
		"* CATEGORIA SCONOSCIUTA (Dataflow senza prefisso underscore)\n" +
		"   - Dataflow: NOPREFIX (Nome: N/A)\n" +
		"   - Dataflow: XYZ_1 (Nome: Orphan)\n" +
		"\n"
	assert.Equal(t, want, text)
}

func TestMURStructure(t *testing.T) {
	long := strings.Repeat("a", 250)
	groups := ckan.GroupByTag([]ckan.Dataset{
		{ID: "iscritti", Name: "Iscritti", Notes: long, Tags: []string{"Studenti"}},
		{ID: "atenei", Name: "atenei"},
	})

	s := MURStructure(groups)
	want := MURTitle + "\n" + strings.Repeat("=", len(MURTitle)) + "\n\n" +
		"TAG: Senza Tag\n" +
		"   - dataset: atenei (ID: atenei)\n" +
		"\n" +
		"TAG: Studenti\n" +
		"   - dataset: Iscritti (ID: iscritti)\n" +
		"       descrizione: " + strings.Repeat("a", 200) + "...\n" +
		"\n"
	assert.Equal(t, want, s.Text())

	kinds := make([]string, 0)
	for _, e := range s.Entries() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{KindTag, KindDataset, KindTag, KindDataset, KindNote}, kinds)
}
