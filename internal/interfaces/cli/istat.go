package cli

import (
	"sort"
	"strings"

	appistat "github.com/statload/backend/internal/application/istat"
	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/infrastructure/warehouse"
)

// SelectCategory lists the categories as "id => name" and reads an id until
// a listed one is typed. "0" cancels and returns "".
func (c *Console) SelectCategory(cats []sdmx.Category) (string, error) {
	if len(cats) == 0 {
		c.Warn("Nessuna categoria trovata nella tabella 'categories'.")
		return "", nil
	}
	sorted := append([]sdmx.Category(nil), cats...)
	sdmx.SortCategories(sorted)
	index := make(map[string]struct{}, len(sorted))

	c.Title("Categorie disponibili (category_id => Nome):")
	for _, cat := range sorted {
		index[cat.ID] = struct{}{}
		c.Println(" - %s => %s", cat.ID, cat.DisplayName())
	}
	for {
		answer, err := c.Ask("\nDigita l'ID della categoria (0 per annullare): ")
		if err != nil {
			return "", err
		}
		if answer == "0" {
			return "", nil
		}
		if _, ok := index[answer]; ok {
			c.Println("Hai selezionato la categoria con ID: %s", answer)
			return answer, nil
		}
		c.Warn("L'ID '%s' non esiste tra le categorie. Riprova (o digita 0 per annullare).", answer)
	}
}

// SelectDataflows lists flows and reads a comma separated list of ids.
// Ids not listed are dropped.
func (c *Console) SelectDataflows(flows []sdmx.Dataflow) ([]string, error) {
	c.Title("Dataflow associati:")
	listed := make([]sdmx.Dataflow, 0, len(flows))
	rows := make([][]string, 0, len(flows))
	for _, df := range flows {
		listed = append(listed, df)
		rows = append(rows, []string{df.ID, df.DisplayName()})
	}
	c.Table([]string{"ID", "Nome"}, rows)

	answer, err := c.Ask("\nInserisci ID dataflow da scaricare (virgole), tra quelli elencati: ")
	if err != nil {
		return nil, err
	}
	ids, rejected := sdmx.FilterKnown(sdmx.ParseDataflowIDs(answer), listed)
	if len(rejected) > 0 {
		c.Warn("Ignorati: %s", strings.Join(rejected, ", "))
	}
	if len(ids) == 0 {
		c.Warn("Nessun dataflow valido scelto.")
	}
	return ids, nil
}

// PrintImport summarizes an import
func (c *Console) PrintImport(res *appistat.ImportResult) {
	if res == nil {
		return
	}
	if cl := res.Classifications; cl != nil {
		c.Println("Codelist caricate: %d, già presenti: %d", len(cl.Loaded), len(cl.Skipped))
		for _, f := range cl.Failed {
			c.Error("Codelist %s: %s", f.ID, f.Error)
		}
	}
	if t := res.Tables; t != nil {
		ids := make([]string, 0, len(t.Loaded))
		for id := range t.Loaded {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			c.Success("Tabella %s: %d righe", id, t.Loaded[id])
		}
		for _, id := range t.Skipped {
			c.Println("Tabella %s già importata", id)
		}
		for _, id := range t.Empty {
			c.Warn("Tabella %s vuota", id)
		}
		for _, f := range t.Failed {
			c.Error("Tabella %s: %s", f.ID, f.Error)
		}
	}
	if v := res.Views; v != nil {
		for _, name := range v.Created {
			c.Success("Vista creata: %s", name)
		}
		for _, id := range v.Skipped {
			c.Warn("Nessuna codelist per %s, vista non creata", id)
		}
		for _, f := range v.Failed {
			c.Error("Vista %s: %s", f.ID, f.Error)
		}
	}
}

// PrintViews lists the published views with their descriptions
func (c *Console) PrintViews(views []warehouse.ViewInfo) {
	c.Title("Viste disponibili:")
	if len(views) == 0 {
		c.Println("(nessuna vista)")
		return
	}
	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{v.Name, strings.ReplaceAll(v.Description, "\n", " / ")}
	}
	c.Table([]string{"Vista", "Descrizione"}, rows)
}
