package cli

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	appeurostat "github.com/statload/backend/internal/application/eurostat"
	"github.com/statload/backend/internal/domain/eurostat"
)

// DatasetLoader checks and downloads Eurostat datasets
type DatasetLoader interface {
	IsUpToDate(ctx context.Context, code string) (bool, *eurostat.DownloadLog, error)
	DownloadDataset(ctx context.Context, code, title string) (*appeurostat.LoadResult, error)
}

// Navigator walks the Eurostat table of contents and offers to download
// the datasets it reaches.
type Navigator struct {
	console *Console
	loader  DatasetLoader
	logger  *zap.Logger
}

// NewNavigator creates a navigator
func NewNavigator(console *Console, loader DatasetLoader, log *zap.Logger) *Navigator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Navigator{console: console, loader: loader, logger: log}
}

// Run navigates from root until the user goes back from it or the input
// ends.
func (n *Navigator) Run(ctx context.Context, root *eurostat.Node) error {
	if root == nil {
		n.console.Warn("(Nessuna struttura trovata)")
		return nil
	}
	err := n.visit(ctx, root)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (n *Navigator) visit(ctx context.Context, node *eurostat.Node) error {
	if node.IsLeaf() {
		return n.offer(ctx, node)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.console.Title("Categoria: %s", node.PathString())
		options := make([][]string, len(node.Children))
		for i, child := range node.Children {
			kind := "categoria"
			if child.IsLeaf() {
				kind = "dataset"
			}
			options[i] = []string{child.Name, child.Code, kind}
		}
		choice, err := n.console.Choose([]string{"#", "Nome", "Codice", "Tipo"}, options)
		if err != nil {
			return err
		}
		if choice == 0 {
			return nil
		}
		if err := n.visit(ctx, node.Children[choice-1]); err != nil {
			return err
		}
	}
}

// offer downloads a dataset after confirmation unless it is up to date.
// A failed download is reported and navigation goes on.
func (n *Navigator) offer(ctx context.Context, leaf *eurostat.Node) error {
	n.console.Title("Sei sul dataset: %s (%s)", leaf.Name, leaf.Code)

	upToDate, _, err := n.loader.IsUpToDate(ctx, leaf.Code)
	if err != nil {
		return err
	}
	if upToDate {
		n.console.Println("Dataset '%s' è già aggiornato.", leaf.Code)
		return nil
	}

	ok, err := n.console.Confirm("Scaricare dataset '" + leaf.Name + "' (" + leaf.Code + ")? (yes/no): ")
	if err != nil || !ok {
		return err
	}
	res, err := n.loader.DownloadDataset(ctx, leaf.Code, leaf.Name)
	if err != nil {
		n.logger.Error("Dataset download failed", zap.String("dataset", leaf.Code), zap.Error(err))
		n.console.Error("Errore durante il download di %s: %v", leaf.Code, err)
		return nil
	}
	n.console.Success("Dataset %s caricato: %d righe, vista %s", res.Code, res.Rows, res.View)
	if len(res.Skipped) > 0 {
		n.console.Warn("Codelist non disponibili: %v", res.Skipped)
	}
	return nil
}
