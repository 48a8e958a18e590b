package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appeurostat "github.com/statload/backend/internal/application/eurostat"
	"github.com/statload/backend/internal/domain/eurostat"
)

type MockDatasetLoader struct {
	mock.Mock
}

func (m *MockDatasetLoader) IsUpToDate(ctx context.Context, code string) (bool, *eurostat.DownloadLog, error) {
	args := m.Called(ctx, code)
	log, _ := args.Get(1).(*eurostat.DownloadLog)
	return args.Bool(0), log, args.Error(2)
}

func (m *MockDatasetLoader) DownloadDataset(ctx context.Context, code, title string) (*appeurostat.LoadResult, error) {
	args := m.Called(ctx, code, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appeurostat.LoadResult), args.Error(1)
}

func testTree(t *testing.T) *eurostat.Node {
	t.Helper()
	root := eurostat.NewBranch("data", "Database by themes", nil)
	pop := eurostat.NewBranch("pop", "Population", root.Path)
	require.NoError(t, root.AddChild(pop))
	require.NoError(t, pop.AddChild(eurostat.NewLeaf("tps00001", "Population on 1 January", pop.Path)))
	require.NoError(t, pop.AddChild(eurostat.NewLeaf("tps00002", "Births", pop.Path)))
	return root
}

func TestNavigator_DownloadsConfirmedDataset(t *testing.T) {
	loader := new(MockDatasetLoader)
	loader.On("IsUpToDate", mock.Anything, "tps00001").Return(false, nil, nil)
	loader.On("DownloadDataset", mock.Anything, "tps00001", "Population on 1 January").
		Return(&appeurostat.LoadResult{Code: "tps00001", Rows: 42, View: "population_on_1_january_[tps00001]"}, nil)

	// pop, first dataset, confirm, back to root, leave
	c, out := newTestConsole("1\n1\nyes\n0\n0\n")
	err := NewNavigator(c, loader, nil).Run(context.Background(), testTree(t))
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Categoria: Database by themes\n")
	assert.Contains(t, text, "Categoria: Database by themes > Population\n")
	assert.Contains(t, text, "Sei sul dataset: Population on 1 January (tps00001)")
	assert.Contains(t, text, "Dataset tps00001 caricato: 42 righe")
	loader.AssertExpectations(t)
}

func TestNavigator_UpToDateDatasetIsNotOffered(t *testing.T) {
	loader := new(MockDatasetLoader)
	loader.On("IsUpToDate", mock.Anything, "tps00002").
		Return(true, &eurostat.DownloadLog{DatasetCode: "TPS00002", LastDownloadDate: time.Now()}, nil)

	c, out := newTestConsole("1\n2\n0\n0\n")
	err := NewNavigator(c, loader, nil).Run(context.Background(), testTree(t))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Dataset 'tps00002' è già aggiornato.")
	loader.AssertNotCalled(t, "DownloadDataset", mock.Anything, mock.Anything, mock.Anything)
}

func TestNavigator_DeclinedAndFailedDownloads(t *testing.T) {
	loader := new(MockDatasetLoader)
	loader.On("IsUpToDate", mock.Anything, mock.Anything).Return(false, nil, nil)
	loader.On("DownloadDataset", mock.Anything, "tps00002", "Births").Return(nil, errors.New("upstream 500"))

	c, out := newTestConsole("1\n1\nno\n2\nyes\n")
	err := NewNavigator(c, loader, nil).Run(context.Background(), testTree(t))
	require.NoError(t, err, "end of input ends navigation")

	assert.Contains(t, out.String(), "Errore durante il download di tps00002: upstream 500")
	loader.AssertNumberOfCalls(t, "DownloadDataset", 1)
}

func TestNavigator_InvalidChoice(t *testing.T) {
	c, out := newTestConsole("7\nfoo\n0\n")
	err := NewNavigator(c, new(MockDatasetLoader), nil).Run(context.Background(), testTree(t))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out.String(), "Scelta non valida. Riprova."))
}

func TestNavigator_NilTree(t *testing.T) {
	c, out := newTestConsole("")
	require.NoError(t, NewNavigator(c, nil, nil).Run(context.Background(), nil))
	assert.Contains(t, out.String(), "(Nessuna struttura trovata)")
}

func TestNavigator_LookupErrorStops(t *testing.T) {
	loader := new(MockDatasetLoader)
	loader.On("IsUpToDate", mock.Anything, "tps00001").Return(false, nil, errors.New("db down"))

	c, _ := newTestConsole("1\n1\n")
	err := NewNavigator(c, loader, nil).Run(context.Background(), testTree(t))
	assert.EqualError(t, err, "db down")
}
