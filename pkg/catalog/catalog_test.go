package catalog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/knapsackga/pkg/config"
	"github.com/kasuganosora/knapsackga/pkg/knapsack"
)

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig().Catalog

	src, err := NewSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ReferenceSource{}, src)

	cfg.Source = "json"
	cfg.Path = "items.json"
	src, err = NewSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	cfg.Source = "xlsx"
	src, err = NewSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ExcelSource{}, src)

	cfg.Source = "sql"
	cfg.Driver = "sqlite"
	cfg.DSN = filepath.Join(t.TempDir(), "items.db")
	src, err = NewSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLSource{}, src)

	cfg.Source = "csv"
	_, err = NewSource(cfg)
	assert.True(t, errors.Is(err, ErrCatalog))
}

func TestReferenceSource(t *testing.T) {
	problem, err := (&ReferenceSource{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, knapsack.ReferenceItems(), problem.Items())
	assert.Equal(t, 15.0, problem.Capacity())

	problem, err = (&ReferenceSource{Capacity: 20}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20.0, problem.Capacity())
}

func TestFileSource_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	content := `{"capacity": 9, "items": [{"value": 3, "weight": 4}, {"value": 5, "weight": 6}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	problem, err := (&FileSource{Path: path, Capacity: 15}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9.0, problem.Capacity())
	assert.Equal(t, []knapsack.Item{{Value: 3, Weight: 4}, {Value: 5, Weight: 6}}, problem.Items())
}

func TestFileSource_YAMLUsesConfiguredCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	content := "items:\n  - value: 1\n    weight: 2\n  - value: 7\n    weight: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	problem, err := (&FileSource{Path: path, Capacity: 4}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.0, problem.Capacity())
	assert.Equal(t, 2, problem.Length())
}

func TestFileSource_Errors(t *testing.T) {
	_, err := (&FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}).Load(context.Background())
	assert.True(t, errors.Is(err, ErrCatalog))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = (&FileSource{Path: path}).Load(context.Background())
	assert.True(t, errors.Is(err, ErrCatalog))

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"items": []}`), 0644))
	_, err = (&FileSource{Path: empty}).Load(context.Background())
	assert.True(t, errors.Is(err, knapsack.ErrInvalidProblem))
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	path := filepath.Join(t.TempDir(), "items.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExcelSource(t *testing.T) {
	path := writeWorkbook(t, "Items", [][]interface{}{
		{"Name", "Weight", "Value"},
		{"tent", 12, 4},
		{"stove", 2, 2},
		{},
		{"map", 1, 1},
	})

	problem, err := (&ExcelSource{Path: path, Sheet: "Items", Capacity: 15}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []knapsack.Item{
		{Value: 4, Weight: 12},
		{Value: 2, Weight: 2},
		{Value: 1, Weight: 1},
	}, problem.Items())
	assert.Equal(t, 15.0, problem.Capacity())
}

func TestExcelSource_CustomColumns(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"price", "kg"},
		{10, 4},
	})

	problem, err := (&ExcelSource{Path: path, ValueColumn: "price", WeightColumn: "kg"}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []knapsack.Item{{Value: 10, Weight: 4}}, problem.Items())
}

func TestExcelSource_Errors(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"value", "weight"},
		{"lots", 4},
	})

	_, err := (&ExcelSource{Path: path}).Load(context.Background())
	assert.True(t, errors.Is(err, ErrCatalog))

	_, err = (&ExcelSource{Path: path, Sheet: "Nope"}).Load(context.Background())
	assert.True(t, errors.Is(err, ErrCatalog))

	noHeader := writeWorkbook(t, "Sheet1", [][]interface{}{{"a", "b"}, {1, 2}})
	_, err = (&ExcelSource{Path: noHeader}).Load(context.Background())
	assert.True(t, errors.Is(err, ErrCatalog))
}

func TestSQLSource_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "items.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE gear (pos INTEGER, val REAL, wt REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO gear (pos, val, wt) VALUES (2, 2, 2), (1, 4, 12), (3, 10, 4)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := NewSQLSource(SQLConfig{
		Driver:       "sqlite",
		DSN:          dsn,
		Table:        "gear",
		ValueColumn:  "val",
		WeightColumn: "wt",
		OrderColumn:  "pos",
		Capacity:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "val", "wt" FROM "gear" ORDER BY "pos" ASC`, src.Query())
	assert.Equal(t, "sqlite:gear", src.Name())

	problem, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []knapsack.Item{
		{Value: 4, Weight: 12},
		{Value: 2, Weight: 2},
		{Value: 10, Weight: 4},
	}, problem.Items())
}

func TestSQLSource_MissingTable(t *testing.T) {
	src, err := NewSQLSource(SQLConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "empty.db")})
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.True(t, errors.Is(err, ErrCatalog))
}

func TestSQLSource_RetriesFailedQuery(t *testing.T) {
	src, err := NewSQLSource(SQLConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "empty.db"), Retries: 1})
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalog))
	assert.Contains(t, err.Error(), "max retries (1) exceeded")
}

func TestNewSQLSource_Dialects(t *testing.T) {
	src, err := NewSQLSource(SQLConfig{
		Driver:      "mysql",
		DSN:         "user:secret@tcp(localhost:3306)/shop",
		OrderColumn: "id",
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT `value`, `weight` FROM `items` ORDER BY `id` ASC", src.Query())

	src, err = NewSQLSource(SQLConfig{Driver: "postgres", DSN: "postgres://localhost/shop"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "value", "weight" FROM "items"`, src.Query())
}

func TestNewSQLSource_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  SQLConfig
	}{
		{"unknown driver", SQLConfig{Driver: "oracle", DSN: "x"}},
		{"empty dsn", SQLConfig{Driver: "sqlite"}},
		{"bad mysql dsn", SQLConfig{Driver: "mysql", DSN: "not a dsn"}},
		{"injected table", SQLConfig{Driver: "sqlite", DSN: "x.db", Table: "items; DROP TABLE items"}},
		{"injected column", SQLConfig{Driver: "sqlite", DSN: "x.db", ValueColumn: "value\""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLSource(tt.cfg)
			assert.True(t, errors.Is(err, ErrCatalog), "%v", err)
		})
	}
}
