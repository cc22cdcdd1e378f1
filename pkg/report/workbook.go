package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

// Sheet names of an exported run.
const (
	SheetSummary     = "Summary"
	SheetItems       = "Items"
	SheetGenerations = "Generations"
	SheetCrossovers  = "Crossovers"
	SheetMutations   = "Mutations"
)

// BuildWorkbook lays a run out over five sheets. The caller closes the file.
func BuildWorkbook(res *genetic.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetItems, SheetGenerations, SheetCrossovers, SheetMutations} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	writers := []func(*excelize.File, *genetic.Result) error{
		writeSummarySheet,
		writeItemsSheet,
		writeGenerationsSheet,
		writeCrossoversSheet,
		writeMutationsSheet,
	}
	for _, w := range writers {
		if err := w(f, res); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// WriteWorkbook streams the xlsx bytes of res to w.
func WriteWorkbook(w io.Writer, res *genetic.Result) error {
	f, err := BuildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// SaveWorkbook writes the xlsx export of res to path.
func SaveWorkbook(path string, res *genetic.Result) error {
	f, err := BuildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// writeRows writes rows starting at A1.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, res *genetic.Result) error {
	rows := [][]interface{}{
		{"Run ID", res.RunID},
		{"Population size", res.Config.PopulationSize},
		{"Max generations", res.Config.MaxGenerations},
		{"Mutation rate", res.Config.MutationRate},
		{"Degenerate policy", string(res.Config.DegeneratePolicy)},
		{"Capacity", res.Capacity},
		{"Records", res.RecordCount()},
		{"Crossovers", len(res.Crossovers)},
		{"Mutations", len(res.Mutations)},
	}
	if res.Best != nil {
		rows = append(rows,
			[]interface{}{"Best chromosome", res.Best.Chromosome.String()},
			[]interface{}{"Best fitness", res.Best.Fitness},
			[]interface{}{"Best weight", res.Best.Weight},
			[]interface{}{"Best generation", res.Best.Generation},
		)
	}
	return writeRows(f, SheetSummary, rows)
}

func writeItemsSheet(f *excelize.File, res *genetic.Result) error {
	rows := [][]interface{}{{"Index", "Value", "Weight", "Selected"}}
	for i, it := range res.Items {
		selected := res.Best != nil && i < len(res.Best.Chromosome) && res.Best.Chromosome[i]
		rows = append(rows, []interface{}{i, it.Value, it.Weight, selected})
	}
	return writeRows(f, SheetItems, rows)
}

func writeGenerationsSheet(f *excelize.File, res *genetic.Result) error {
	rows := [][]interface{}{{"Generation", "Position", "Chromosome", "Fitness"}}
	for _, g := range allRecords(res) {
		for pos, ind := range g.Population {
			rows = append(rows, []interface{}{g.Index, pos, ind.Genes.String(), ind.Fitness})
		}
	}
	return writeRows(f, SheetGenerations, rows)
}

func writeCrossoversSheet(f *excelize.File, res *genetic.Result) error {
	rows := [][]interface{}{{"Generation", "First", "Second", "Crossover point"}}
	for _, ev := range res.Crossovers {
		rows = append(rows, []interface{}{ev.Generation, ev.Chromosomes[0], ev.Chromosomes[1], ev.CrossoverPoint})
	}
	return writeRows(f, SheetCrossovers, rows)
}

func writeMutationsSheet(f *excelize.File, res *genetic.Result) error {
	rows := [][]interface{}{{"Generation", "Chromosome", "Mutation point"}}
	for _, ev := range res.Mutations {
		rows = append(rows, []interface{}{ev.Generation, ev.ChromosomeIndex, ev.MutationPoint})
	}
	return writeRows(f, SheetMutations, rows)
}
