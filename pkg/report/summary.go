// Package report renders run results as localized text and as xlsx workbooks.
package report

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

const (
	msgTitle       = "Knapsack genetic algorithm run %s\n"
	msgParameters  = "population %d, generations %d, mutation rate %.2f, capacity %.2f\n"
	msgBest        = "best %s fitness %.2f weight %.2f (generation %d)\n"
	msgNoBest      = "no individual was recorded\n"
	msgSelected    = "selected items: %s\n"
	msgEvents      = "%d records, %d crossovers, %d mutations\n"
	msgGenerations = "generation  best  average  total\n"
	msgGeneration  = "%10d  %4.2f  %7.2f  %5.2f\n"
)

var supported = []language.Tag{language.English, language.Chinese}

var matcher = language.NewMatcher(supported)

func init() {
	zh := language.Chinese
	message.SetString(zh, msgTitle, "背包遗传算法运行 %s\n")
	message.SetString(zh, msgParameters, "种群 %d，代数 %d，变异率 %.2f，容量 %.2f\n")
	message.SetString(zh, msgBest, "最优 %s 适应度 %.2f 重量 %.2f（第 %d 代）\n")
	message.SetString(zh, msgNoBest, "没有记录任何个体\n")
	message.SetString(zh, msgSelected, "选中物品: %s\n")
	message.SetString(zh, msgEvents, "%d 条记录，%d 次交叉，%d 次变异\n")
	message.SetString(zh, msgGenerations, "代  最优  平均  总和\n")
}

// Printer returns a message printer for lang, falling back to English.
func Printer(lang string) *message.Printer {
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()
	switch base.String() {
	case "zh":
		return message.NewPrinter(language.Chinese)
	default:
		return message.NewPrinter(language.English)
	}
}

// Summary renders res as plain text. When generations is true one line per
// generation record is appended.
func Summary(res *genetic.Result, lang string, generations bool) string {
	p := Printer(lang)
	var sb strings.Builder

	runID := res.RunID
	if runID == "" {
		runID = "-"
	}
	sb.WriteString(p.Sprintf(msgTitle, runID))
	sb.WriteString(p.Sprintf(msgParameters,
		res.Config.PopulationSize, res.Config.MaxGenerations, res.Config.MutationRate, res.Capacity))

	if res.Best != nil {
		sb.WriteString(p.Sprintf(msgBest, res.Best.Chromosome.String(), res.Best.Fitness, res.Best.Weight, res.Best.Generation))
		sb.WriteString(p.Sprintf(msgSelected, formatIndices(res.Best.SelectedItems)))
	} else {
		sb.WriteString(p.Sprintf(msgNoBest))
	}
	sb.WriteString(p.Sprintf(msgEvents, res.RecordCount(), len(res.Crossovers), len(res.Mutations)))

	if generations {
		sb.WriteString(p.Sprintf(msgGenerations))
		for _, g := range allRecords(res) {
			best, _ := g.Best()
			sb.WriteString(p.Sprintf(msgGeneration, g.Index, best.Fitness, g.AverageFitness(), g.TotalFitness))
		}
	}
	return sb.String()
}

func allRecords(res *genetic.Result) []genetic.Generation {
	out := make([]genetic.Generation, 0, res.RecordCount())
	out = append(out, res.InitialGeneration)
	return append(out, res.Generations...)
}

func formatIndices(idx []int) string {
	if len(idx) == 0 {
		return "-"
	}
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
