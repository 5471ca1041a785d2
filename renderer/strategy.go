package renderer

import (
	"bytes"
	"strconv"

	"github.com/etnz/backtest/strategy"
	md "github.com/nao1215/markdown"
)

// StrategiesMarkdown describes strategies and their parameters.
func StrategiesMarkdown(infos []strategy.Info) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Strategies")
	for _, info := range infos {
		doc.H2(info.Name)
		doc.PlainText(info.Description)
		if len(info.Parameters) == 0 {
			continue
		}
		set := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignLeft},
			Header:    []string{"Parameter", "Default", "Description"},
			Rows:      [][]string{},
		}
		for _, p := range info.Parameters {
			set.Rows = append(set.Rows, []string{p.Name, strconv.FormatFloat(p.Default, 'g', -1, 64), p.Description})
		}
		doc.Table(set)
	}
	return doc.String()
}
