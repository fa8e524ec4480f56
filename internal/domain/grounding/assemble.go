package grounding

import (
	"encoding/json"
	"strings"

	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
)

// Block is one rendered section: a header line plus its rendered lines.
type Block struct {
	Section string
	Lines   []string
}

// Text returns the block's wire form: an upper-cased header line, the
// rendered lines, and a blank separator line.
func (b Block) Text() string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(b.Section))
	sb.WriteString(":\n")
	for _, line := range b.Lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

// RenderBlock renders a section's records into a Block. List sections
// produce one bulleted line per record via the item template; singular
// sections produce exactly one line from the first record. Sections with
// neither template fall back to compact JSON per record.
func RenderBlock(name string, c manifest.SectionConfig, records []map[string]any) Block {
	b := Block{Section: name}
	switch {
	case c.ItemSummaryTemplate != "":
		tpl := Compile(c.ItemSummaryTemplate)
		for _, rec := range records {
			b.Lines = append(b.Lines, "- "+tpl.Render(rec))
		}
	case c.SummaryTemplate != "":
		b.Lines = append(b.Lines, Compile(c.SummaryTemplate).Render(records[0]))
	default:
		for _, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			b.Lines = append(b.Lines, "- "+string(data))
		}
	}
	return b
}

// Assemble concatenates blocks in order under the token budget. When adding
// a block would exceed the budget, assembly stops entirely; a half-rendered
// section is worse for grounding quality than omitting it, so this is a
// greedy priority-respecting truncation, not bin-packing.
func Assemble(blocks []Block, maxTokens int) Context {
	var sb strings.Builder
	total := 0
	included := []string{}
	for _, b := range blocks {
		text := b.Text()
		cost := EstimateTokens(text)
		if total+cost > maxTokens {
			break
		}
		sb.WriteString(text)
		total += cost
		included = append(included, b.Section)
	}
	return Context{Text: sb.String(), TokenEstimate: total, Sections: included}
}
