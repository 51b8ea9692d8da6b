package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
)

const (
	msgNoContributions = "No contributions found."
	topLanguages       = 5
	topExtensions      = 6
	topCategories      = 4
	noExtension        = "(none)"
)

type textWriter struct {
	w       io.Writer
	heading *color.Color
	muted   *color.Color
	err     error
}

func writeText(w io.Writer, doc Document, noColor bool) error {
	tw := &textWriter{
		w:       w,
		heading: color.New(color.FgCyan, color.Bold),
		muted:   color.New(color.Faint),
	}

	if noColor {
		tw.heading.DisableColor()
		tw.muted.DisableColor()
	}

	tw.title("Contributions " + doc.Window)

	if len(doc.Rows) == 0 {
		tw.line(msgNoContributions)

		return tw.err
	}

	tw.section("By repository", repositoryTable(doc))
	tw.section("By author", authorTable(doc))
	tw.breakdown(doc)
	tw.section("Weekly activity", weeklyTable(doc))
	tw.section("Languages", languageTable(doc))

	return tw.err
}

func (tw *textWriter) title(s string) {
	if tw.err != nil {
		return
	}

	_, tw.err = tw.heading.Fprintln(tw.w, s)
}

func (tw *textWriter) line(s string) {
	if tw.err != nil {
		return
	}

	_, tw.err = tw.muted.Fprintln(tw.w, s)
}

func (tw *textWriter) section(name string, tbl table.Writer) {
	if tw.err != nil {
		return
	}

	_, tw.err = fmt.Fprintln(tw.w)
	tw.title(name)

	if tw.err == nil {
		_, tw.err = fmt.Fprintln(tw.w, tbl.Render())
	}
}

// breakdown writes one table per active author with their largest file
// types and work categories by net lines, followed by the focus line.
func (tw *textWriter) breakdown(doc Document) {
	authors := activeAuthors(doc.Extensions)
	if len(authors) == 0 || tw.err != nil {
		return
	}

	_, tw.err = fmt.Fprintln(tw.w)
	tw.title("Work breakdown by author")

	for _, a := range authors {
		if tw.err != nil {
			return
		}

		_, tw.err = fmt.Fprintln(tw.w, breakdownTable(a, doc).Render())
	}
}

type authorNet struct {
	name string
	net  int
}

// activeAuthors returns authors with any touched lines, largest net first.
func activeAuthors(extensions map[string]map[string]contrib.LineStats) []authorNet {
	out := make([]authorNet, 0, len(extensions))

	for _, name := range sortedKeys(extensions) {
		net, touched := 0, 0

		for _, ls := range extensions[name] {
			net += ls.Net()
			touched += ls.Insertions + ls.Deletions
		}

		if touched > 0 {
			out = append(out, authorNet{name: name, net: net})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].net > out[j].net })

	return out
}

func breakdownTable(a authorNet, doc Document) table.Writer {
	profile := doc.Profiles[a.name]

	tbl := newTable(table.Row{"Kind", "Name", "Share", "Net"})
	tbl.SetTitle("%s | %s | %s LoC", a.name, profile.Primary, signed(a.net))

	exts := doc.Extensions[a.name]
	names := sortedKeys(exts)
	absTotal := 0

	for _, name := range names {
		absTotal += absInt(exts[name].Net())
	}

	sort.SliceStable(names, func(i, j int) bool { return exts[names[i]].Net() > exts[names[j]].Net() })

	for _, name := range names[:min(topExtensions, len(names))] {
		net := exts[name].Net()
		if net == 0 {
			continue
		}

		label := name
		if label == "" {
			label = noExtension
		}

		tbl.AppendRow(table.Row{"file type", label, percent(absInt(net), absTotal), signed(net)})
	}

	tbl.AppendSeparator()

	for _, share := range profile.Shares[:min(topCategories, len(profile.Shares))] {
		net := share.Lines.Net()
		if net == 0 {
			continue
		}

		tbl.AppendRow(table.Row{"work type", share.Label, fmt.Sprintf("%.1f%%", share.Percent), signed(net)})
	}

	tbl.SetCaption("Focus: %s", profile.Focus)

	return tbl
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

func newTable(header table.Row) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(header))
	for i, h := range header {
		if isNumericColumn(h) {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight, AlignFooter: text.AlignRight})
		}
	}

	tbl.SetColumnConfigs(configs)

	return tbl
}

func isNumericColumn(h any) bool {
	switch h {
	case "Commits", "+", "-", "Net", "Repos", "Share":
		return true
	default:
		return false
	}
}

func repositoryTable(doc Document) table.Writer {
	tbl := newTable(table.Row{"Author", "Repository", "Commits", "+", "-", "Net"})

	for _, r := range doc.Rows {
		tbl.AppendRow(table.Row{r.Author, r.Repository, count(r.Commits), count(r.Insertions), count(r.Deletions), signed(r.Net)})
	}

	t := doc.Totals
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d authors", t.Authors), fmt.Sprintf("%d repositories", t.Repositories),
		count(t.Commits), count(t.Insertions), count(t.Deletions), signed(t.Net),
	})

	return tbl
}

func authorTable(doc Document) table.Writer {
	tbl := newTable(table.Row{"Author", "Repos", "Commits", "+", "-", "Net", "Primary", "Focus"})

	for _, a := range doc.Authors {
		p := doc.Profiles[a.Author]
		tbl.AppendRow(table.Row{
			a.Author, len(a.Repositories), count(a.Commits), count(a.Insertions), count(a.Deletions), signed(a.Net),
			p.Primary, p.Focus,
		})
	}

	return tbl
}

func weeklyTable(doc Document) table.Writer {
	tbl := newTable(table.Row{"Author", "Week", "Commits", "+", "-", "Net"})

	for _, author := range sortedKeys(doc.Weekly) {
		weeks := doc.Weekly[author]

		for _, week := range sortedKeys(weeks) {
			wt := weeks[week]
			tbl.AppendRow(table.Row{
				author, week, count(wt.CommitCount), count(wt.Insertions), count(wt.Deletions), signed(wt.Net()),
			})
		}
	}

	return tbl
}

// languageTable lists each author's largest languages by lines touched.
func languageTable(doc Document) table.Writer {
	tbl := newTable(table.Row{"Author", "Language", "+", "-", "Share"})

	for _, author := range sortedKeys(doc.Languages) {
		langs := doc.Languages[author]
		names := sortedKeys(langs)
		touched := 0

		for _, name := range names {
			touched += langs[name].Insertions + langs[name].Deletions
		}

		sort.SliceStable(names, func(i, j int) bool {
			a, b := langs[names[i]], langs[names[j]]

			return a.Insertions+a.Deletions > b.Insertions+b.Deletions
		})

		for _, name := range names[:min(topLanguages, len(names))] {
			ls := langs[name]
			tbl.AppendRow(table.Row{
				author, name, count(ls.Insertions), count(ls.Deletions),
				percent(ls.Insertions+ls.Deletions, touched),
			})
		}
	}

	return tbl
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func signed(n int) string {
	if n > 0 {
		return "+" + count(n)
	}

	return count(n)
}

func percent(part, whole int) string {
	if whole == 0 {
		return "0%"
	}

	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		li, lj := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if li != lj {
			return li < lj
		}

		return keys[i] < keys[j]
	})

	return keys
}
