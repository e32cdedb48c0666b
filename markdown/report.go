// Package markdown renders crawl exports as Markdown reports.
package markdown

import (
	"bytes"
	"context"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// Ensure ReportWriter implements sitecrawl.ResultWriter at compile time.
var _ sitecrawl.ResultWriter = (*ReportWriter)(nil)

// ReportWriter writes a human-readable Markdown report of a crawl export.
type ReportWriter struct {
	path string
}

// NewReportWriter creates a ReportWriter targeting path.
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// WriteExport renders export and writes it to the report file.
func (w *ReportWriter) WriteExport(ctx context.Context, export *sitecrawl.Export) error {
	var buf bytes.Buffer
	if err := Render(&buf, export); err != nil {
		return err
	}
	return os.WriteFile(w.path, buf.Bytes(), 0644)
}

// Render writes the Markdown report for export to out.
func Render(out io.Writer, export *sitecrawl.Export) error {
	md := markdown.NewMarkdown(out)

	writeSummary(md, export.Summary)
	writePages(md, export.CrawledData)
	writeFailures(md, export.CrawledData)

	return md.Build()
}

func writeSummary(md *markdown.Markdown, s sitecrawl.Summary) {
	md.H1("Crawl Report: " + s.Domain)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", s.StartURL},
			{"Max Depth", strconv.Itoa(s.MaxDepth)},
			{"URLs Crawled", strconv.Itoa(s.TotalURLsCrawled)},
			{"URLs Queued", strconv.Itoa(s.TotalURLsQueued)},
			{"Successful", strconv.Itoa(s.SuccessfulCrawls)},
			{"Failed", strconv.Itoa(s.FailedCrawls)},
		},
	})
	md.PlainText("")

	if s.SuccessfulCrawls+s.FailedCrawls > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Crawl Outcomes"),
			piechart.WithShowData(true),
		)
		chart.LabelAndIntValue("Successful", uint64(s.SuccessfulCrawls))
		chart.LabelAndIntValue("Failed", uint64(s.FailedCrawls))
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case s.TotalURLsQueued > 0:
		md.Importantf("The crawl stopped with %d URL(s) still queued. Run again with --resume to continue.", s.TotalURLsQueued)
	case s.FailedCrawls > 0:
		md.Warningf("%d page(s) could not be crawled.", s.FailedCrawls)
	default:
		md.Tip("Every reachable page was crawled successfully.")
	}
	md.PlainText("")
}

func writePages(md *markdown.Markdown, data map[string]*sitecrawl.PageRecord) {
	md.H2("Pages")
	md.PlainText("")

	if len(data) == 0 {
		md.PlainText("No pages were crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(data))
	for _, url := range slices.Sorted(maps.Keys(data)) {
		rec := data[url]
		status := strconv.Itoa(rec.StatusCode)
		if rec.Failed() {
			status = "ERR"
		}
		rows = append(rows, []string{
			cell(url),
			status,
			cell(rec.Title),
			strconv.Itoa(len(rec.LinksFound)),
			crawl.FormatBytes(rec.ContentLength),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Title", "Links", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeFailures(md *markdown.Markdown, data map[string]*sitecrawl.PageRecord) {
	var failures []string
	for _, url := range slices.Sorted(maps.Keys(data)) {
		if rec := data[url]; rec.Failed() {
			failures = append(failures, url+": "+rec.Error)
		}
	}
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.BulletList(failures...)
	md.PlainText("")
}

// cell makes s safe to place in a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
