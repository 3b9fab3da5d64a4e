package exporter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/report/document"
)

func TestMarkdownToHTML(t *testing.T) {
	const img = `<img src="data:x" alt="c" style="max-width: 100%; height: auto; margin: 20px 0;">`
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"h1", "# Title", "<p><h1>Title</h1></p>"},
		{"h4", "#### Deep", "<p><h4>Deep</h4></p>"},
		{"h5 is text", "##### Deeper", "<p>##### Deeper</p>"},
		{"hash without space", "#tag", "<p>#tag</p>"},
		{"strong and em", "**b** and *i*", "<p><strong>b</strong> and <em>i</em></p>"},
		{"bullets stay bare", "- a\n- b", "<p><li>a</li>\n<li>b</li></p>"},
		{"ordered", "1. a\n10. b", "<p><li>a</li>\n<li>b</li></p>"},
		{"bullet with strong", "- **X:** y", "<p><li><strong>X:</strong> y</li></p>"},
		{"paragraphs", "a\n\nb", "<p>a</p><p>b</p>"},
		{"three newlines", "a\n\n\nb", "<p>a</p><p>\nb</p>"},
		{"four newlines", "a\n\n\n\nb", "<p>a</p><p></p><p>b</p>"},
		{"image", "![c](data:x)", "<p>" + img + "</p>"},
		{"heading emphasis", "## **Bold** title", "<p><h2><strong>Bold</strong> title</h2></p>"},
		{"empty", "", "<p></p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MarkdownToHTML(tt.input))
		})
	}
}

func TestHTMLExporter_WellFormed(t *testing.T) {
	r := acmeAnalysis()
	r.SWOTImage = "iVBORw0KGgo="
	out := NewHTMLExporter(nil).Render(document.BuildAnalysis(r, fixedNow))

	root, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	counts := map[string]int{}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			counts[n.Data]++
			if n.Data == "title" && n.FirstChild != nil {
				title = n.FirstChild.Data
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	assert.Equal(t, "Acme Corp - Competitive Intelligence Report", title)
	assert.Equal(t, 1, counts["h1"])
	assert.Equal(t, 1, counts["img"])
	assert.Equal(t, 1, counts["style"])
	assert.Greater(t, counts["li"], 4)
	assert.Greater(t, counts["h2"], 3)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<strong>1.</strong> First <strong>finding</strong></p><p><em>Source: https://news.example/acme</em></p><p><strong>2.</strong> Second finding")
}

func TestHTMLExporter_EscapesTitle(t *testing.T) {
	out := NewHTMLExporter(nil).Render(document.BuildAnalysis(&model.AnalysisResult{CompanyName: "A <b> & C"}, fixedNow))
	assert.Contains(t, out, "<title>A &lt;b&gt; &amp; C - Competitive Intelligence Report</title>")
}
