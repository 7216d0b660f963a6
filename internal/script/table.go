// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package script

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// tableData is a rectangular view of the first <table> in an HTML payload.
type tableData struct {
	// Columns holds the header labels; empty when the table has no header row.
	Columns []string
	// Rows holds the body cells, padded or truncated to the column count.
	Rows [][]string
}

// extractTable parses markup and returns its first table. Pandas emits its
// index header as an empty cell, and unnamed columns come through as
// "Unnamed: N"; both normalize to "".
func extractTable(markup string) (*tableData, bool) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, false
	}
	table := findElement(doc, "table")
	if table == nil {
		return nil, false
	}

	var header []string
	var rows [][]string
	for _, tr := range findAll(table, "tr") {
		var cells []string
		allTH := true
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "th":
				cells = append(cells, nodeText(c))
			case "td":
				allTH = false
				cells = append(cells, nodeText(c))
			}
		}
		if len(cells) == 0 {
			continue
		}
		// Pandas renders the header as an all-<th> row; body rows mix a
		// <th> index cell with <td> values.
		if allTH && header == nil && len(rows) == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 && len(header) == 0 {
		return nil, false
	}

	for i, col := range header {
		if strings.HasPrefix(col, "Unnamed:") {
			header[i] = ""
		}
	}

	width := len(header)
	if width == 0 {
		for _, r := range rows {
			if len(r) > width {
				width = len(r)
			}
		}
	}
	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		rows[i] = r[:width]
	}

	return &tableData{Columns: header, Rows: rows}, true
}

// findElement returns the first element named tag in depth-first order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects every element named tag beneath n in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

// nodeText concatenates the text content beneath n, trimmed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// columnKind is the inferred dtype of one table column.
type columnKind int

const (
	colString columnKind = iota
	colInt
	colFloat
)

// numeric strips the "," thousands separators a rendered pandas table may
// carry before a parse attempt, matching read_html's default coercion.
func numeric(v string) string {
	return strings.ReplaceAll(v, ",", "")
}

// inferColumn mirrors the dtype inference a pandas read would apply: a column
// of integers stays integral, mixed numerics become floats, anything else is
// a string. Empty cells do not veto a numeric column.
func inferColumn(rows [][]string, idx int) columnKind {
	kind := colInt
	seen := false
	for _, r := range rows {
		v := strings.TrimSpace(r[idx])
		if v == "" {
			kind = colFloat // pandas holds missing values as NaN
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(numeric(v), 10, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseFloat(numeric(v), 64); err == nil {
			if kind == colInt {
				kind = colFloat
			}
			continue
		}
		return colString
	}
	if !seen {
		return colString
	}
	return kind
}

// pyCell renders one table cell as a Python literal of the column's kind.
// Numeric cells are re-formatted rather than echoed: a zero-padded "007"
// would otherwise be an invalid Python 3 integer literal.
func pyCell(v string, kind columnKind) string {
	v = strings.TrimSpace(v)
	switch kind {
	case colInt:
		if v == "" {
			return "None"
		}
		n, err := strconv.ParseInt(numeric(v), 10, 64)
		if err != nil {
			return "None"
		}
		return strconv.FormatInt(n, 10)
	case colFloat:
		if v == "" {
			return "None"
		}
		f, err := strconv.ParseFloat(numeric(v), 64)
		if err != nil {
			return "None"
		}
		if math.IsNaN(f) {
			return `float("nan")`
		}
		if math.IsInf(f, 0) {
			if f > 0 {
				return `float("inf")`
			}
			return `float("-inf")`
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return pyEscape(v)
	}
}

// emitDataFrame writes a pd.DataFrame literal for t followed by an
// st.dataframe call that puts the first column back on the index, matching
// how a pandas table looked in the notebook.
func emitDataFrame(w *writer, t *tableData) {
	kinds := make([]columnKind, 0)
	width := len(t.Columns)
	if width == 0 && len(t.Rows) > 0 {
		width = len(t.Rows[0])
	}
	for i := 0; i < width; i++ {
		if len(t.Rows) == 0 {
			kinds = append(kinds, colString)
			continue
		}
		kinds = append(kinds, inferColumn(t.Rows, i))
	}

	w.line("_df = pd.DataFrame(")
	w.in()
	w.line("[")
	w.in()
	for _, row := range t.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = pyCell(v, kinds[i])
		}
		w.linef("[%s],", strings.Join(parts, ", "))
	}
	w.out()
	w.line("],")
	if len(t.Columns) > 0 {
		labels := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			labels[i] = pyEscape(c)
		}
		w.linef("columns=[%s],", strings.Join(labels, ", "))
	}
	w.out()
	w.line(")")
	w.line("st.dataframe(_df.set_index(_df.columns[0]))")
}
