package report

import (
	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

// renderer draws a parsed markdown tree onto an fpdf page. The built-in
// fonts are cp1252 only, so every string passes through the unicode
// translator before it reaches the page; Portuguese accents would
// otherwise render as mojibake.
type renderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	bold      bool
	italic    bool
	listDepth int
}

func newRenderer(pdf *fpdf.Fpdf, source []byte) *renderer {
	return &renderer{
		pdf:       pdf,
		source:    source,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (r *renderer) render(doc ast.Node) error {
	return ast.Walk(doc, r.walk)
}

func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		r.heading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, r.translate(string(n.Text(r.source))))
		}
	case ast.KindEmphasis:
		r.emphasis(n.(*ast.Emphasis), entering)
	case ast.KindList:
		r.list(entering)
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(14 + float64(r.listDepth)*4)
			r.pdf.Write(5, "- ")
		}
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(3)
			r.pdf.Line(14, r.pdf.GetY(), 196, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	case ast.KindCodeSpan:
		return r.codeSpan(n.(*ast.CodeSpan), entering)
	case extast.KindTable:
		return r.table(n.(*extast.Table), entering)
	}
	return ast.WalkContinue, nil
}

func (r *renderer) heading(n *ast.Heading, entering bool) {
	if entering {
		r.pdf.Ln(6)
		size := 11.0
		switch n.Level {
		case 1:
			size = 15
		case 2:
			size = 13
		case 3:
			size = 11
		}
		r.pdf.SetFont("Helvetica", "B", size)
		return
	}
	r.pdf.Ln(6)
	r.applyStyle()
}

func (r *renderer) emphasis(n *ast.Emphasis, entering bool) {
	if n.Level == 2 {
		r.bold = entering
	} else {
		r.italic = entering
	}
	r.applyStyle()
}

func (r *renderer) applyStyle() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont("Helvetica", style, 10)
}

func (r *renderer) list(entering bool) {
	if entering {
		r.listDepth++
		return
	}
	r.listDepth--
	if r.listDepth == 0 {
		r.pdf.Ln(3)
	}
}

func (r *renderer) codeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.SetFont("Courier", "", 10)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.pdf.Write(5, r.translate(string(textNode.Segment.Value(r.source))))
			}
		}
		return ast.WalkSkipChildren, nil
	}
	r.applyStyle()
	return ast.WalkSkipChildren, nil
}

// table draws rows as bordered cells with equal column widths. Summary
// tables are small; content that overflows a cell is clipped by fpdf.
func (r *renderer) table(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch row := child.(type) {
			case *extast.TableRow:
				rows = append(rows, r.cells(row))
			case *extast.TableHeader:
				collect(row)
			}
		}
	}
	collect(n)

	if len(rows) == 0 || len(rows[0]) == 0 {
		return ast.WalkSkipChildren, nil
	}

	r.pdf.Ln(2)
	width := 186.0 / float64(len(rows[0]))
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont("Helvetica", "B", 8)
			r.pdf.SetFillColor(230, 230, 230)
		} else {
			r.pdf.SetFont("Helvetica", "", 8)
			r.pdf.SetFillColor(255, 255, 255)
		}
		for _, cell := range row {
			r.pdf.CellFormat(width, 6, r.translate(cell), "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(6)
	}
	r.pdf.Ln(2)
	r.applyStyle()

	return ast.WalkSkipChildren, nil
}

func (r *renderer) cells(n *extast.TableRow) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, string(cell.Text(r.source)))
		}
	}
	return row
}
