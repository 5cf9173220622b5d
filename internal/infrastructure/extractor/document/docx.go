package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxMainPart = "word/document.xml"

// extractDOCX returns every body paragraph followed by a newline, then the
// text of every table cell (row-major, one trailing space per cell).
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxMainPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("%s not found in archive", docxMainPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxMainPart, err)
	}
	defer rc.Close()

	body, err := parseDocxBody(rc)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range body.paragraphs {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	for _, table := range body.tables {
		for _, row := range table {
			for _, cell := range row {
				b.WriteString(cell)
				b.WriteByte(' ')
			}
		}
	}
	return b.String(), nil
}

type docxBody struct {
	paragraphs []string
	tables     [][][]string
}

// xmlNode is a namespace-free element tree of word/document.xml.
type xmlNode struct {
	name     string
	attrs    map[string]string
	children []*xmlNode
	text     strings.Builder
}

func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// parseDocxBody reads the document tree and applies Word's text model:
// body paragraphs are the w:p children of w:body, tables are the w:tbl
// children of w:body, and a paragraph's text comes only from its own runs.
// Text boxes, drawings and alternate content live below a run and are not
// part of the paragraph that anchors them.
func parseDocxBody(r io.Reader) (*docxBody, error) {
	root, err := readXMLTree(r)
	if err != nil {
		return nil, err
	}
	if root.name != "document" {
		return nil, fmt.Errorf("parse %s: unexpected root element %s", docxMainPart, root.name)
	}
	body := root.child("body")
	if body == nil {
		return nil, fmt.Errorf("parse %s: missing w:body", docxMainPart)
	}

	out := &docxBody{}
	for _, c := range body.children {
		switch c.name {
		case "p":
			out.paragraphs = append(out.paragraphs, paragraphText(c))
		case "tbl":
			out.tables = append(out.tables, tableCells(c))
		}
	}
	return out, nil
}

func readXMLTree(r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *xmlNode
		stack []*xmlNode
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxMainPart, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{name: t.Name.Local}
			for _, a := range t.Attr {
				if node.attrs == nil {
					node.attrs = make(map[string]string, len(t.Attr))
				}
				node.attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse %s: multiple root elements", docxMainPart)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parse %s: empty document", docxMainPart)
	}
	return root, nil
}

// paragraphText joins the runs that belong to p, including runs wrapped in
// hyperlinks.
func paragraphText(p *xmlNode) string {
	var b strings.Builder
	for _, c := range p.children {
		switch c.name {
		case "r":
			writeRunText(&b, c)
		case "hyperlink":
			for _, r := range c.children {
				if r.name == "r" {
					writeRunText(&b, r)
				}
			}
		}
	}
	return b.String()
}

func writeRunText(b *strings.Builder, run *xmlNode) {
	for _, c := range run.children {
		switch c.name {
		case "t":
			b.WriteString(c.text.String())
		case "tab", "ptab":
			b.WriteByte('\t')
		case "cr":
			b.WriteByte('\n')
		case "br":
			if kind := c.attrs["type"]; kind == "" || kind == "textWrapping" {
				b.WriteByte('\n')
			}
		case "noBreakHyphen":
			b.WriteByte('-')
		}
	}
}

// tableCells returns the text of every cell, row by row. A cell's text is
// its own paragraphs joined by newlines; nested tables are not descended.
func tableCells(tbl *xmlNode) [][]string {
	var rows [][]string
	for _, tr := range tbl.children {
		if tr.name != "tr" {
			continue
		}
		var row []string
		for _, tc := range tr.children {
			if tc.name != "tc" {
				continue
			}
			var paras []string
			for _, p := range tc.children {
				if p.name == "p" {
					paras = append(paras, paragraphText(p))
				}
			}
			row = append(row, strings.Join(paras, "\n"))
		}
		rows = append(rows, row)
	}
	return rows
}
