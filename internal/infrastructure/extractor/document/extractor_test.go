package document

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kirillkom/docclass/internal/core/domain"
)

const docxNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape" ` +
	`xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"`

func buildDOCX(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(`<?xml version="1.0"?><Types/>`)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	w, err = zw.Create(docxMainPart)
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?><w:document ` + docxNS + `><w:body>` + bodyXML + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func cell(text string) string {
	return `<w:tc><w:tcPr/>` + para(text) + `</w:tc>`
}

// buildPDF assembles a single-font PDF with one text line per page and a
// correct cross-reference table.
func buildPDF(pages ...string) []byte {
	var objects []string
	n := len(pages)
	fontID := 3 + 2*n

	kids := make([]string, 0, n)
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontID, 4+2*i))
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractDOCXParagraphsThenTables(t *testing.T) {
	body := para("Employment agreement") +
		`<w:tbl><w:tr>` + cell("salary") + cell("bonus") + `</w:tr><w:tr>` + cell("pension") + `</w:tr></w:tbl>` +
		para("Second paragraph")
	raw := buildDOCX(t, body)

	text, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, raw)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "Employment agreement\nSecond paragraph\nsalary bonus pension "
	if text != want {
		t.Fatalf("unexpected text %q, want %q", text, want)
	}
}

func TestExtractDOCXRunsAndBreaks(t *testing.T) {
	body := `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t>world</w:t><w:br/><w:t>again</w:t></w:r></w:p>`
	text, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Hello\tworld\nagain\n" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractDOCXIgnoresTextBoxContent(t *testing.T) {
	body := `<w:p><w:r><w:t>Before</w:t></w:r>` +
		`<w:r><w:drawing><wp:anchor><a:graphic><a:graphicData><wps:wsp><wps:txbx>` +
		`<w:txbxContent><w:p><w:r><w:t>Inner</w:t></w:r></w:p></w:txbxContent>` +
		`</wps:txbx></wps:wsp></a:graphicData></a:graphic></wp:anchor></w:drawing></w:r>` +
		`<w:r><w:t>After</w:t></w:r></w:p>`
	text, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "BeforeAfter\n" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractDOCXIgnoresAlternateContentBranches(t *testing.T) {
	box := `<w:txbxContent><w:p><w:r><w:t>Boxed</w:t></w:r></w:p></w:txbxContent>`
	body := `<w:p><w:r><w:t>Lead</w:t></w:r><w:r><mc:AlternateContent>` +
		`<mc:Choice Requires="wps"><w:drawing>` + box + `</w:drawing></mc:Choice>` +
		`<mc:Fallback><w:pict>` + box + `</w:pict></mc:Fallback>` +
		`</mc:AlternateContent></w:r></w:p>` + para("Tail")
	text, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Lead\nTail\n" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractDOCXSkipsBodyLevelContentControls(t *testing.T) {
	body := para("Visible") +
		`<w:sdt><w:sdtPr/><w:sdtContent>` + para("Controlled") + `</w:sdtContent></w:sdt>` +
		para("Closing")
	text, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Visible\nClosing\n" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractDOCXNestedTableStaysOutOfCellText(t *testing.T) {
	nested := `<w:tbl><w:tr>` + cell("deep") + `</w:tr></w:tbl>`
	body := para("Heading") +
		`<w:tbl><w:tr><w:tc><w:tcPr/>` + para("outer") + nested + para("tail") + `</w:tc>` +
		cell("next") + `</w:tr></w:tbl>`
	text, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if want := "Heading\nouter\ntail next "; text != want {
		t.Fatalf("unexpected text %q, want %q", text, want)
	}
}

func TestExtractDOCXIncludesHyperlinkRuns(t *testing.T) {
	body := `<w:p><w:r><w:t xml:space="preserve">See </w:t></w:r>` +
		`<w:hyperlink r:id="rId4"><w:r><w:t>terms</w:t></w:r></w:hyperlink>` +
		`<w:r><w:br w:type="page"/><w:t>.</w:t></w:r></w:p>`
	text, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "See terms.\n" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractDOCXMissingMainPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("other.xml"); err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_ = zw.Close()

	_, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buf.Bytes())
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractPDFPagesInOrder(t *testing.T) {
	raw := buildPDF("Employment contract", "legal obligations")
	text, err := NewExtractor().Extract(context.Background(), domain.FormatPDF, raw)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	first := strings.Index(text, "Employment contract")
	second := strings.Index(text, "legal obligations")
	if first < 0 || second < 0 {
		t.Fatalf("expected both page texts, got %q", text)
	}
	if first > second {
		t.Fatalf("pages out of order: %q", text)
	}
}

func TestExtractPDFRejectsForeignBytes(t *testing.T) {
	docx := buildDOCX(t, para("not a pdf"))
	inputs := map[string][]byte{
		"docx":    docx,
		"garbage": []byte("\x00\x01 definitely not a document \xff"),
		"empty":   nil,
		"header":  []byte("%PDF-1.4\n1 0 obj\n<<"),
	}
	for name, raw := range inputs {
		_, err := NewExtractor().Extract(context.Background(), domain.FormatPDF, raw)
		if !domain.IsKind(err, domain.ErrExtraction) {
			t.Fatalf("%s: expected ErrExtraction, got %v", name, err)
		}
	}
}

func TestExtractDOCXRejectsPDFBytes(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, buildPDF("hello"))
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), domain.Format("txt"), []byte("plain text"))
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractDoesNotMutateInput(t *testing.T) {
	raw := buildDOCX(t, para("immutable input"))
	snapshot := append([]byte(nil), raw...)
	if _, err := NewExtractor().Extract(context.Background(), domain.FormatDOCX, raw); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !bytes.Equal(raw, snapshot) {
		t.Fatalf("input buffer was modified")
	}
}
