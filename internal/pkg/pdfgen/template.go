package pdfgen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	realgofpdi "github.com/phpdave11/gofpdi"
)

// ErrTemplateUnavailable means the template could not be read or imported.
// Callers fall back to the legacy generator.
var ErrTemplateUnavailable = errors.New("contract template unavailable")

const templateBox = "/MediaBox"

// TemplateRenderer writes document values onto a pre-authored PDF template.
type TemplateRenderer struct {
	path   string
	layout *Layout
}

func NewTemplateRenderer(path string, layout *Layout) *TemplateRenderer {
	if layout == nil {
		layout = DefaultLayout()
	}
	return &TemplateRenderer{path: path, layout: layout}
}

// Path returns the configured template location.
func (r *TemplateRenderer) Path() string { return r.path }

type pageBox struct {
	w, h float64
}

// Render returns the filled template. Any problem reading or importing the
// template is reported as ErrTemplateUnavailable.
func (r *TemplateRenderer) Render(doc *Document) ([]byte, error) {
	if r.path == "" {
		return nil, fmt.Errorf("%w: no template configured", ErrTemplateUnavailable)
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	}
	pages, err := inspectTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	}
	return r.overlay(data, pages, doc)
}

// inspectTemplate reads the page boxes of the template. gofpdi panics on
// malformed input, so panics are turned into errors here.
func inspectTemplate(data []byte) (pages []pageBox, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("inspect template: %v", rec)
		}
	}()

	imp := realgofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	imp.SetSourceStream(&rs)

	n := imp.GetNumPages()
	if n < 1 {
		return nil, errors.New("template has no pages")
	}
	boxes := imp.GetPageSizes()
	pages = make([]pageBox, n)
	for i := 1; i <= n; i++ {
		box := boxes[i][templateBox]
		pages[i-1] = pageBox{w: box["w"], h: box["h"]}
		if pages[i-1].w <= 0 || pages[i-1].h <= 0 {
			return nil, fmt.Errorf("page %d has no media box", i)
		}
	}
	return pages, nil
}

func (r *TemplateRenderer) overlay(data []byte, pages []pageBox, doc *Document) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("%w: import: %v", ErrTemplateUnavailable, rec)
		}
	}()

	first := pages[0]
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: first.w, Ht: first.h},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("Contract %s", doc.ContractID), true)
	pdf.SetCreator(doc.LabelName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	values := doc.templateValues(r.layout)
	byPage := r.fieldsByPage()

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))

	for i, box := range pages {
		pageNo := i + 1
		tpl := imp.ImportPageFromStream(pdf, &rs, pageNo, templateBox)
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: box.w, Ht: box.h})
		imp.UseImportedTemplate(pdf, tpl, 0, 0, box.w, box.h)

		// fields placed on pages the template does not have are skipped
		for _, name := range byPage[pageNo] {
			r.drawField(pdf, tr, r.layout.Fields[name], values[name])
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write template output: %w", err)
	}
	return buf.Bytes(), nil
}

// fieldsByPage groups field names by page, sorted for deterministic output.
func (r *TemplateRenderer) fieldsByPage() map[int][]string {
	out := make(map[int][]string)
	for name, f := range r.layout.Fields {
		out[f.Page] = append(out[f.Page], name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

func (r *TemplateRenderer) drawField(pdf *gofpdf.Fpdf, tr func(string) string, f Field, value string) {
	font := f.Font
	if font == "" {
		font = r.layout.Font
	}
	pdf.SetFont(font, f.Style, f.fontSize())
	pdf.SetTextColor(0, 0, 0)
	for i, line := range f.Lines(value) {
		pdf.Text(f.X, f.Y+float64(i)*f.lineHeight(), tr(line))
	}
}
