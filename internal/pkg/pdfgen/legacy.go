package pdfgen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/halcyonlabel/backend/internal/pkg/splits"
)

// A4 in points. The legacy document is always a single page; content past
// the lower margin is dropped.
const (
	a4Width  = 595.28
	a4Height = 841.89

	legacyMargin       = 50.0
	legacyBottomMargin = 40.0
	signatureBlock     = 110.0
	notesCharBudget    = 1200
	qrSize             = 64.0
)

// LegacyGenerator lays out the whole agreement without a template. It is the
// fallback for TemplateRenderer and has no external inputs that can go missing.
type LegacyGenerator struct{}

func NewLegacyGenerator() *LegacyGenerator { return &LegacyGenerator{} }

type legacyWriter struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	title cases.Caser
	y     float64
	// limit is the lowest baseline body text may use; the signature block sits below it.
	limit float64
}

// Render builds the agreement.
func (g *LegacyGenerator) Render(doc *Document) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(legacyMargin, legacyMargin, legacyMargin)
	pdf.SetTitle(fmt.Sprintf("Contract %s", doc.ContractID), true)
	pdf.SetCreator(doc.LabelName, true)
	pdf.AddPage()

	w := &legacyWriter{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		title: cases.Title(language.English),
		y:     legacyMargin,
		limit: a4Height - legacyBottomMargin - signatureBlock,
	}

	w.masthead(doc)
	w.parties(doc)
	w.recording(doc)
	w.royalties(doc)
	w.notes(doc)
	w.signatures(doc)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render legacy document: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write legacy document: %w", err)
	}
	return buf.Bytes(), nil
}

// text writes one line at the cursor and advances it. It reports false once
// the body budget is used up, in which case nothing is written.
func (w *legacyWriter) text(x float64, style string, size float64, s string) bool {
	advance := size * 1.35
	if w.y+size > w.limit {
		return false
	}
	w.pdf.SetFont("Helvetica", style, size)
	w.pdf.Text(x, w.y+size, w.tr(s))
	w.y += advance
	return true
}

func (w *legacyWriter) gap(h float64) { w.y += h }

func (w *legacyWriter) section(name string) bool {
	w.gap(8)
	if !w.text(legacyMargin, "B", 11, name) {
		return false
	}
	w.pdf.SetDrawColor(160, 160, 160)
	w.pdf.Line(legacyMargin, w.y, a4Width-legacyMargin, w.y)
	w.gap(4)
	return true
}

func (w *legacyWriter) field(label, value string) bool {
	return w.text(legacyMargin, "", 9.5, fmt.Sprintf("%s: %s", label, splits.ResolveField(value)))
}

func (w *legacyWriter) masthead(doc *Document) {
	if len(doc.VerificationQR) > 0 && validPNG(doc.VerificationQR) {
		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		w.pdf.RegisterImageOptionsReader("verification-qr", opt, bytes.NewReader(doc.VerificationQR))
		w.pdf.ImageOptions("verification-qr", a4Width-legacyMargin-qrSize, legacyMargin-10, qrSize, qrSize, false, opt, 0, "")
	}

	w.text(legacyMargin, "B", 9, strings.ToUpper(splits.ResolveField(doc.LabelName)))
	if doc.LabelAddress != "" {
		w.text(legacyMargin, "", 8, CollapseSpace(doc.LabelAddress))
	}
	w.gap(14)
	w.text(legacyMargin, "B", 18, "Royalty Split Agreement")
	title := splits.ResolveField(doc.Title, doc.ReleaseTitle, doc.SongTitles)
	w.text(legacyMargin, "", 12, Truncate(title, 80))
	w.gap(6)
	w.field("Agreement Reference No.", doc.AgreementRef)
	w.field("Effective Date", FormatDate(doc.EffectiveDate))
}

func (w *legacyWriter) parties(doc *Document) {
	if !w.section("PARTIES") {
		return
	}
	w.text(legacyMargin, "B", 9.5, "Label")
	w.field("Name", doc.LabelName)
	if doc.LabelAddress != "" {
		w.field("Address", CollapseSpace(doc.LabelAddress))
	}
	w.gap(4)
	w.text(legacyMargin, "B", 9.5, "Artist")
	w.field("Name", doc.PartyName)
	w.field("Legal Name", doc.PartyLegalName)
	w.field("Phone", doc.PartyPhone)
	w.field("Address", CollapseSpace(doc.PartyAddress))
	w.field("Email", doc.PartyEmail)
}

func (w *legacyWriter) recording(doc *Document) {
	if !w.section("RECORDING INFORMATION") {
		return
	}
	w.field("Release", Truncate(doc.ReleaseTitle, 90))
	w.field("Song Title(s)", Truncate(doc.SongTitles, 90))
	w.field("Genre", doc.Genre)
	w.field("ISRC", doc.ISRC)
	w.field("Delivery Date", FormatDate(doc.DeliveryDate))
}

func (w *legacyWriter) royalties(doc *Document) {
	if !w.section("ROYALTY SPLIT") {
		return
	}
	w.field("Artist Share", FormatPercent(doc.ArtistShare*100))
	w.field("Label Share", FormatPercent(doc.LabelShare*100))

	contributors := doc.contributors()
	if len(contributors) == 0 {
		w.field("Contributors", "")
		return
	}
	w.gap(2)
	for _, c := range contributors {
		head := fmt.Sprintf("%s (%s) - %s of artist share (%s gross)",
			c.Name, w.title.String(string(c.Role)),
			FormatPercent(c.PercentageOfArtistShare), FormatPercent(c.GrossPercentage(doc.ArtistShare)))
		if !w.text(legacyMargin+8, "B", 9, Truncate(head, 100)) {
			return
		}
		detail := fmt.Sprintf("Legal: %s  |  Phone: %s  |  Email: %s", c.LegalName, c.Phone, c.Email)
		if !w.text(legacyMargin+16, "", 8, Truncate(detail, 110)) {
			return
		}
		if !w.text(legacyMargin+16, "", 8, "Address: "+Truncate(c.Address, 100)) {
			return
		}
	}
	if doc.Ledger != nil && !doc.Ledger.Balanced {
		w.text(legacyMargin+8, "I", 8, fmt.Sprintf("Stored contributor splits total %s of the artist share.", FormatPercent(doc.Ledger.Total)))
	}
}

func (w *legacyWriter) notes(doc *Document) {
	notes := strings.TrimSpace(strings.ReplaceAll(doc.Notes, "\r\n", "\n"))
	if notes == "" {
		return
	}
	if !w.section("NOTES") {
		return
	}
	if runes := []rune(notes); len(runes) > notesCharBudget {
		notes = string(runes[:notesCharBudget]) + ellipsis
	}

	w.pdf.SetFont("Helvetica", "", 9)
	width := a4Width - 2*legacyMargin
	for _, para := range strings.Split(notes, "\n") {
		if strings.TrimSpace(para) == "" {
			w.gap(6)
			continue
		}
		// tr output is single-byte cp1252, so split on bytes
		for _, line := range w.pdf.SplitLines([]byte(w.tr(para)), width) {
			if w.y+9 > w.limit {
				return
			}
			w.pdf.Text(legacyMargin, w.y+9, string(line))
			w.y += 9 * 1.35
		}
	}
}

func (w *legacyWriter) signatures(doc *Document) {
	top := a4Height - legacyBottomMargin - signatureBlock + 20
	colWidth := (a4Width - 2*legacyMargin - 40) / 2
	left := legacyMargin
	right := legacyMargin + colWidth + 40

	w.pdf.SetFont("Helvetica", "B", 11)
	w.pdf.Text(legacyMargin, top, "SIGNATURES")

	w.pdf.SetDrawColor(0, 0, 0)
	lineY := top + 40
	w.pdf.Line(left, lineY, left+colWidth, lineY)
	w.pdf.Line(right, lineY, right+colWidth, lineY)

	w.pdf.SetFont("Helvetica", "", 8)
	w.pdf.Text(left, lineY+11, w.tr("For "+splits.ResolveField(doc.LabelName)))
	w.pdf.Text(right, lineY+11, w.tr("Artist: "+splits.ResolveField(doc.PartyLegalName, doc.PartyName)))
	w.pdf.Text(left, lineY+22, "Date: ____________")
	w.pdf.Text(right, lineY+22, "Date: ____________")

	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	w.pdf.SetFont("Helvetica", "I", 7)
	w.pdf.SetTextColor(110, 110, 110)
	w.pdf.Text(legacyMargin, a4Height-legacyBottomMargin+14,
		fmt.Sprintf("Generated %s  |  Contract %s", generated.UTC().Format("2006-01-02 15:04 MST"), doc.ContractID))
	w.pdf.SetTextColor(0, 0, 0)
}

func validPNG(data []byte) bool {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil && format == "png"
}
