package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/halcyonlabel/backend/internal/config"
	"github.com/halcyonlabel/backend/internal/models"
	"github.com/halcyonlabel/backend/internal/pkg/contractnotes"
	"github.com/halcyonlabel/backend/internal/pkg/pdfgen"
	"github.com/halcyonlabel/backend/internal/pkg/splits"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type fakeLoader struct {
	contracts map[uuid.UUID]*models.Contract
	calls     int
}

func (f *fakeLoader) LoadContract(_ context.Context, id uuid.UUID) (*models.Contract, error) {
	f.calls++
	c, ok := f.contracts[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	return c, nil
}

type countingRenderer struct {
	inner Renderer
	calls int
}

func (r *countingRenderer) Render(doc *pdfgen.Document) ([]byte, error) {
	r.calls++
	return r.inner.Render(doc)
}

type failingRenderer struct{ err error }

func (r failingRenderer) Render(*pdfgen.Document) ([]byte, error) { return nil, r.err }

type fixture struct {
	svc      *DocumentService
	loader   *fakeLoader
	roots    []StorageRoot
	template *countingRenderer
	legacy   *countingRenderer
	owner    uuid.UUID
}

func newFixture(t *testing.T, templatePath string) *fixture {
	t.Helper()
	roots := testRoots(t)
	f := &fixture{
		loader:   &fakeLoader{contracts: map[uuid.UUID]*models.Contract{}},
		roots:    roots,
		template: &countingRenderer{inner: pdfgen.NewTemplateRenderer(templatePath, nil)},
		legacy:   &countingRenderer{inner: pdfgen.NewLegacyGenerator()},
		owner:    uuid.New(),
	}
	qr := NewQRService(&config.Config{FrontendURL: "https://halcyon.example/"})
	f.svc = NewDocumentService(
		f.loader,
		NewStorageService(roots, nil, zap.NewNop()),
		f.template,
		f.legacy,
		qr,
		LabelInfo{Name: "Halcyon Records", Address: "1 Canal Street", RefPrefix: "HAL"},
		zap.NewNop(),
	)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) addContract(mutate func(c *models.Contract)) *models.Contract {
	owner := f.owner
	c := &models.Contract{
		ID:          uuid.New(),
		UserID:      &owner,
		Title:       "Night Drive Agreement",
		ArtistShare: 0.7,
		LabelShare:  0.3,
		Notes: contractnotes.Encode(contractnotes.Details{
			EffectiveDate: "2024-03-01",
			ISRC:          "NLA1L2400001",
		}, "Delivered as WAV."),
		CreatedAt: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		Release:   &models.Release{Title: "Night Drive", Genre: "Electronic", Type: "single"},
		Splits: []models.Split{
			{Name: "Nova", Role: "primary", Percentage: 60, Email: "nova@example.com"},
			{Name: "Kilo Watts", Role: "producer", Percentage: 40},
		},
	}
	if mutate != nil {
		mutate(c)
	}
	f.loader.contracts[c.ID] = c
	return c
}

func (f *fixture) ownerRequester() *Requester {
	return &Requester{UserID: f.owner, Role: models.RoleUser}
}

func readAll(t *testing.T, res *DocumentResult) []byte {
	t.Helper()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return data
}

func writeTemplatePDF(t *testing.T, pages int) string {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(40, 40, "TEMPLATE")
	}
	path := filepath.Join(t.TempDir(), "template.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFetchDocumentSynthesizesWithoutStoredPDF(t *testing.T) {
	f := newFixture(t, writeTemplatePDF(t, 3))
	c := f.addContract(nil)

	res, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String()})
	if err != nil {
		t.Fatalf("FetchDocument() error = %v", err)
	}
	body := readAll(t, res)
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Fatal("expected PDF body")
	}
	if res.ContentType != ContentTypePDF || !res.NoStore || res.Source != SourceTemplate {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.HasSuffix(res.Filename, "-generated.pdf") || res.Filename != "contract-"+c.ID.String()+"-generated.pdf" {
		t.Errorf("unexpected filename %q", res.Filename)
	}
	if res.Size != int64(len(body)) {
		t.Errorf("size %d does not match body %d", res.Size, len(body))
	}
	if got := res.Disposition(); !strings.HasPrefix(got, "inline;") {
		t.Errorf("unexpected disposition %q", got)
	}
}

func TestFetchDocumentServesStoredPDF(t *testing.T) {
	f := newFixture(t, writeTemplatePDF(t, 1))
	pointer := "private/uploads/contracts/signed-night-drive.pdf"
	writeFile(t, filepath.Join(f.roots[1].Dir, filepath.FromSlash(pointer)), "%PDF-1.4 signed")
	c := f.addContract(func(c *models.Contract) { c.PDFURL = &pointer })

	res, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String(), Download: true})
	if err != nil {
		t.Fatalf("FetchDocument() error = %v", err)
	}
	if body := readAll(t, res); string(body) != "%PDF-1.4 signed" {
		t.Errorf("unexpected body %q", body)
	}
	if res.Filename != "contract-"+c.ID.String()+".pdf" || strings.Contains(res.Filename, "-generated") {
		t.Errorf("unexpected filename %q", res.Filename)
	}
	if res.NoStore || res.Source != SourceStored {
		t.Errorf("stored result should not be no-store: %+v", res)
	}
	if got := res.Disposition(); !strings.HasPrefix(got, "attachment;") {
		t.Errorf("unexpected disposition %q", got)
	}
	if f.template.calls+f.legacy.calls != 0 {
		t.Error("stored path must not render")
	}
}

func TestFetchDocumentGeneratedFlagForcesSynthesis(t *testing.T) {
	f := newFixture(t, writeTemplatePDF(t, 1))
	pointer := "private/uploads/contracts/signed.pdf"
	writeFile(t, filepath.Join(f.roots[0].Dir, filepath.FromSlash(pointer)), "%PDF-stored")
	c := f.addContract(func(c *models.Contract) { c.PDFURL = &pointer })

	res, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String(), Generated: true})
	if err != nil {
		t.Fatalf("FetchDocument() error = %v", err)
	}
	readAll(t, res)
	if !strings.HasSuffix(res.Filename, "-generated.pdf") || f.template.calls != 1 {
		t.Errorf("expected synthesis, got %+v", res)
	}
}

func TestFetchDocumentStoredNonPDF(t *testing.T) {
	f := newFixture(t, "")
	pointer := "private/uploads/contracts/scan.tiff"
	writeFile(t, filepath.Join(f.roots[2].Dir, "uploads", "contracts", "scan.tiff"), "II*")
	c := f.addContract(func(c *models.Contract) { c.PDFURL = &pointer })

	res, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String()})
	if err != nil {
		t.Fatalf("FetchDocument() error = %v", err)
	}
	readAll(t, res)
	if res.ContentType != ContentTypeBinary {
		t.Errorf("content type = %q", res.ContentType)
	}
}

func TestFetchDocumentStoredFileMissing(t *testing.T) {
	f := newFixture(t, "")
	pointer := "private/uploads/contracts/gone.pdf"
	c := f.addContract(func(c *models.Contract) { c.PDFURL = &pointer })

	_, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String()})
	if !errors.Is(err, ErrStoredFileNotFound) {
		t.Fatalf("expected ErrStoredFileNotFound, got %v", err)
	}

	traversal := "private/uploads/contracts/../../../etc/passwd"
	c2 := f.addContract(func(c *models.Contract) { c.PDFURL = &traversal })
	_, err = f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c2.ID.String()})
	if !errors.Is(err, ErrStoredFileNotFound) {
		t.Fatalf("expected ErrStoredFileNotFound for traversal, got %v", err)
	}
}

func TestFetchDocumentFallsBackToLegacyWhenTemplateMissing(t *testing.T) {
	f := newFixture(t, filepath.Join(t.TempDir(), "missing-template.pdf"))
	c := f.addContract(nil)

	res, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String()})
	if err != nil {
		t.Fatalf("FetchDocument() error = %v", err)
	}
	body := readAll(t, res)
	if len(body) == 0 || !bytes.HasPrefix(body, []byte("%PDF-")) || !bytes.Contains(body, []byte("%%EOF")) {
		t.Fatal("legacy output is not a valid PDF")
	}
	if res.Source != SourceLegacy || f.template.calls != 1 || f.legacy.calls != 1 {
		t.Errorf("expected template attempt then legacy, got source=%s template=%d legacy=%d",
			res.Source, f.template.calls, f.legacy.calls)
	}
}

func TestFetchDocumentLegacyFallbackWithNonASCIINotes(t *testing.T) {
	f := newFixture(t, filepath.Join(t.TempDir(), "missing-template.pdf"))
	c := f.addContract(func(c *models.Contract) {
		c.Notes = contractnotes.Encode(contractnotes.Details{
			ArtistLegalName: "Jürgen Müller",
			ArtistAddress:   "Königstraße 5, Köln",
		}, "Café royalties für Jürgen.\n夜のドライブ – 分配")
		c.Splits[0].Name = "Zoë"
	})

	res, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String()})
	if err != nil {
		t.Fatalf("FetchDocument() error = %v", err)
	}
	body := readAll(t, res)
	if !bytes.HasPrefix(body, []byte("%PDF-")) || !bytes.Contains(body, []byte("%%EOF")) {
		t.Fatal("legacy output is not a valid PDF")
	}
	if res.Source != SourceLegacy {
		t.Errorf("source = %s, want legacy", res.Source)
	}
}

func TestSynthesizeFallsBackOnOverlayError(t *testing.T) {
	f := newFixture(t, "")
	f.svc.template = failingRenderer{err: errors.New("boom")}
	c := f.addContract(nil)

	out, source, err := f.svc.Synthesize(c)
	if err != nil || source != SourceLegacy || len(out) == 0 {
		t.Fatalf("Synthesize() = %d bytes, %s, %v", len(out), source, err)
	}
}

func TestSynthesizeLegacyFailureIsFatal(t *testing.T) {
	f := newFixture(t, "")
	f.svc.legacy = failingRenderer{err: errors.New("disk full")}
	_, _, err := f.svc.Synthesize(f.addContract(nil))
	if err == nil || errors.Is(err, pdfgen.ErrTemplateUnavailable) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestFetchDocumentMalformedSnapshotUsesSplitRows(t *testing.T) {
	f := newFixture(t, "")
	c := f.addContract(func(c *models.Contract) {
		c.FeaturedArtists = datatypes.JSON(`"not json"`)
	})

	doc := f.svc.BuildDocument(c)
	if doc.Ledger.Source != splits.SourceSplits {
		t.Fatalf("expected split rows, got %s", doc.Ledger.Source)
	}
	if got := doc.ArtistNames(); got != "Nova, Kilo Watts" {
		t.Errorf("unexpected names %q", got)
	}

	res, err := f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: c.ID.String()})
	if err != nil {
		t.Fatalf("FetchDocument() error = %v", err)
	}
	readAll(t, res)
}

func TestFetchDocumentErrors(t *testing.T) {
	f := newFixture(t, "")
	c := f.addContract(nil)

	_, err := f.svc.FetchDocument(context.Background(), nil, DocumentRequest{ContractID: c.ID.String()})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil requester: got %v", err)
	}
	if f.loader.calls != 0 {
		t.Error("no contract lookup may happen without a session")
	}

	for _, id := range []string{"", "abc", "   "} {
		_, err = f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: id})
		if !errors.Is(err, ErrInvalidContractID) {
			t.Errorf("id %q: got %v", id, err)
		}
	}

	_, err = f.svc.FetchDocument(context.Background(), f.ownerRequester(), DocumentRequest{ContractID: uuid.NewString()})
	if !errors.Is(err, ErrContractNotFound) {
		t.Errorf("unknown contract: got %v", err)
	}

	stranger := &Requester{UserID: uuid.New(), Email: "x@example.com", Role: models.RoleArtist}
	_, err = f.svc.FetchDocument(context.Background(), stranger, DocumentRequest{ContractID: c.ID.String()})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger: got %v", err)
	}
}

func TestBuildDocument(t *testing.T) {
	f := newFixture(t, "")
	legalUser := &models.User{Name: "Nova", LegalName: "Nova Lindqvist", PhoneNumber: "+31 6 1234"}
	releaseDate := time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC)
	c := f.addContract(func(c *models.Contract) {
		c.Notes = contractnotes.Encode(contractnotes.Details{
			ArtistAddress: "Keizersgracht 1",
		}, "free text")
		c.Release.ReleaseDate = &releaseDate
		c.Release.ISRC = "NLA1L2400099"
		c.Splits[0].User = legalUser
	})

	doc := f.svc.BuildDocument(c)
	if doc.AgreementRef != "HAL-2024-"+strings.ToUpper(strings.ReplaceAll(c.ID.String(), "-", ""))[:8] {
		t.Errorf("agreement ref = %q", doc.AgreementRef)
	}
	if doc.PartyName != "Nova" || doc.PartyLegalName != "Nova Lindqvist" || doc.PartyPhone != "+31 6 1234" {
		t.Errorf("party not resolved from linked user: %+v", doc)
	}
	if doc.PartyAddress != "Keizersgracht 1" {
		t.Errorf("notes address should win, got %q", doc.PartyAddress)
	}
	if doc.PartyEmail != "nova@example.com" {
		t.Errorf("email = %q", doc.PartyEmail)
	}
	if doc.EffectiveDate != "2024-02-20" {
		t.Errorf("effective date should default to creation date, got %q", doc.EffectiveDate)
	}
	if doc.DeliveryDate != "2024-04-12" || doc.ISRC != "NLA1L2400099" {
		t.Errorf("release fallbacks not applied: delivery=%q isrc=%q", doc.DeliveryDate, doc.ISRC)
	}
	if doc.Genre != "Electronic / Single" || doc.SongTitles != "Night Drive" {
		t.Errorf("genre=%q songs=%q", doc.Genre, doc.SongTitles)
	}
	if doc.Notes != "free text" {
		t.Errorf("notes = %q", doc.Notes)
	}
	if len(doc.VerificationQR) == 0 {
		t.Error("expected verification QR")
	}
	if !doc.GeneratedAt.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("generated at = %v", doc.GeneratedAt)
	}
}

func TestBuildDocumentDemoContract(t *testing.T) {
	f := newFixture(t, "")
	c := f.addContract(func(c *models.Contract) {
		c.Release = nil
		c.Demo = &models.Demo{Title: "Untitled Sketch", Genre: "House"}
		c.Splits = nil
		c.Artist = &models.Artist{Name: "Nova"}
	})
	doc := f.svc.BuildDocument(c)
	if doc.ReleaseTitle != "Untitled Sketch" || doc.Genre != "House / Demo" {
		t.Errorf("demo fields: %q / %q", doc.ReleaseTitle, doc.Genre)
	}
	if doc.PartyName != "Nova" {
		t.Errorf("party name should fall back to artist, got %q", doc.PartyName)
	}
	if doc.Ledger.Source != splits.SourceNone {
		t.Errorf("ledger source = %s", doc.Ledger.Source)
	}
}
