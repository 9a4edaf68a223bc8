package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/halcyonlabel/backend/internal/config"
	"github.com/halcyonlabel/backend/internal/models"
	"github.com/halcyonlabel/backend/internal/pkg/contractnotes"
	"github.com/halcyonlabel/backend/internal/pkg/pdfgen"
	"github.com/halcyonlabel/backend/internal/pkg/splits"
	"github.com/halcyonlabel/backend/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ContentTypePDF    = "application/pdf"
	ContentTypeBinary = "application/octet-stream"
)

// RenderSource names how a document body was produced.
type RenderSource string

const (
	SourceTemplate RenderSource = "template"
	SourceLegacy   RenderSource = "legacy"
	SourceStored   RenderSource = "stored"
)

// Renderer turns a reconciled document into PDF bytes.
type Renderer interface {
	Render(doc *pdfgen.Document) ([]byte, error)
}

// StoredContracts opens previously uploaded signed documents.
type StoredContracts interface {
	OpenContract(ctx context.Context, pointer string) (*StoredFile, error)
}

// VerificationCoder produces the QR image printed on generated agreements.
type VerificationCoder interface {
	VerificationPNG(contractID string) ([]byte, error)
}

// LabelInfo is the label identity printed on generated agreements.
type LabelInfo struct {
	Name      string
	Address   string
	RefPrefix string
}

func LabelInfoFromConfig(cfg *config.Config) LabelInfo {
	return LabelInfo{Name: cfg.LabelName, Address: cfg.LabelAddress, RefPrefix: cfg.LabelRefPrefix}
}

// DocumentRequest is one fetch of a contract's PDF.
type DocumentRequest struct {
	ContractID string
	// Generated forces synthesis even when a signed upload exists.
	Generated bool
	// Download asks for an attachment rather than inline display.
	Download bool
}

// DocumentResult is a ready-to-send document body. The caller closes Body.
type DocumentResult struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
	Download    bool
	NoStore     bool
	Source      RenderSource
}

// Disposition returns the Content-Disposition header value.
func (r *DocumentResult) Disposition() string {
	kind := "inline"
	if r.Download {
		kind = "attachment"
	}
	return fmt.Sprintf("%s; filename=\"%s\"", kind, r.Filename)
}

type DocumentService struct {
	contracts ContractLoader
	storage   StoredContracts
	template  Renderer
	legacy    Renderer
	qr        VerificationCoder
	label     LabelInfo
	log       *zap.Logger
	now       func() time.Time
}

// NewDocumentService wires the document pipeline. template and qr may be nil.
func NewDocumentService(contracts ContractLoader, storage StoredContracts, template, legacy Renderer, qr VerificationCoder, label LabelInfo, log *zap.Logger) *DocumentService {
	return &DocumentService{
		contracts: contracts,
		storage:   storage,
		template:  template,
		legacy:    legacy,
		qr:        qr,
		label:     label,
		log:       log,
		now:       time.Now,
	}
}

// FetchDocument authorizes the requester, loads the contract and returns
// either the stored signed upload or a freshly synthesized agreement.
func (s *DocumentService) FetchDocument(ctx context.Context, requester *Requester, req DocumentRequest) (*DocumentResult, error) {
	if requester == nil {
		return nil, ErrUnauthorized
	}
	id, ok := validation.ParseID(req.ContractID)
	if !ok {
		return nil, ErrInvalidContractID
	}

	contract, err := s.contracts.LoadContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccessContract(requester, contract) {
		s.log.Info("contract document access denied",
			zap.String("contract_id", id.String()),
			zap.String("user_id", requester.UserID.String()),
		)
		return nil, ErrForbidden
	}

	if req.Generated || !contract.HasStoredPDF() {
		return s.synthesize(contract, req.Download)
	}
	return s.serveStored(ctx, contract, req.Download)
}

func (s *DocumentService) synthesize(contract *models.Contract, download bool) (*DocumentResult, error) {
	body, source, err := s.Synthesize(contract)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{
		Body:        io.NopCloser(bytes.NewReader(body)),
		Size:        int64(len(body)),
		ContentType: ContentTypePDF,
		Filename:    fmt.Sprintf("contract-%s-generated.pdf", contract.ID),
		Download:    download,
		NoStore:     true,
		Source:      source,
	}, nil
}

// Synthesize renders the contract through the template, falling back to the
// legacy generator when the template cannot be used.
func (s *DocumentService) Synthesize(contract *models.Contract) ([]byte, RenderSource, error) {
	doc := s.BuildDocument(contract)

	if s.template != nil {
		out, err := s.template.Render(doc)
		if err == nil {
			return out, SourceTemplate, nil
		}
		if errors.Is(err, pdfgen.ErrTemplateUnavailable) {
			s.log.Warn("contract template unavailable, using legacy generator",
				zap.String("contract_id", doc.ContractID), zap.Error(err))
		} else {
			s.log.Error("template overlay failed, using legacy generator",
				zap.String("contract_id", doc.ContractID), zap.Error(err))
		}
	}

	out, err := s.legacy.Render(doc)
	if err != nil {
		return nil, "", fmt.Errorf("render contract %s: %w", doc.ContractID, err)
	}
	return out, SourceLegacy, nil
}

func (s *DocumentService) serveStored(ctx context.Context, contract *models.Contract, download bool) (*DocumentResult, error) {
	file, err := s.storage.OpenContract(ctx, *contract.PDFURL)
	if err != nil {
		if errors.Is(err, ErrStoredFileNotFound) {
			s.log.Warn("stored contract file missing",
				zap.String("contract_id", contract.ID.String()),
				zap.String("pointer", *contract.PDFURL))
		}
		return nil, err
	}

	ext := strings.ToLower(path.Ext(file.Name))
	contentType, filename := ContentTypePDF, fmt.Sprintf("contract-%s.pdf", contract.ID)
	if ext != ".pdf" {
		contentType = ContentTypeBinary
		filename = fmt.Sprintf("contract-%s%s", contract.ID, ext)
	}
	return &DocumentResult{
		Body:        file.Body,
		Size:        file.Size,
		ContentType: contentType,
		Filename:    filename,
		Download:    download,
		Source:      SourceStored,
	}, nil
}

// BuildDocument reconciles the contract's notes, splits and related records
// into the renderer input. It never fails; gaps become placeholders.
func (s *DocumentService) BuildDocument(c *models.Contract) *pdfgen.Document {
	details, userNotes := contractnotes.Decode(c.Notes)
	ledger := splits.Reconcile(c.FeaturedArtists, SplitRows(c.Splits))
	if len(c.FeaturedArtists) > 0 && ledger.Source != splits.SourceSnapshot {
		s.log.Warn("featured artist snapshot unusable, using split rows",
			zap.String("contract_id", c.ID.String()))
	}
	if len(ledger.Contributors) > 0 && !ledger.Balanced {
		s.log.Warn("contract splits do not total 100",
			zap.String("contract_id", c.ID.String()),
			zap.Float64("total", ledger.Total),
			zap.Bool("scaled", ledger.Scaled))
	}

	primary, _ := ledger.Primary()
	doc := &pdfgen.Document{
		ContractID:   c.ID.String(),
		Title:        strings.TrimSpace(c.Title),
		AgreementRef: pdfgen.AgreementReference(details.AgreementReferenceNo, s.label.RefPrefix, c.ID.String(), c.CreatedAt),
		LabelName:    s.label.Name,
		LabelAddress: s.label.Address,

		PartyName:      firstKnown(primary.Name, artistName(c.Artist), userName(c.User)),
		PartyLegalName: firstKnown(details.ArtistLegalName, primary.LegalName),
		PartyPhone:     firstKnown(details.ArtistPhone, primary.Phone),
		PartyAddress:   firstKnown(details.ArtistAddress, primary.Address),
		PartyEmail:     firstKnown(primary.Email, c.PrimaryArtistEmail, userEmail(c.User)),

		EffectiveDate: firstKnown(details.EffectiveDate, dateOf(c.CreatedAt)),
		DeliveryDate:  details.DeliveryDate,
		SongTitles:    details.SongTitles,
		ISRC:          details.ISRC,

		ArtistShare: c.ArtistShare,
		LabelShare:  c.LabelShare,
		Ledger:      ledger,
		Notes:       userNotes,
		GeneratedAt: s.now().UTC(),
	}

	switch {
	case c.Release != nil:
		doc.ReleaseTitle = c.Release.Title
		doc.Genre = joinNonEmpty(" / ", c.Release.Genre, titleWord(c.Release.Type))
		doc.ISRC = firstKnown(doc.ISRC, c.Release.ISRC)
		if doc.DeliveryDate == "" && c.Release.ReleaseDate != nil {
			doc.DeliveryDate = dateOf(*c.Release.ReleaseDate)
		}
	case c.Demo != nil:
		doc.ReleaseTitle = c.Demo.Title
		doc.Genre = joinNonEmpty(" / ", c.Demo.Genre, "Demo")
	}
	doc.SongTitles = firstKnown(doc.SongTitles, doc.ReleaseTitle)

	if s.qr != nil {
		png, err := s.qr.VerificationPNG(doc.ContractID)
		if err != nil {
			s.log.Warn("verification qr unavailable", zap.String("contract_id", doc.ContractID), zap.Error(err))
		} else {
			doc.VerificationQR = png
		}
	}
	return doc
}

// SplitRows converts loaded split rows into ledger input.
func SplitRows(rows []models.Split) []splits.Row {
	out := make([]splits.Row, 0, len(rows))
	for _, r := range rows {
		row := splits.Row{
			Name:       r.Name,
			Role:       r.Role,
			Percentage: r.Percentage,
			Email:      r.Email,
			User:       partyFromUser(r.User),
		}
		if r.UserID != nil {
			row.UserID = r.UserID.String()
		}
		if r.ArtistID != nil {
			row.ArtistID = r.ArtistID.String()
		}
		if r.Artist != nil {
			row.ArtistName = r.Artist.Name
			row.ArtistOwner = partyFromUser(r.Artist.User)
		}
		out = append(out, row)
	}
	return out
}

func partyFromUser(u *models.User) *splits.Party {
	if u == nil {
		return nil
	}
	return &splits.Party{
		Name:      u.Name,
		LegalName: u.LegalName,
		Phone:     u.PhoneNumber,
		Address:   u.Address,
		Email:     u.Email,
	}
}

// firstKnown is ResolveField that also skips values already resolved to the placeholder.
func firstKnown(candidates ...string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" && v != splits.Placeholder {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func titleWord(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "ep") {
		return "EP"
	}
	return cases.Title(language.English).String(s)
}

func artistName(a *models.Artist) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func userName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func userEmail(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

func dateOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
