// Package pdfgen renders royalty split agreements to PDF, either by writing
// values onto a pre-authored template or by laying out the whole document from
// scratch.
package pdfgen

import (
	"strings"
	"time"

	"github.com/halcyonlabel/backend/internal/pkg/splits"
)

// Document is everything a renderer needs, already reconciled. Missing values
// are empty strings and render as placeholders.
type Document struct {
	ContractID   string
	Title        string
	AgreementRef string

	LabelName    string
	LabelAddress string

	// Primary contact block of the PARTIES section.
	PartyName      string
	PartyLegalName string
	PartyPhone     string
	PartyAddress   string
	PartyEmail     string

	ReleaseTitle  string
	SongTitles    string
	Genre         string
	ISRC          string
	EffectiveDate string
	DeliveryDate  string

	// ArtistShare and LabelShare are fractions of gross revenue.
	ArtistShare float64
	LabelShare  float64
	Ledger      *splits.Ledger

	Notes          string
	GeneratedAt    time.Time
	VerificationQR []byte
}

// ArtistNames joins contributor names in ledger order.
func (d *Document) ArtistNames() string {
	if d.Ledger == nil || len(d.Ledger.Contributors) == 0 {
		return splits.ResolveField(d.PartyName)
	}
	return strings.Join(d.Ledger.Names(), ", ")
}

func (d *Document) contributors() []splits.Contributor {
	if d.Ledger == nil {
		return nil
	}
	return d.Ledger.Contributors
}

// templateValues computes the text for every template field.
func (d *Document) templateValues(layout *Layout) map[string]string {
	song := splits.ResolveField(d.SongTitles, d.ReleaseTitle, d.Title)
	isrc := splits.ResolveField(d.ISRC)
	return map[string]string{
		FieldAgreementReference: splits.ResolveField(d.AgreementRef),
		FieldEffectiveDate:      FormatDate(d.EffectiveDate),
		FieldSongTitle:          song,
		FieldArtistNames:        d.ArtistNames(),
		FieldGenre:              splits.ResolveField(d.Genre),
		FieldISRC:               isrc,
		FieldDeliveryDate:       FormatDate(d.DeliveryDate),

		FieldScheduleSongTitle:    song,
		FieldScheduleContributors: d.ArtistNames(),
		FieldScheduleISRC:         isrc,
		FieldScheduleArtistShare:  FormatPercent(d.ArtistShare * 100),
		FieldScheduleLabelShare:   FormatPercent(d.LabelShare * 100),
		FieldScheduleComposition:  layout.CompositionOwnership,
	}
}
