package pdfgen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FitMode selects how a value is squeezed into its slot on the template.
type FitMode string

const (
	FitNone     FitMode = "none"
	FitTruncate FitMode = "truncate"
	FitWrap     FitMode = "wrap"
)

// Template field names.
const (
	FieldAgreementReference = "agreement_reference"
	FieldEffectiveDate      = "effective_date"
	FieldSongTitle          = "song_title"
	FieldArtistNames        = "artist_names"
	FieldGenre              = "genre"
	FieldISRC               = "isrc"
	FieldDeliveryDate       = "delivery_date"

	FieldScheduleSongTitle    = "schedule_song_title"
	FieldScheduleContributors = "schedule_contributors"
	FieldScheduleISRC         = "schedule_isrc"
	FieldScheduleArtistShare  = "schedule_artist_share"
	FieldScheduleLabelShare   = "schedule_label_share"
	FieldScheduleComposition  = "schedule_composition"
)

// Field places one value on the template. Coordinates are in points from the
// top-left corner of the page; Y is the text baseline.
type Field struct {
	Page       int     `yaml:"page"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Font       string  `yaml:"font"`
	Style      string  `yaml:"style"`
	Size       float64 `yaml:"size"`
	Fit        FitMode `yaml:"fit"`
	MaxChars   int     `yaml:"maxChars"`
	LineChars  int     `yaml:"lineChars"`
	MaxLines   int     `yaml:"maxLines"`
	LineHeight float64 `yaml:"lineHeight"`
}

// Layout is the declarative coordinate table for one template revision.
type Layout struct {
	Font                 string           `yaml:"font"`
	CompositionOwnership string           `yaml:"compositionOwnership"`
	Fields               map[string]Field `yaml:"fields"`
}

// DefaultLayout matches the label's current A4 agreement template.
func DefaultLayout() *Layout {
	return &Layout{
		Font:                 "Helvetica",
		CompositionOwnership: "100% Artist",
		Fields: map[string]Field{
			FieldAgreementReference: {Page: 1, X: 178, Y: 146, Size: 10, Fit: FitTruncate, MaxChars: 40},
			FieldEffectiveDate:      {Page: 1, X: 430, Y: 146, Size: 10, Fit: FitNone},
			FieldSongTitle:          {Page: 1, X: 178, Y: 318, Size: 10, Fit: FitWrap, LineChars: 52, MaxLines: 2, LineHeight: 12},
			FieldArtistNames:        {Page: 1, X: 178, Y: 352, Size: 10, Fit: FitWrap, LineChars: 52, MaxLines: 2, LineHeight: 12},
			FieldGenre:              {Page: 1, X: 178, Y: 386, Size: 10, Fit: FitTruncate, MaxChars: 48},
			FieldISRC:               {Page: 1, X: 178, Y: 410, Size: 10, Fit: FitTruncate, MaxChars: 24},
			FieldDeliveryDate:       {Page: 1, X: 178, Y: 434, Size: 10, Fit: FitNone},

			FieldScheduleSongTitle:    {Page: 3, X: 58, Y: 238, Size: 8, Fit: FitTruncate, MaxChars: 26},
			FieldScheduleContributors: {Page: 3, X: 178, Y: 238, Size: 8, Fit: FitTruncate, MaxChars: 30},
			FieldScheduleISRC:         {Page: 3, X: 318, Y: 238, Size: 8, Fit: FitTruncate, MaxChars: 14},
			FieldScheduleArtistShare:  {Page: 3, X: 392, Y: 238, Size: 8, Fit: FitNone},
			FieldScheduleLabelShare:   {Page: 3, X: 448, Y: 238, Size: 8, Fit: FitNone},
			FieldScheduleComposition:  {Page: 3, X: 500, Y: 238, Size: 8, Fit: FitTruncate, MaxChars: 16},
		},
	}
}

// LoadLayout returns the default layout, overridden by the YAML file at path
// when path is set. Fields named in the file replace the default entry whole.
func LoadLayout(path string) (*Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	var override Layout
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}

	if override.Font != "" {
		layout.Font = override.Font
	}
	if override.CompositionOwnership != "" {
		layout.CompositionOwnership = override.CompositionOwnership
	}
	for name, f := range override.Fields {
		layout.Fields[name] = f
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return layout, nil
}

// Validate rejects entries that cannot be drawn.
func (l *Layout) Validate() error {
	for name, f := range l.Fields {
		if f.Page < 1 {
			return fmt.Errorf("field %s: page must be >= 1", name)
		}
		if f.X < 0 || f.Y < 0 {
			return fmt.Errorf("field %s: negative coordinates", name)
		}
		switch f.Fit {
		case "", FitNone:
		case FitTruncate:
			if f.MaxChars < 1 {
				return fmt.Errorf("field %s: truncate needs maxChars", name)
			}
		case FitWrap:
			if f.LineChars < 1 || f.MaxLines < 1 {
				return fmt.Errorf("field %s: wrap needs lineChars and maxLines", name)
			}
		default:
			return fmt.Errorf("field %s: unknown fit mode %q", name, f.Fit)
		}
	}
	return nil
}

// Lines applies the field's fitting rule to value.
func (f Field) Lines(value string) []string {
	switch f.Fit {
	case FitTruncate:
		return []string{Truncate(value, f.MaxChars)}
	case FitWrap:
		return Wrap(value, f.LineChars, f.MaxLines)
	default:
		return []string{CollapseSpace(value)}
	}
}

func (f Field) fontSize() float64 {
	if f.Size <= 0 {
		return 10
	}
	return f.Size
}

func (f Field) lineHeight() float64 {
	if f.LineHeight > 0 {
		return f.LineHeight
	}
	return f.fontSize() * 1.2
}
