// Package contractnotes stores the legal detail fields of a contract inside its
// free-text notes column.
//
// The encoded form is a block anchored at the very start of the notes:
//
//	[[CONTRACT_DETAILS]]
//	agreementReferenceNo=HAL-2024-0A1B2C3D
//	effectiveDate=2024-03-01
//	[[/CONTRACT_DETAILS]]
//	free text written by the user...
//
// Values are escaped so they never contain a raw line break. Only a block that
// begins at offset zero is recognised, so marker-like text inside the user's own
// notes is left alone.
package contractnotes

import (
	"strings"
)

const (
	blockStart = "[[CONTRACT_DETAILS]]"
	blockEnd   = "[[/CONTRACT_DETAILS]]"
)

// Field keys as they appear inside the block.
const (
	KeyAgreementReferenceNo = "agreementReferenceNo"
	KeyEffectiveDate        = "effectiveDate"
	KeyDeliveryDate         = "deliveryDate"
	KeyISRC                 = "isrc"
	KeySongTitles           = "songTitles"
	KeyArtistLegalName      = "artistLegalName"
	KeyArtistPhone          = "artistPhone"
	KeyArtistAddress        = "artistAddress"
)

// Details is the fixed schema of legal fields carried by a contract's notes.
type Details struct {
	AgreementReferenceNo string `json:"agreementReferenceNo" yaml:"agreementReferenceNo"`
	EffectiveDate        string `json:"effectiveDate" yaml:"effectiveDate"`
	DeliveryDate         string `json:"deliveryDate" yaml:"deliveryDate"`
	ISRC                 string `json:"isrc" yaml:"isrc"`
	SongTitles           string `json:"songTitles" yaml:"songTitles"`
	ArtistLegalName      string `json:"artistLegalName" yaml:"artistLegalName"`
	ArtistPhone          string `json:"artistPhone" yaml:"artistPhone"`
	ArtistAddress        string `json:"artistAddress" yaml:"artistAddress"`
}

// IsZero reports whether every field is empty.
func (d Details) IsZero() bool {
	return d == Details{}
}

func (d *Details) fields() []struct {
	key string
	val *string
} {
	return []struct {
		key string
		val *string
	}{
		{KeyAgreementReferenceNo, &d.AgreementReferenceNo},
		{KeyEffectiveDate, &d.EffectiveDate},
		{KeyDeliveryDate, &d.DeliveryDate},
		{KeyISRC, &d.ISRC},
		{KeySongTitles, &d.SongTitles},
		{KeyArtistLegalName, &d.ArtistLegalName},
		{KeyArtistPhone, &d.ArtistPhone},
		{KeyArtistAddress, &d.ArtistAddress},
	}
}

// Set assigns a field by key. Unknown keys are ignored and reported as false.
func (d *Details) Set(key, value string) bool {
	for _, f := range d.fields() {
		if f.key == key {
			*f.val = value
			return true
		}
	}
	return false
}

// Encode embeds details ahead of the user's notes.
// With no details the notes are returned untouched, unless they would be
// mistaken for an encoded block on decode; in that case an empty block is
// written first so the round trip stays exact.
func Encode(details Details, userNotes string) string {
	if details.IsZero() && !strings.HasPrefix(userNotes, blockStart) {
		return userNotes
	}

	var b strings.Builder
	b.WriteString(blockStart)
	b.WriteByte('\n')
	for _, f := range details.fields() {
		if *f.val == "" {
			continue
		}
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(escape(*f.val))
		b.WriteByte('\n')
	}
	b.WriteString(blockEnd)
	b.WriteByte('\n')
	b.WriteString(userNotes)
	return b.String()
}

// Decode splits notes into details and the user's free text. It never fails:
// a missing or malformed block yields empty details and the whole input as
// user notes.
func Decode(notes string) (Details, string) {
	details, rest, ok := parseBlock(notes)
	if !ok {
		return Details{}, notes
	}
	return details, rest
}

func parseBlock(notes string) (Details, string, bool) {
	var details Details
	if !strings.HasPrefix(notes, blockStart+"\n") {
		return details, "", false
	}
	remaining := notes[len(blockStart)+1:]

	for {
		nl := strings.IndexByte(remaining, '\n')
		line := remaining
		if nl >= 0 {
			line = remaining[:nl]
		}

		if line == blockEnd {
			if nl < 0 {
				return details, "", true
			}
			return details, remaining[nl+1:], true
		}
		if nl < 0 {
			// unterminated block
			return Details{}, "", false
		}

		key, raw, found := strings.Cut(line, "=")
		if !found || key == "" {
			return Details{}, "", false
		}
		value, valid := unescape(raw)
		if !valid {
			return Details{}, "", false
		}
		details.Set(key, value)
		remaining = remaining[nl+1:]
	}
}

func escape(s string) string {
	if !strings.ContainsAny(s, "\\\n\r") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescape(s string) (string, bool) {
	if !strings.ContainsRune(s, '\\') {
		return s, true
	}
	var b strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !escaped {
			if c == '\\' {
				escaped = true
				continue
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", false
		}
		escaped = false
	}
	if escaped {
		return "", false
	}
	return b.String(), true
}
