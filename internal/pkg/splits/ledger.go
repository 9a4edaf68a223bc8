// Package splits reconciles the contributor data of a contract into a single
// ordered list for rendering.
//
// Two sources describe the same contributors: the relational split rows and a
// denormalised JSON snapshot that carries extra contact fields. The snapshot
// wins when it parses to a non-empty array; contact fields are then resolved
// per field through ResolveField.
package splits

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Placeholder is rendered for any field no source could fill.
const Placeholder = "-"

// balanceTolerance is how far a split total may drift from 100 and still count as balanced.
const balanceTolerance = 0.01

type Role string

const (
	RolePrimary  Role = "primary"
	RoleFeatured Role = "featured"
	RoleProducer Role = "producer"
	RoleWriter   Role = "writer"
)

// ParseRole normalises a stored role. Unknown or empty roles become featured.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePrimary:
		return RolePrimary
	case RoleProducer:
		return RoleProducer
	case RoleWriter:
		return RoleWriter
	default:
		return RoleFeatured
	}
}

// Source names where the contributor list came from.
type Source string

const (
	SourceSnapshot Source = "snapshot"
	SourceSplits   Source = "splits"
	SourceNone     Source = "none"
)

// Party is a linked user record that can supply contact fields.
type Party struct {
	Name      string
	LegalName string
	Phone     string
	Address   string
	Email     string
}

// Row is a relational split row with its linked records already loaded.
type Row struct {
	Name       string
	Role       string
	Percentage float64
	Email      string
	UserID     string
	ArtistID   string
	ArtistName string
	// User is the user linked directly to the split.
	User *Party
	// ArtistOwner is the user owning the linked artist profile.
	ArtistOwner *Party
}

// Contributor is one resolved line of the ledger.
type Contributor struct {
	Name string
	Role Role
	// PercentageOfArtistShare is a share of the artist pool, not of gross revenue.
	PercentageOfArtistShare float64
	LegalName               string
	Phone                   string
	Address                 string
	Email                   string
	IsPrimary               bool
}

// GrossPercentage converts the contributor's share into a percentage of gross
// revenue given the contract's artist share fraction.
func (c Contributor) GrossPercentage(artistShare float64) float64 {
	return c.PercentageOfArtistShare * artistShare
}

// Ledger is the reconciled contributor list plus balance diagnostics.
type Ledger struct {
	Contributors []Contributor
	Source       Source
	// Total is the sum of the stored percentages before any scaling.
	Total float64
	// Balanced reports whether Total is 100 within tolerance.
	Balanced bool
	// Scaled reports whether percentages were scaled down because Total exceeded 100.
	Scaled bool
}

// Primary returns the primary contributor. ok is false for an empty ledger.
func (l *Ledger) Primary() (Contributor, bool) {
	for _, c := range l.Contributors {
		if c.IsPrimary {
			return c, true
		}
	}
	return Contributor{}, false
}

// Names returns contributor display names in ledger order.
func (l *Ledger) Names() []string {
	names := make([]string, 0, len(l.Contributors))
	for _, c := range l.Contributors {
		names = append(names, c.Name)
	}
	return names
}

// ResolveField returns the first candidate with non-blank content, trimmed,
// or Placeholder when none has any.
func ResolveField(candidates ...string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}
	return Placeholder
}

// SnapshotEntry is one validated element of the FeaturedArtist snapshot.
type SnapshotEntry struct {
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Percentage  Percent `json:"percentage"`
	LegalName   string  `json:"legalName"`
	PhoneNumber string  `json:"phoneNumber"`
	Address     string  `json:"address"`
	Email       string  `json:"email"`
	UserID      string  `json:"userId"`
	ArtistID    string  `json:"artistId"`
}

// Percent accepts a JSON number or a numeric string. Anything else decodes as 0.
type Percent float64

func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = Percent(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, perr := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64); perr == nil {
			*p = Percent(v)
			return nil
		}
	}
	*p = 0
	return nil
}

// ParseSnapshot decodes the snapshot column. ok is false when the data is
// absent, not a JSON array, or an empty array.
func ParseSnapshot(raw []byte) ([]SnapshotEntry, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		// double-encoded column: a JSON string holding the array
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var entries []SnapshotEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// Reconcile builds the ledger from the snapshot column and the relational rows.
func Reconcile(snapshot []byte, rows []Row) *Ledger {
	ledger := &Ledger{Source: SourceNone}

	if entries, ok := ParseSnapshot(snapshot); ok {
		ledger.Source = SourceSnapshot
		for _, e := range entries {
			ledger.Contributors = append(ledger.Contributors, fromSnapshot(e, matchRow(e, rows)))
		}
	} else if len(rows) > 0 {
		ledger.Source = SourceSplits
		for i := range rows {
			ledger.Contributors = append(ledger.Contributors, fromRow(&rows[i]))
		}
	}

	markPrimary(ledger.Contributors)
	balance(ledger)
	return ledger
}

func fromSnapshot(e SnapshotEntry, row *Row) Contributor {
	var rowName, rowEmail, artistName string
	var user, owner *Party
	if row != nil {
		rowName, rowEmail, artistName = row.Name, row.Email, row.ArtistName
		user, owner = row.User, row.ArtistOwner
	}
	return Contributor{
		Name:                    ResolveField(e.Name, rowName, partyName(user), artistName),
		Role:                    ParseRole(e.Role),
		PercentageOfArtistShare: sanitizePercent(float64(e.Percentage)),
		LegalName:               ResolveField(e.LegalName, partyField(user, legalName), partyField(owner, legalName)),
		Phone:                   ResolveField(e.PhoneNumber, partyField(user, phone), partyField(owner, phone)),
		Address:                 ResolveField(e.Address, partyField(user, address), partyField(owner, address)),
		Email:                   ResolveField(e.Email, rowEmail, partyField(user, email), partyField(owner, email)),
	}
}

func fromRow(r *Row) Contributor {
	return Contributor{
		Name:                    ResolveField(r.Name, partyName(r.User), r.ArtistName),
		Role:                    ParseRole(r.Role),
		PercentageOfArtistShare: sanitizePercent(r.Percentage),
		LegalName:               ResolveField(partyField(r.User, legalName), partyField(r.ArtistOwner, legalName)),
		Phone:                   ResolveField(partyField(r.User, phone), partyField(r.ArtistOwner, phone)),
		Address:                 ResolveField(partyField(r.User, address), partyField(r.ArtistOwner, address)),
		Email:                   ResolveField(r.Email, partyField(r.User, email), partyField(r.ArtistOwner, email)),
	}
}

// matchRow finds the relational row describing the same contributor as a
// snapshot entry: by user id, then artist id, then case-insensitive name.
func matchRow(e SnapshotEntry, rows []Row) *Row {
	if id := strings.TrimSpace(e.UserID); id != "" {
		for i := range rows {
			if rows[i].UserID == id {
				return &rows[i]
			}
		}
	}
	if id := strings.TrimSpace(e.ArtistID); id != "" {
		for i := range rows {
			if rows[i].ArtistID == id {
				return &rows[i]
			}
		}
	}
	if name := strings.TrimSpace(e.Name); name != "" {
		for i := range rows {
			if strings.EqualFold(strings.TrimSpace(rows[i].Name), name) {
				return &rows[i]
			}
		}
	}
	return nil
}

type partyAccessor func(*Party) string

var (
	legalName partyAccessor = func(p *Party) string { return p.LegalName }
	phone     partyAccessor = func(p *Party) string { return p.Phone }
	address   partyAccessor = func(p *Party) string { return p.Address }
	email     partyAccessor = func(p *Party) string { return p.Email }
)

func partyField(p *Party, get partyAccessor) string {
	if p == nil {
		return ""
	}
	return get(p)
}

func partyName(p *Party) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// markPrimary flags the first contributor holding the primary role, or the
// first contributor when nobody does. Stored roles are left as they are.
func markPrimary(cs []Contributor) {
	if len(cs) == 0 {
		return
	}
	for i := range cs {
		if cs[i].Role == RolePrimary {
			cs[i].IsPrimary = true
			return
		}
	}
	cs[0].IsPrimary = true
}

func sanitizePercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// balance records the total and scales shares down proportionally when they
// add up to more than 100, so no contributor set can claim more than the
// artist share.
func balance(l *Ledger) {
	var total float64
	for _, c := range l.Contributors {
		total += c.PercentageOfArtistShare
	}
	l.Total = total
	l.Balanced = math.Abs(total-100) <= balanceTolerance
	if total > 100+balanceTolerance {
		factor := 100 / total
		for i := range l.Contributors {
			l.Contributors[i].PercentageOfArtistShare *= factor
		}
		l.Scaled = true
	}
}
