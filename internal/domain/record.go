package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PartyField names one of the six fixed vote-count slots of a Record.
type PartyField string

const (
	FieldNPP  PartyField = "npp_votes"
	FieldSJB  PartyField = "sjb_votes"
	FieldNDF  PartyField = "ndf_votes"
	FieldUDV  PartyField = "uvd_votes"
	FieldSLPP PartyField = "slpp_votes"
	FieldMJP  PartyField = "mjp_votes"
)

// PartyFields lists the party slots in artifact order.
var PartyFields = []PartyField{FieldNPP, FieldSJB, FieldNDF, FieldUDV, FieldSLPP, FieldMJP}

// SummaryField names one of the region-level aggregate counts.
type SummaryField string

const (
	FieldValid      SummaryField = "valid_votes"
	FieldTotal      SummaryField = "total_votes"
	FieldRegistered SummaryField = "registered_votes"
	FieldRejected   SummaryField = "rejected_votes"
)

// Record is the normalized vote count of one electoral division.
// A nil count means the value was not reported or could not be parsed.
type Record struct {
	RegionName string

	NPP  *int64
	SJB  *int64
	NDF  *int64
	UDV  *int64
	SLPP *int64
	MJP  *int64

	Valid      *int64
	Total      *int64
	Registered *int64
	Rejected   *int64
}

// NewRecord returns an empty record for the region.
func NewRecord(region string) Record {
	return Record{RegionName: strings.TrimSpace(region)}
}

// Party returns the count stored in the given party slot.
func (r Record) Party(field PartyField) *int64 {
	switch field {
	case FieldNPP:
		return r.NPP
	case FieldSJB:
		return r.SJB
	case FieldNDF:
		return r.NDF
	case FieldUDV:
		return r.UDV
	case FieldSLPP:
		return r.SLPP
	case FieldMJP:
		return r.MJP
	}
	return nil
}

// SetParty stores a count in the given party slot; unknown fields are ignored.
func (r *Record) SetParty(field PartyField, votes *int64) bool {
	switch field {
	case FieldNPP:
		r.NPP = votes
	case FieldSJB:
		r.SJB = votes
	case FieldNDF:
		r.NDF = votes
	case FieldUDV:
		r.UDV = votes
	case FieldSLPP:
		r.SLPP = votes
	case FieldMJP:
		r.MJP = votes
	default:
		return false
	}
	return true
}

// SetSummary stores an aggregate count.
func (r *Record) SetSummary(field SummaryField, votes *int64) bool {
	switch field {
	case FieldValid:
		r.Valid = votes
	case FieldTotal:
		r.Total = votes
	case FieldRegistered:
		r.Registered = votes
	case FieldRejected:
		r.Rejected = votes
	default:
		return false
	}
	return true
}

// Validate checks the record invariants before it leaves the process.
func (r Record) Validate() error {
	if strings.TrimSpace(r.RegionName) == "" {
		return fmt.Errorf("record has empty region name")
	}
	for name, v := range r.Fields() {
		if v != nil && *v < 0 {
			return fmt.Errorf("record %s: negative %s", r.RegionName, name)
		}
	}
	return nil
}

// Fields returns every numeric slot keyed by its artifact field name.
func (r Record) Fields() map[string]*int64 {
	fields := make(map[string]*int64, len(PartyFields)+4)
	for _, f := range PartyFields {
		fields[string(f)] = r.Party(f)
	}
	fields[string(FieldValid)] = r.Valid
	fields[string(FieldTotal)] = r.Total
	fields[string(FieldRegistered)] = r.Registered
	fields[string(FieldRejected)] = r.Rejected
	return fields
}

// artifact fixes the field order of the JSON file consumed by the renderer.
type artifact struct {
	NPP        *int64 `json:"npp_votes"`
	SJB        *int64 `json:"sjb_votes"`
	NDF        *int64 `json:"ndf_votes"`
	UDV        *int64 `json:"uvd_votes"`
	SLPP       *int64 `json:"slpp_votes"`
	MJP        *int64 `json:"mjp_votes"`
	Valid      *int64 `json:"valid_votes"`
	Total      *int64 `json:"total_votes"`
	Registered *int64 `json:"registered_votes"`
	Rejected   *int64 `json:"rejected_votes"`
	District   string `json:"district_name"`
}

// MarshalJSON renders the canonical artifact form; absent counts become null.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(artifact{
		NPP:        r.NPP,
		SJB:        r.SJB,
		NDF:        r.NDF,
		UDV:        r.UDV,
		SLPP:       r.SLPP,
		MJP:        r.MJP,
		Valid:      r.Valid,
		Total:      r.Total,
		Registered: r.Registered,
		Rejected:   r.Rejected,
		District:   r.RegionName,
	})
}

// UnmarshalJSON reads the artifact form back into a record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Record{
		RegionName: a.District,
		NPP:        a.NPP,
		SJB:        a.SJB,
		NDF:        a.NDF,
		UDV:        a.UDV,
		SLPP:       a.SLPP,
		MJP:        a.MJP,
		Valid:      a.Valid,
		Total:      a.Total,
		Registered: a.Registered,
		Rejected:   a.Rejected,
	}
	return nil
}

// Artifact serializes the record with the indentation used for files on disk.
func (r Record) Artifact() ([]byte, error) {
	return json.MarshalIndent(r, "", "    ")
}

// Region is one division discovered on a source site.
type Region struct {
	// Key identifies the region inside the seen set.
	Key  string
	Name string
	URL  string
	// Page holds an already fetched detail page; nil when Extract must fetch it.
	Page []byte
}

// Extraction is the result of parsing one region's detail page.
type Extraction struct {
	Record   Record
	Summary  map[string]int64
	Warnings []FieldWarning
}

// DispatchStatus enumerates the history states of a dispatched record.
type DispatchStatus string

const (
	StatusDelivered    DispatchStatus = "delivered"
	StatusNotifyFailed DispatchStatus = "notify_failed"
	StatusDeclined     DispatchStatus = "declined"
	StatusWritten      DispatchStatus = "written" // no notifier configured
)

// DispatchEntry is one row of the dispatch history.
type DispatchEntry struct {
	ID        string
	Site      string
	Region    string
	Payload   string
	Status    DispatchStatus
	Error     string
	CreatedAt time.Time
}

// Votes is a convenience constructor for optional counts.
func Votes(v int64) *int64 {
	return &v
}
