package domain

import "strings"

// PartyTable maps the party text found on a page to its record slot.
type PartyTable map[string]PartyField

// Lookup resolves a party key; ok is false for parties outside the fixed set.
func (t PartyTable) Lookup(key string) (PartyField, bool) {
	field, ok := t[strings.TrimSpace(key)]
	return field, ok
}

// DivisionParties is keyed by abbreviation and full name written together,
// the way division result blocks print them.
var DivisionParties = PartyTable{
	"NPPJathika Jana Balawegaya":      FieldNPP,
	"SJBSamagi Jana Balawegaya":       FieldSJB,
	"NDFNew Democratic Front":         FieldNDF,
	"UDVUnited Democratic Voice":      FieldUDV,
	"SLPPSri Lanka Podujana Peramuna": FieldSLPP,
	"MJPMinority Justice Party":       FieldMJP,
}

// NationalParties is keyed by the full party names of the national summary page.
var NationalParties = PartyTable{
	"Jathika Jana Balawegaya":     FieldNPP,
	"Samagi Jana Balawegaya":      FieldSJB,
	"New Democratic Front":        FieldNDF,
	"Sri Lanka Podujana Peramuna": FieldSLPP,
	"United Democratic Voice":     FieldUDV,
	"Sarvajana Balaya":            FieldMJP,
}

var summaryLabels = map[string]SummaryField{
	"valid":          FieldValid,
	"valid votes":    FieldValid,
	"rejected":       FieldRejected,
	"rejected votes": FieldRejected,
	"polled":         FieldTotal,
	"total polled":   FieldTotal,
	"electors":       FieldRegistered,
	"total electors": FieldRegistered,
}

// NormalizeLabel lower-cases a summary label and collapses inner whitespace.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// SummaryFieldFor maps a summary row label to its record slot.
func SummaryFieldFor(label string) (SummaryField, bool) {
	field, ok := summaryLabels[NormalizeLabel(label)]
	return field, ok
}
