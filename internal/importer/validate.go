package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/proplist/importer/internal/listing"
)

// MaxTitleLength is the longest accepted listing title, in characters.
const MaxTitleLength = 200

// fieldRule validates one declared listing field and, on success, writes
// the normalized value into the record under construction.
type fieldRule struct {
	name     string
	validate func(value string, rec *listing.Record) error
}

// listingRules is the declared import schema. Rules are evaluated in
// declaration order and the first violation wins; a row is either fully
// valid or rejected, never partially populated.
var listingRules = []fieldRule{
	{
		name: "title",
		validate: func(v string, rec *listing.Record) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return errors.New("title is required")
			}
			if utf8.RuneCountInString(v) > MaxTitleLength {
				return errors.New("title must be 200 characters or less")
			}
			rec.Title = v
			return nil
		},
	},
	{
		name: "price",
		validate: func(v string, rec *listing.Record) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return errors.New("price is required")
			}
			p, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
				return errors.New("price must be a number")
			}
			if p <= 0 {
				return errors.New("price must be greater than zero")
			}
			rec.Price = p
			return nil
		},
	},
	{
		name: "projectId",
		validate: func(v string, rec *listing.Record) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return errors.New("projectId is required")
			}
			rec.ProjectID = v
			return nil
		},
	},
}

// ValidateRow checks one raw record against the listing schema and returns
// the normalized record. It is a pure function: no side effects, same
// result for the same input. Unknown columns in the raw record are ignored.
func ValidateRow(raw RawRecord) (listing.Record, error) {
	var rec listing.Record
	for _, rule := range listingRules {
		if err := rule.validate(fieldValue(raw, rule.name), &rec); err != nil {
			return listing.Record{}, err
		}
	}
	return rec, nil
}

// fieldValue looks up a declared field in the raw record, tolerating
// header casing differences ("Title", "PROJECTID").
func fieldValue(raw RawRecord, name string) string {
	if v, ok := raw[name]; ok {
		return v
	}
	for k, v := range raw {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
