// Package csvout renders export rows as CSV files with deterministic
// column order and standard doubled-quote escaping.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field is one key/value cell; Record preserves field order, which fixes
// the column order of the emitted file.
type Field struct {
	Key   string
	Value any
}

type Record []Field

// R builds a Record from alternating key, value pairs.
func R(pairs ...any) Record {
	rec := make(Record, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rec = append(rec, Field{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return rec
}

// Encode writes records as CSV. The header is the union of record keys in
// first-appearance order, renamed through headers when an override exists.
// Records missing a column emit an empty cell there.
func Encode(w io.Writer, records []Record, headers map[string]string) error {
	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}

	var keys []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		for _, f := range rec {
			if _, ok := seen[f.Key]; !ok {
				seen[f.Key] = struct{}{}
				keys = append(keys, f.Key)
			}
		}
	}

	cw := csv.NewWriter(w)

	header := make([]string, len(keys))
	for i, k := range keys {
		if name, ok := headers[k]; ok && name != "" {
			header[i] = name
		} else {
			header[i] = k
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(keys))
	for _, rec := range records {
		byKey := make(map[string]any, len(rec))
		for _, f := range rec {
			byKey[f.Key] = f.Value
		}
		for i, k := range keys {
			row[i] = formatValue(byKey[k])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Variant marks how the exported data was authorized.
type Variant int

const (
	VariantPlain    Variant = iota
	VariantUnmasked         // OTP-gated manager export
	VariantApproved         // approved-request download; carries the request id
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases a data-type label into a filename-safe token.
func Slug(dataType string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(dataType), "-")
	return strings.Trim(s, "-")
}

// Filename derives the deterministic export filename:
// <data-type-slug>-<ISO-date>[-unmasked|-approved-<request-id>].csv
func Filename(dataType string, now time.Time, variant Variant, requestID int64) string {
	base := Slug(dataType) + "-" + now.Format("2006-01-02")
	switch variant {
	case VariantUnmasked:
		base += "-unmasked"
	case VariantApproved:
		base += fmt.Sprintf("-approved-%d", requestID)
	}
	return base + ".csv"
}
