// Package report renders scan results as delimited text, PlantUML diagram
// text, JSON documents and colored logs.
package report

import "strings"

// Field is one delimited cell. Quoted records that the value was quoted in
// the input; quoted fields stay quoted when formatted again.
type Field struct {
	Value  string
	Quoted bool
}

// Record is one delimited row.
type Record []Field

// Row builds an unquoted record from values.
func Row(values ...string) Record {
	r := make(Record, len(values))
	for i, v := range values {
		r[i] = Field{Value: v}
	}
	return r
}

// Values returns the plain values of a record.
func (r Record) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

// NeedsQuote reports whether value must be quoted to survive a round trip.
func NeedsQuote(value string, delim rune) bool {
	return strings.ContainsRune(value, delim) || strings.ContainsAny(value, "\" \n\r")
}

// FormatDelimited joins records with "\n" and fields with delim. Fields
// that need it, or were quoted on input, are wrapped in double quotes with
// inner quotes doubled.
func FormatDelimited(records []Record, delim rune) string {
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeRecord(&b, rec, delim)
	}
	return b.String()
}

func writeRecord(b *strings.Builder, rec Record, delim rune) {
	for j, f := range rec {
		if j > 0 {
			b.WriteRune(delim)
		}
		if f.Quoted || NeedsQuote(f.Value, delim) {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f.Value, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(f.Value)
	}
}

// ParseDelimited splits s into records. "\n", "\r" and "\r\n" each end a
// row; a separator at the very end of the input does not start a new row.
// An empty input is one record with one empty field.
//
// Text after a closing quote is appended to the field rather than rejected.
func ParseDelimited(s string, delim rune) []Record {
	var (
		records []Record
		rec     Record
		field   strings.Builder
		quoted  bool
		inQuote bool
	)

	endField := func() {
		rec = append(rec, Field{Value: field.String(), Quoted: quoted})
		field.Reset()
		quoted = false
	}
	endRecord := func() {
		endField()
		records = append(records, rec)
		rec = nil
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inQuote {
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"')
					i++
					continue
				}
				inQuote = false
				continue
			}
			field.WriteRune(c)
			continue
		}

		switch {
		case c == '"' && field.Len() == 0 && !quoted:
			inQuote = true
			quoted = true
		case c == delim:
			endField()
		case c == '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRecord()
			if i == len(runes)-1 {
				return records
			}
		case c == '\n':
			endRecord()
			if i == len(runes)-1 {
				return records
			}
		default:
			field.WriteRune(c)
		}
	}
	endRecord()
	return records
}
