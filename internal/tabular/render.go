// Package tabular renders ordered, schema-less records as quoted,
// comma-separated text.
//
// The header is taken from the first record only. Every following line
// carries that record's own values in its own key order, so a row whose keys
// differ from the first record's is still internally consistent even though
// the header does not describe it.
package tabular

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"
)

// Render streams records to w one line at a time. w is flushed but never
// closed. An error yielded by records aborts the render and is returned.
func Render(w io.Writer, records iter.Seq2[Record, error]) error {
	bw := bufio.NewWriter(w)
	first := true
	for rec, err := range records {
		if err != nil {
			return err
		}
		if first {
			if err := writeLine(bw, rec.Keys()); err != nil {
				return err
			}
			first = false
		}
		values := make([]string, len(rec))
		for i, f := range rec {
			values[i] = Stringify(f.Value)
		}
		if err := writeLine(bw, values); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Seq adapts an in-memory slice to the sequence Render consumes.
func Seq(records []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

var quoteEscaper = strings.NewReplacer(`"`, `""`)

func writeLine(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := quoteEscaper.WriteString(w, f); err != nil {
			return err
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// Stringify converts a field value to its exported text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
