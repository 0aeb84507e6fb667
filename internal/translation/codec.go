// internal/translation/codec.go
//
// Wire format for multi-locale values.
//
// Context
// -------
// A Value is stored in one text column as
//
//	T:{"en":"Hello","cs":"Ahoj"}
//
// The JSON object is decoded token by token so key order survives the round
// trip; that order is the last-resort tie-break in Translation.  Encoding
// never escapes unicode, slashes, or HTML characters, and every value is
// written as a JSON string.  Numbers found in legacy rows are kept as their
// literal text so "007" and 10000000000000000001 never change shape.
package translation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yanizio/adept-locale/internal/locale"
)

// Prefix tags a serialised Value.
const Prefix = "T:"

// ErrDecode is wrapped by every DecodeError.
var ErrDecode = errors.New("translation decode failed")

// DecodeError carries the offending payload for diagnosis.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("translation: %v\nJson: %s", e.Err, e.Payload)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// IsTagged reports whether raw uses the tagged format: the prefix directly
// followed by a JSON object.  "T: Rex" is a plain legacy string.
func IsTagged(raw string) bool { return strings.HasPrefix(raw, Prefix+"{") }

func decode(raw string) ([]Entry, error) {
	// Raw line breaks inside legacy values become JSON escapes.
	payload := strings.NewReplacer("\r\n", `\n`, "\r", `\n`, "\n", `\n`).Replace(raw)
	payload = strings.TrimPrefix(payload, Prefix)

	fail := func(err error) ([]Entry, error) {
		return nil, &DecodeError{Payload: raw, Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fail(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fail(errors.New("payload is not a JSON object"))
	}

	var out []Entry
	seen := make(map[locale.Code]int)
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fail(err)
		}
		key, _ := tok.(string)
		code := locale.Code(key)

		tok, err = dec.Token()
		if err != nil {
			return fail(err)
		}
		var text string
		switch v := tok.(type) {
		case string:
			text = v
		case json.Number:
			text = v.String()
		case bool:
			text = fmt.Sprint(v)
		case nil:
			continue
		default:
			return fail(fmt.Errorf("value for %q is not a scalar", key))
		}

		if i, dup := seen[code]; dup {
			out[i].Text = text
			continue
		}
		seen[code] = len(out)
		out = append(out, Entry{Locale: code, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return fail(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fail(errors.New("trailing data after object"))
	}
	return out, nil
}

func encode(entries []Entry) (string, error) {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := marshalString(e.Locale.String())
		if err != nil {
			return "", err
		}
		v, err := marshalString(e.Text)
		if err != nil {
			return "", err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.String(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
