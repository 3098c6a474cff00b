package rotatelogs

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// lookupEncoding resolves an IANA-ish encoding name to a golang.org/x/text
// encoding.Encoding. Only the small set of names a log handler is likely to
// be configured with is supported; anything else is a ConfigurationError at
// construction time (lookupEncoding is also called eagerly from New).
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "ascii", "us-ascii":
		return charmap.Windows1252, nil // superset; strict/replace policies still apply below 0x80
	default:
		return nil, errors.Errorf("unsupported encoding %q", name)
	}
}

// encodeRecord encodes text into enc's byte representation, applying
// policy to characters text's runes that enc cannot represent.
//
// UTF-8 is special-cased: Go strings are already UTF-8, so only the
// strict/replace policies require a validation pass; ignore is a no-op.
func encodeRecord(text string, enc encoding.Encoding, policy UnicodeErrorPolicy) ([]byte, error) {
	if enc == unicode.UTF8 {
		return encodeUTF8(text, policy)
	}

	encoder := enc.NewEncoder()
	switch policy {
	case PolicyStrict:
		out, err := encoder.Bytes([]byte(text))
		if err != nil {
			return nil, errors.Wrap(err, "record contains characters unrepresentable in configured encoding")
		}
		return out, nil
	case PolicyReplace:
		// encoding.ReplaceUnsupported wraps the encoder so unmappable
		// runes become the target encoding's replacement byte instead of a
		// transform error.
		out, _, err := transform.Bytes(encoding.ReplaceUnsupported(encoder), []byte(text))
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode record")
		}
		return out, nil
	default: // PolicyIgnore
		return encodeIgnoring(text, encoder)
	}
}

func encodeUTF8(text string, policy UnicodeErrorPolicy) ([]byte, error) {
	if policy == PolicyReplace {
		return []byte(strings.ToValidUTF8(text, string(utf8.RuneError))), nil
	}
	if policy != PolicyStrict {
		return []byte(text), nil
	}
	// utf8.ValidString decodes the actual byte sequence, so a string that
	// legitimately contains the real U+FFFD character (e.g. produced by an
	// earlier lossy decode upstream) is correctly accepted — unlike a
	// rune-equality scan against '�', which can't tell a genuine
	// replacement character apart from one utf8.DecodeRuneInString
	// substitutes for actually-invalid bytes.
	if !utf8.ValidString(text) {
		return nil, errors.New("record contains invalid UTF-8 under strict policy")
	}
	return []byte(text), nil
}

// encodeIgnoring encodes text rune-by-rune, dropping any rune the encoder
// cannot represent instead of raising or substituting, matching the
// default "ignore" policy described by the spec.
func encodeIgnoring(text string, encoder *encoding.Encoder) ([]byte, error) {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, err := encoder.Bytes([]byte(string(r)))
		if err != nil {
			continue
		}
		out = append(out, b...)
	}
	return out, nil
}
