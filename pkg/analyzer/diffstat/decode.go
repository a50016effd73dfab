package diffstat

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ErrDecode is returned when diff bytes are not valid text in the configured encoding.
var ErrDecode = errors.New("diff is not valid text")

// DefaultEncoding is the encoding assumed for diff output.
const DefaultEncoding = "utf-8"

// aliases covers common names that the IANA index does not know.
var aliases = map[string]encoding.Encoding{
	"cp858":        charmap.CodePage858,
	"ibm858":       charmap.CodePage858,
	"cp850":        charmap.CodePage850,
	"cp437":        charmap.CodePage437,
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
}

// Decoder turns raw diff bytes into text.
type Decoder struct {
	name string
	enc  encoding.Encoding // nil means strict UTF-8
}

// NewDecoder returns a decoder for the named encoding.
func NewDecoder(name string) (*Decoder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8":
		return &Decoder{name: DefaultEncoding}, nil
	}
	if enc, ok := aliases[key]; ok {
		return &Decoder{name: key, enc: enc}, nil
	}
	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return &Decoder{name: key, enc: enc}, nil
}

// Name returns the normalized encoding name.
func (d *Decoder) Name() string {
	return d.name
}

// Reader returns r decoded to UTF-8. Invalid input surfaces as a read error
// wrapping ErrDecode.
func (d *Decoder) Reader(r io.Reader) io.Reader {
	var t transform.Transformer = encoding.UTF8Validator
	if d.enc != nil {
		t = d.enc.NewDecoder()
	}
	return &decodeReader{r: transform.NewReader(r, t)}
}

type decodeReader struct {
	r io.Reader
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return n, err
}
