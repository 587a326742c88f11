package corpus

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/zpam/knb/pkg/learning"
)

// Fragments longer than this are never buffered whole; they cannot be a
// token and are dropped.
const maxFragmentSize = 1 << 20

// ParseTokens splits r on whitespace and keeps the fragments that parse as
// unsigned 32-bit decimal integers, with an optional leading '+'. Everything
// else, such as "Subject:" or an oversized blob, is dropped.
func ParseTokens(r io.Reader) ([]learning.TokenID, error) {
	br := bufio.NewReader(r)

	var tokens []learning.TokenID
	fragment := make([]byte, 0, 16)
	overlong := false

	flush := func() {
		if !overlong {
			if id, ok := parseToken(fragment); ok {
				tokens = append(tokens, id)
			}
		}
		fragment = fragment[:0]
		overlong = false
	}

	for {
		c, size, err := br.ReadRune()
		if err == io.EOF {
			flush()
			return tokens, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading tokens")
		}

		switch {
		case unicode.IsSpace(c):
			flush()
		case overlong:
		case len(fragment)+size > maxFragmentSize:
			overlong = true
			fragment = fragment[:0]
		default:
			fragment = utf8.AppendRune(fragment, c)
		}
	}
}

func parseToken(fragment []byte) (learning.TokenID, bool) {
	s := strings.TrimPrefix(string(fragment), "+")
	if s == "" {
		return 0, false
	}

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return learning.TokenID(n), true
}
