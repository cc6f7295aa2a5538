package headers

import (
	"fmt"
	"net/http"
	"strings"
)

// Parse converts "Key: Value" strings into a header map keyed by canonical
// header name. Entries without a colon or with an empty key are rejected.
func Parse(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed header %q, want \"Key: Value\"", hdr)
		}
		m[http.CanonicalHeaderKey(key)] = strings.TrimSpace(value)
	}
	return m, nil
}
