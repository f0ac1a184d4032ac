package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
)

// Patch applies a fetched result to the digest. Patches are applied one at a
// time after all fetches finish, so sources never touch the digest
// concurrently.
type Patch func(d *domain.Digest)

// Source is one best-effort content fetch.
type Source interface {
	Name() string

	// Critical sources abort the run when they fail.
	Critical() bool

	// Fetch returns a nil Patch (and nil error) when there is nothing to add,
	// e.g. KFC copy on any day but Thursday.
	Fetch(ctx context.Context) (Patch, error)
}

// funcSource is the Source every constructor in this package returns.
type funcSource struct {
	name     string
	critical bool
	fetch    func(ctx context.Context) (Patch, error)
}

func (s *funcSource) Name() string                             { return s.name }
func (s *funcSource) Critical() bool                           { return s.critical }
func (s *funcSource) Fetch(ctx context.Context) (Patch, error) { return s.fetch(ctx) }

// APIError is a provider answering HTTP 200 with a failure code in its body.
type APIError struct {
	API     string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sources: %s returned code %s", e.API, e.Code)
	}
	return fmt.Sprintf("sources: %s returned code %s: %s", e.API, e.Code, e.Message)
}

// flexString decodes a JSON string, number or null into a string. The
// content APIs are loose about which one they send.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*f = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(raw)
	}
	return nil
}

func (f flexString) String() string { return string(f) }

// Float parses the value, 0 when it isn't a number.
func (f flexString) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}

// Int parses the value, 0 when it isn't a whole number.
func (f flexString) Int() int {
	v, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return int(f.Float())
	}
	return v
}
