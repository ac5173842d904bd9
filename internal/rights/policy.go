// Package rights defines the closed set of privacy-rights preferences a
// subject can declare.
package rights

import (
	"bytes"
	"encoding/json"

	dErrors "aegis/pkg/domain-errors"
)

// SchemaVersion is the current policy schema. It is embedded in every issued
// capability token; adding a new right requires bumping it so old tokens stay
// verifiable against the schema they were issued under.
const SchemaVersion = 1

// Policy is the fixed mapping of named boolean preference flags. It is a
// value type, immutable once embedded in a token.
type Policy struct {
	Erasure         bool `json:"erasure"`
	NoSale          bool `json:"no_sale"`
	NoProfiling     bool `json:"no_profiling"`
	NoMarketing     bool `json:"no_marketing"`
	DataPortability bool `json:"data_portability"`
	AccessRequest   bool `json:"access_request"`
	AntiDoxxing     bool `json:"anti_doxxing"`
}

// UnmarshalJSON rejects unknown flags. The schema is a closed enumeration:
// a token (or request) carrying a flag this version does not know about is
// invalid rather than silently truncated, so round-trips never lose data.
func (p *Policy) UnmarshalJSON(data []byte) error {
	type alias Policy
	var a alias
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "unknown or malformed rights flag", err)
	}
	*p = Policy(a)
	return nil
}

// Flags returns the policy as a name-to-value map in a fixed order-free form,
// for audit detail payloads and transparency responses.
func (p Policy) Flags() map[string]bool {
	return map[string]bool{
		"erasure":          p.Erasure,
		"no_sale":          p.NoSale,
		"no_profiling":     p.NoProfiling,
		"no_marketing":     p.NoMarketing,
		"data_portability": p.DataPortability,
		"access_request":   p.AccessRequest,
		"anti_doxxing":     p.AntiDoxxing,
	}
}
