package domain

import (
	"fmt"
	"strconv"
)

// TailAggregateLabel is the serialized identifier of the synthetic
// institution that absorbs every bank below the rank threshold. It shares the
// cert column with numeric IDs in the persisted panel, so it must never
// collide with a real certificate number.
const TailAggregateLabel = "Aggregated_Small_Banks"

// InstitutionID identifies either a real institution by FDIC certificate
// number or the synthetic tail aggregate. The zero value is not valid; use
// Cert or TailAggregate.
type InstitutionID struct {
	cert int
	tail bool
}

// Cert returns the ID of a real institution.
func Cert(cert int) InstitutionID {
	return InstitutionID{cert: cert}
}

// TailAggregate returns the ID of the synthetic small-bank aggregate.
func TailAggregate() InstitutionID {
	return InstitutionID{tail: true}
}

// IsTail reports whether the ID is the tail aggregate.
func (id InstitutionID) IsTail() bool {
	return id.tail
}

// CertNumber returns the certificate number and whether the ID refers to a
// real institution.
func (id InstitutionID) CertNumber() (int, bool) {
	if id.tail {
		return 0, false
	}
	return id.cert, true
}

// String renders the ID the way the persisted panel does: the certificate
// number for real institutions, the tail sentinel otherwise.
func (id InstitutionID) String() string {
	if id.tail {
		return TailAggregateLabel
	}
	return strconv.Itoa(id.cert)
}

// ParseInstitutionID parses the serialized cert column back into an ID.
func ParseInstitutionID(s string) (InstitutionID, error) {
	if s == TailAggregateLabel {
		return TailAggregate(), nil
	}
	cert, err := strconv.Atoi(s)
	if err != nil {
		return InstitutionID{}, fmt.Errorf("invalid institution id %q: %w", s, err)
	}
	return Cert(cert), nil
}

// Less orders IDs for the final panel sort: real institutions ascending by
// certificate number, the tail aggregate after all of them.
func (id InstitutionID) Less(other InstitutionID) bool {
	if id.tail != other.tail {
		return !id.tail
	}
	return id.cert < other.cert
}

// RankEntry records the best (lowest-numbered) asset rank an institution ever
// achieved across the full filing history, together with the asset value and
// period at which that rank occurred. Name stays empty until resolved.
type RankEntry struct {
	Cert       int     `json:"cert"`
	BestRank   int     `json:"best_asset_rank"`
	AssetValue float64 `json:"asset_value"`
	Period     Period  `json:"period"`
	Name       string  `json:"institution_name,omitempty"`
}
