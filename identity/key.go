package identity

import (
	"fmt"

	"dealsweep/models"
)

// idKeys is the ordered list of identifier fields the leads API may or may
// not populate. First present wins; pages from different data sources
// disagree on which one is set.
var idKeys = []string{
	"property_id",
	"property_data_id",
	"property_address_mak",
	"property_address_full",
}

// Key derives the dedup identity of a lead record. When no identifier
// field is present it falls back to a composite of the address components,
// so overlapping pages of the same property still collapse to one key.
func Key(rec models.LeadRecord) string {
	if id := rec.String(idKeys...); id != "" {
		return id
	}
	addr := rec.Address()
	return fmt.Sprintf("%s|%s|%s|%s", addr.Street, addr.City, addr.State, addr.Zip)
}
