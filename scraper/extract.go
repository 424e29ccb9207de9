package scraper

import (
	"strings"

	"dealsweep/models"
)

// Ordered accessor rules for the loosely-typed upstream payload. The API
// uses several near-synonymous keys for the same value; each list is tried
// in order, first non-empty wins per slot, and the same lists apply
// everywhere the field is read.
var (
	phoneListKeys   = []string{"phone_numbers"}
	contactListKeys = []string{"all_contacts", "contacts"}

	// phone value on the phone entry itself, preferred over contact phones
	directPhoneKeys = []string{
		"number", "phone_number", "phone", "raw_number",
		"formatted_number", "formatted", "e164",
	}
	// phone values on a contact object
	contactPhoneKeys = []string{
		"phone_1", "phone_2", "phone_3", "phone", "phone_number",
		"mobile_phone", "cell_phone", "cell",
	}
	contactPhoneTypeKeys = []string{"phone_1_type", "phone_2_type", "phone_3_type"}
)

// Extractor walks lead records for phone candidates and owns the
// run-lifetime dedup state: every normalized phone appears in at most one
// output row, in discovery order.
type Extractor struct {
	// AllowAllTypes accepts wireless, landline and untyped entries alike.
	// The type filter survives behind this flag, but the default config
	// allows everything; upstream type tags proved too unreliable.
	AllowAllTypes bool

	seen  map[string]struct{}
	rows  []models.OutputRow
	total int
}

func NewExtractor(allowAllTypes bool) *Extractor {
	return &Extractor{
		AllowAllTypes: allowAllTypes,
		seen:          make(map[string]struct{}),
	}
}

func (e *Extractor) Rows() []models.OutputRow { return e.rows }
func (e *Extractor) Total() int               { return e.total }

// ExtractRecord scans one record (or a detail payload for one) and returns
// how many rows it added. All candidate sources are scanned even after a
// hit; per-phone dedup keeps the output unique.
func (e *Extractor) ExtractRecord(rec models.LeadRecord, addr models.Address) int {
	added := 0

	for _, entry := range rec.Entries(phoneListKeys...) {
		if !e.AllowAllTypes && !isWirelessEntry(entry) && !isLandlineEntry(entry) {
			continue
		}

		contact := entry.Object("contact")

		for _, key := range directPhoneKeys {
			if raw := models.Stringify(entry[key]); raw != "" {
				if e.tryAdd(raw, addr, contact) {
					added++
				}
			}
		}
		if contact == nil {
			continue
		}
		for _, key := range contactPhoneKeys {
			if raw := models.Stringify(contact[key]); raw != "" {
				if e.tryAdd(raw, addr, contact) {
					added++
				}
			}
		}
	}

	// Fallback pass: some records carry numbers only on contacts, with no
	// phone_numbers entry at all.
	for _, contact := range rec.Entries(contactListKeys...) {
		if !e.AllowAllTypes && !isWirelessContact(contact) {
			continue
		}
		for _, key := range contactPhoneKeys {
			if raw := models.Stringify(contact[key]); raw != "" {
				if e.tryAdd(raw, addr, contact) {
					added++
				}
			}
		}
	}

	return added
}

// tryAdd appends one output row unless the value normalizes to something
// already seen this run. The exported phone stays in its raw trimmed form.
func (e *Extractor) tryAdd(raw string, addr models.Address, contact models.LeadRecord) bool {
	normalized := Normalize(raw)
	if normalized == "" {
		return false
	}
	if _, dup := e.seen[normalized]; dup {
		return false
	}
	e.seen[normalized] = struct{}{}
	e.total++

	row := models.OutputRow{
		Street: addr.Street,
		City:   addr.City,
		State:  addr.State,
		Zip:    addr.Zip,
		Phone:  strings.TrimSpace(raw),
	}
	if contact != nil {
		row.FirstName = contact.String("given_name")
		row.LastName = contact.String("surname")
	}
	e.rows = append(e.rows, row)
	return true
}

func isWirelessEntry(entry models.LeadRecord) bool {
	phoneType := strings.ToLower(entry.String("type", "phone_type", "phoneType"))
	carrier := strings.ToLower(entry.String("carrier"))

	switch phoneType {
	case "w", "wireless", "cell", "mobile":
		return true
	}
	if entry.Bool("is_wireless") {
		return true
	}
	return phoneType == "" && strings.Contains(carrier, "wireless")
}

func isLandlineEntry(entry models.LeadRecord) bool {
	if v, ok := entry.Number("landline"); ok && v == 1 {
		return true
	}
	phoneType := strings.ToLower(entry.String("type", "phone_type", "phoneType"))
	return phoneType == "l" || phoneType == "landline"
}

func isWirelessContact(contact models.LeadRecord) bool {
	t := strings.ToLower(contact.String(contactPhoneTypeKeys...))
	switch t {
	case "w", "wireless", "cell", "mobile":
		return true
	}
	return false
}
