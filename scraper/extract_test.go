package scraper

import (
	"testing"

	"dealsweep/models"
)

var testAddr = models.Address{Street: "12 Oak St", City: "Tulsa", State: "OK", Zip: "74101"}

func TestExtractRecord_DirectPhoneEntry(t *testing.T) {
	ex := NewExtractor(true)
	rec := models.LeadRecord{
		"phone_numbers": []any{
			map[string]any{
				"number": "555-123-4567",
				"contact": map[string]any{
					"given_name": "Ada",
					"surname":    "Lovelace",
				},
			},
		},
	}

	added := ex.ExtractRecord(rec, testAddr)
	if added != 1 {
		t.Fatalf("expected 1 row added, got %d", added)
	}

	rows := ex.Rows()
	if len(rows) != 1 || ex.Total() != 1 {
		t.Fatalf("expected 1 row total, got %d rows / total %d", len(rows), ex.Total())
	}
	row := rows[0]
	if row.Phone != "555-123-4567" {
		t.Fatalf("expected raw phone preserved, got %q", row.Phone)
	}
	if row.FirstName != "Ada" || row.LastName != "Lovelace" {
		t.Fatalf("unexpected contact names %q %q", row.FirstName, row.LastName)
	}
	if row.Street != "12 Oak St" || row.Zip != "74101" {
		t.Fatalf("unexpected address %+v", row)
	}
}

func TestExtractRecord_SamePhoneAcrossFieldsAddedOnce(t *testing.T) {
	ex := NewExtractor(true)
	rec := models.LeadRecord{
		"phone_numbers": []any{
			map[string]any{
				"number":           "5551234567",
				"formatted_number": "(555) 123-4567",
				"contact": map[string]any{
					"phone_1": "555.123.4567",
				},
			},
		},
	}

	if added := ex.ExtractRecord(rec, testAddr); added != 1 {
		t.Fatalf("expected 1 row for equivalent candidates, got %d", added)
	}
}

func TestExtractRecord_ContactFallbackPass(t *testing.T) {
	ex := NewExtractor(true)
	rec := models.LeadRecord{
		"all_contacts": []any{
			map[string]any{
				"given_name": "Grace",
				"surname":    "Hopper",
				"phone_2":    "555-987-6543",
			},
		},
	}

	if added := ex.ExtractRecord(rec, testAddr); added != 1 {
		t.Fatalf("expected 1 row from contact fallback, got %d", added)
	}
	if ex.Rows()[0].FirstName != "Grace" {
		t.Fatalf("expected contact name on row, got %+v", ex.Rows()[0])
	}
}

func TestExtractRecord_ContactsKeyVariant(t *testing.T) {
	ex := NewExtractor(true)
	rec := models.LeadRecord{
		"contacts": []any{
			map[string]any{"phone": "555-000-1111"},
		},
	}
	if added := ex.ExtractRecord(rec, testAddr); added != 1 {
		t.Fatalf("expected 1 row from contacts variant, got %d", added)
	}
}

func TestExtractRecord_RejectsBlobsAndFragments(t *testing.T) {
	ex := NewExtractor(true)
	rec := models.LeadRecord{
		"phone_numbers": []any{
			map[string]any{"number": "aGVsbG8=dGhlcmU"},
			map[string]any{"number": "12345"},
			map[string]any{"number": ""},
		},
	}
	if added := ex.ExtractRecord(rec, testAddr); added != 0 {
		t.Fatalf("expected nothing added, got %d", added)
	}
}

func TestExtractRecord_NumericJSONPhone(t *testing.T) {
	ex := NewExtractor(true)
	rec := models.LeadRecord{
		"phone_numbers": []any{
			map[string]any{"number": float64(5551234567)},
		},
	}
	if added := ex.ExtractRecord(rec, testAddr); added != 1 {
		t.Fatalf("expected numeric phone accepted, got %d", added)
	}
	if ex.Rows()[0].Phone != "5551234567" {
		t.Fatalf("expected plain digits, got %q", ex.Rows()[0].Phone)
	}
}

func TestExtractRecord_DedupAcrossRecords(t *testing.T) {
	ex := NewExtractor(true)
	rec1 := models.LeadRecord{
		"phone_numbers": []any{map[string]any{"number": "+1 555 123 4567"}},
	}
	rec2 := models.LeadRecord{
		"phone_numbers": []any{map[string]any{"number": "+1 (555) 123-4567"}},
	}

	if added := ex.ExtractRecord(rec1, testAddr); added != 1 {
		t.Fatalf("expected first record to add a row, got %d", added)
	}
	if added := ex.ExtractRecord(rec2, testAddr); added != 0 {
		t.Fatalf("expected duplicate normalized phone skipped, got %d", added)
	}
	if ex.Total() != len(ex.Rows()) {
		t.Fatalf("total %d does not match row count %d", ex.Total(), len(ex.Rows()))
	}
}

func TestExtractRecord_WirelessOnlyFilter(t *testing.T) {
	ex := NewExtractor(false)
	rec := models.LeadRecord{
		"phone_numbers": []any{
			map[string]any{"type": "other", "number": "5550000001"},
			map[string]any{"type": "wireless", "number": "5550000011"},
			map[string]any{"landline": float64(1), "number": "5550000021"},
			map[string]any{"carrier": "ACME Wireless LLC", "number": "5550000031"},
		},
	}

	if added := ex.ExtractRecord(rec, testAddr); added != 3 {
		t.Fatalf("expected typed filter to keep 3 of 4, got %d", added)
	}
}

func TestExtractRecord_PermissiveModeAcceptsEverything(t *testing.T) {
	ex := NewExtractor(true)
	rec := models.LeadRecord{
		"phone_numbers": []any{
			map[string]any{"type": "other", "number": "5550000002"},
			map[string]any{"number": "5550000012"},
		},
	}
	if added := ex.ExtractRecord(rec, testAddr); added != 2 {
		t.Fatalf("expected both entries accepted, got %d", added)
	}
}
