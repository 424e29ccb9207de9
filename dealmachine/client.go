package dealmachine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dealsweep/config"
	"dealsweep/models"
)

// APIError is a non-success HTTP status from the leads API. Fatal for a
// leads-page fetch; swallowed by the run loop for detail fetches.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d", e.Endpoint, e.Status)
}

// Client talks to the DealMachine v2 API. The site token travels in the
// JSON body, not in a header; that is how the upstream API wants it.
type Client struct {
	cfg       *config.TargetConfig
	siteToken string
	client    *http.Client
}

func NewClient(cfg *config.TargetConfig, siteToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, siteToken: siteToken, client: httpClient}
}

// LeadsPage is one page of the lead list plus the advisory total scanned
// from the response. HasTotal is false when no total field was numeric.
type LeadsPage struct {
	Properties []models.LeadRecord
	Total      int
	HasTotal   bool
}

// FetchLeadsPage requests one page of the full unfiltered lead list,
// newest first. page is 1-based.
func (c *Client) FetchLeadsPage(ctx context.Context, page, pageSize int) (*LeadsPage, error) {
	payload := map[string]any{
		"token":                 c.siteToken,
		"sort_by":               "date_created_desc",
		"limit":                 pageSize,
		"begin":                 (page - 1) * pageSize,
		"search":                "",
		"search_type":           "address",
		"filters":               nil,
		"old_filters":           nil,
		"list_id":               "all_leads",
		"list_history_id":       nil,
		"get_updated_data":      false,
		"property_flags":        "",
		"property_flags_and_or": "or",
	}

	body, err := c.post(ctx, c.cfg.LeadsURL, "leads", payload)
	if err != nil {
		return nil, err
	}

	var resp models.LeadRecord
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode leads page: %w", err)
	}

	result := &LeadsPage{}
	results := resp.Object("results")
	if results != nil {
		result.Properties = results.Entries("properties")
	}
	result.Total, result.HasTotal = scanExpectedTotal(resp, results)

	return result, nil
}

// Response fields that may carry a total count. The maximum of whichever
// are numeric wins. Advisory only, never used for exact-completion checks.
var (
	resultsTotalKeys = []string{
		"total", "total_count", "count", "total_results",
		"properties_total", "totalProperties",
	}
	topLevelTotalKeys = []string{"total", "count"}
)

func scanExpectedTotal(top, results models.LeadRecord) (int, bool) {
	best := 0.0
	found := false

	scan := func(rec models.LeadRecord, keys []string) {
		if rec == nil {
			return
		}
		for _, key := range keys {
			if v, ok := rec.Number(key); ok {
				if !found || v > best {
					best = v
				}
				found = true
			}
		}
	}
	scan(results, resultsTotalKeys)
	scan(top, topLevelTotalKeys)

	return int(best), found
}

// detail request identifier fields, first present wins.
var (
	detailPropertyIDKeys = []string{"property_id", "propertyId", "property_id_str"}
	detailDataIDKeys     = []string{"property_data_id", "property_dataId", "property_address_mak"}
	detailDataTypeKeys   = []string{"property_data_type", "property_dataType"}
)

const defaultDataType = "datatree"

// FetchPropertyDetails asks the property endpoint for the full record,
// which carries phone_numbers when the lead list copy had none. Returns
// nil with no request when the record has no usable identifier.
func (c *Client) FetchPropertyDetails(ctx context.Context, rec models.LeadRecord) (models.LeadRecord, error) {
	propertyID := rec.String(detailPropertyIDKeys...)
	dataID := rec.String(detailDataIDKeys...)
	mak := rec.String("property_address_mak")

	if propertyID == "" && dataID == "" && mak == "" {
		return nil, nil
	}

	payload := map[string]any{"token": c.siteToken}
	if propertyID != "" {
		payload["property_id"] = propertyID
	}
	if dataID != "" {
		payload["property_data_id"] = dataID
	}
	if dataType := rec.String(detailDataTypeKeys...); dataType != "" {
		payload["property_data_type"] = dataType
	} else {
		payload["property_data_type"] = defaultDataType
	}
	if mak != "" {
		payload["property_address_mak"] = mak
	}

	body, err := c.post(ctx, c.cfg.PropertyURL, "property", payload)
	if err != nil {
		return nil, err
	}

	var resp models.LeadRecord
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode property details: %w", err)
	}
	if results := resp.Object("results"); results != nil {
		return results.Object("property"), nil
	}
	return nil, nil
}

func (c *Client) post(ctx context.Context, endpoint, name string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Endpoint: name, Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
