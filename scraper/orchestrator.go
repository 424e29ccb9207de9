package scraper

import (
	"context"
	"log"
	"time"

	"dealsweep/dealmachine"
	"dealsweep/identity"
	"dealsweep/models"
)

// LeadSource is the slice of the API client the run loop needs.
type LeadSource interface {
	FetchLeadsPage(ctx context.Context, page, pageSize int) (*dealmachine.LeadsPage, error)
	FetchPropertyDetails(ctx context.Context, rec models.LeadRecord) (models.LeadRecord, error)
}

// Runner drives one paginated walk over the lead list: fetch, extract,
// dedup, optional detail fallback, until a termination condition fires.
// Strictly sequential; row order is page order.
type Runner struct {
	Source        LeadSource
	Session       *Session
	PageSize      int
	PageDelay     time.Duration
	AllowAllTypes bool

	// OnProgress is fire-and-forget; a nil observer never affects the loop.
	OnProgress func(models.Progress)
}

// Result is the terminal outcome of one run. Rows survive Stopped runs.
type Result struct {
	State        State
	Rows         []models.OutputRow
	Total        int
	Pages        int
	StoppedEarly bool
	Err          error
}

// consecutive pages with zero new properties before we assume the API is
// repeating itself and bail
const maxRepeatPages = 2

// Run claims the session and walks the lead list. ErrAlreadyRunning is
// returned, with no side effects, when another run holds the session;
// every other failure lands in Result.Err with State Failed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.Session.Begin(); err != nil {
		return nil, err
	}

	pageSize := r.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	ex := NewExtractor(r.AllowAllTypes)
	seenProperties := make(map[string]struct{})
	detailCache := make(map[string]models.LeadRecord)
	expectedTotal := 0
	haveExpected := false
	repeatPages := 0

	result := &Result{State: StateCompleted}

	for page := 1; ; page++ {
		if r.Session.StopRequested() {
			log.Printf("Stop requested, winding down at page %d", page)
			result.State = StateStopped
			break
		}

		r.progress(page, ex.Total())
		log.Printf("Fetching leads page %d", page)

		leads, err := r.Source.FetchLeadsPage(ctx, page, pageSize)
		if err != nil {
			result.State = StateFailed
			result.Err = err
			break
		}
		result.Pages = page

		if !haveExpected && leads.HasTotal {
			expectedTotal = leads.Total
			haveExpected = true
			log.Printf("Expecting around %d properties", expectedTotal)
		}

		if len(leads.Properties) == 0 {
			log.Printf("Page %d empty, no more properties", page)
			break
		}
		log.Printf("Page %d: %d properties", page, len(leads.Properties))

		newProperties := 0
		for _, rec := range leads.Properties {
			key := identity.Key(rec)
			if _, dup := seenProperties[key]; dup {
				continue
			}
			seenProperties[key] = struct{}{}
			newProperties++

			addr := rec.Address()
			added := ex.ExtractRecord(rec, addr)

			// Lead-list copies often omit phone data the property endpoint
			// still has. One cached detail fetch per identity.
			if added == 0 && !r.Session.StopRequested() {
				details, cached := detailCache[key]
				if !cached {
					var derr error
					details, derr = r.Source.FetchPropertyDetails(ctx, rec)
					if derr != nil {
						log.Printf("Property details fetch failed for %s: %v", key, derr)
						details = nil
					}
					detailCache[key] = details
				}
				if details != nil {
					ex.ExtractRecord(details, addr)
				}
			}
		}

		r.progress(page, ex.Total())

		if newProperties == 0 {
			repeatPages++
			if repeatPages >= maxRepeatPages {
				log.Printf("No new properties for %d consecutive pages, stopping", repeatPages)
				break
			}
		} else {
			repeatPages = 0
		}

		if haveExpected && expectedTotal > 0 && len(seenProperties) >= expectedTotal {
			log.Printf("Reached expected total of %d properties", expectedTotal)
			break
		}

		if r.PageDelay > 0 {
			time.Sleep(r.PageDelay)
		}
	}

	result.Rows = ex.Rows()
	result.Total = ex.Total()
	result.StoppedEarly = result.State == StateStopped
	r.Session.finish(result.State)

	return result, nil
}

func (r *Runner) progress(page, count int) {
	if r.OnProgress != nil {
		r.OnProgress(models.Progress{Page: page, Count: count})
	}
}
