package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
)

const poPattern = `[A-Za-z0-9]{4,}\s*-\s*[A-Za-z0-9]{1,}\s*-\s*\d{6}`

var (
	rePONumber = regexp.MustCompile(`(?i)` + poPattern)
	reJobLot   = regexp.MustCompile(`Project:\s*(.*?)\nLot:\s*(.*?)\n`)
	reAmount   = regexp.MustCompile(`Total:\s*\$?([0-9](?:[0-9,]*[0-9])?(?:\.[0-9]+)?)`)
	reSpace    = regexp.MustCompile(`\s+`)
)

// Config holds the heuristics that vary per customer.
type Config struct {
	Cities        []string // recognized "<City>, CA <zip>" cities for the job location
	CraftCode     string   // craft code introducing the description line
	CustomerMatch string   // exact organization name searched in the text
	CustomerLabel string   // canonical display label for CustomerMatch
	Signature     string   // waiver signature; empty keeps the default initials
}

// Extractor turns purchase-order page text into a best-effort BillingRecord.
type Extractor struct {
	poNumber    Chain
	jobLocation Chain
	jobLot      Chain
	description Chain
	amount      Chain
	customer    Chain

	signature string
	now       func() time.Time
	logger    *slog.Logger
}

// New builds the rule chains for cfg.
func New(cfg Config, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Cities) == 0 {
		return nil, fmt.Errorf("extract: at least one city is required")
	}
	if strings.TrimSpace(cfg.CraftCode) == "" {
		return nil, fmt.Errorf("extract: craft code is required")
	}

	cities := make([]string, len(cfg.Cities))
	for i, c := range cfg.Cities {
		cities[i] = regexp.QuoteMeta(strings.TrimSpace(c))
	}
	reLocation, err := regexp.Compile(`Lot:\s*\d+\s*\n(.*?)\n(` + strings.Join(cities, "|") + `), CA \d{5}`)
	if err != nil {
		return nil, fmt.Errorf("extract: compile location pattern: %w", err)
	}
	reDescription, err := regexp.Compile(`Craft:\s*` + regexp.QuoteMeta(cfg.CraftCode) + `\s*-\s*(.*?)\n`)
	if err != nil {
		return nil, fmt.Errorf("extract: compile description pattern: %w", err)
	}

	return &Extractor{
		poNumber: Chain{
			regexRule("po.full_text", rePONumber, 0),
			markerLinesRule("po.purchase_order_marker", "Purchase Order", rePONumber, 3),
		},
		jobLocation: Chain{locationRule("location.lot_to_city", reLocation)},
		jobLot:      Chain{regexRule("job_lot.project_lot", reJobLot, 1, 2)},
		description: Chain{regexRule("description.craft_code", reDescription, 1)},
		amount:      Chain{regexRule("amount.total", reAmount, 1)},
		customer:    Chain{containsRule("customer.exact_name", cfg.CustomerMatch, cfg.CustomerLabel)},
		signature:   strings.TrimSpace(cfg.Signature),
		now:         time.Now,
		logger:      logger,
	}, nil
}

// Extract resolves every field it can. It never fails: unresolved fields stay
// absent and JobLocation falls back to "Unknown".
func (e *Extractor) Extract(pages []string) entity.BillingRecord {
	in := NewInput(pages)
	rec := entity.NewBillingRecord(e.now())
	if e.signature != "" {
		rec.Signature = e.signature
	}
	hits := make([]string, 0, 6)

	if m, rule, ok := e.poNumber.Run(in); ok {
		rec.PONumber = entity.Ptr(reSpace.ReplaceAllString(m[0], ""))
		hits = append(hits, rule)
	}
	if m, rule, ok := e.jobLocation.Run(in); ok {
		rec.JobLocation = m[0]
		hits = append(hits, rule)
	}
	if m, rule, ok := e.jobLot.Run(in); ok {
		rec.Job = entity.Ptr(m[0])
		rec.Lot = entity.Ptr(m[1])
		hits = append(hits, rule)
	}
	if m, rule, ok := e.description.Run(in); ok {
		rec.Description = entity.Ptr(m[0])
		hits = append(hits, rule)
	}
	if m, rule, ok := e.amount.Run(in); ok {
		rec.Amount = entity.Ptr(m[0])
		hits = append(hits, rule)
	}
	if m, rule, ok := e.customer.Run(in); ok {
		rec.Customer = entity.Ptr(m[0])
		hits = append(hits, rule)
	}

	e.logger.Debug("extract.fields",
		"pages", len(pages),
		"rules_matched", hits,
		"job_location_defaulted", rec.JobLocation == constants.DefaultJobLocation,
	)
	return rec
}

// locationRule joins the street line after "Lot: <n>" with the matched city.
func locationRule(name string, re *regexp.Regexp) Rule {
	return Rule{
		Name: name,
		Apply: func(in *Input) (Match, bool) {
			sub := re.FindStringSubmatch(in.Text)
			if sub == nil {
				return nil, false
			}
			return Match{strings.TrimSpace(sub[1]) + "\n" + sub[2] + ", CA"}, true
		},
	}
}
