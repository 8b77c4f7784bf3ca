package corrections

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-bundler/constants"
	"github.com/joseph-ayodele/invoice-bundler/internal/common"
	"github.com/joseph-ayodele/invoice-bundler/internal/entity"
)

// Override holds manually corrected values for one input file. Nil fields
// keep the extracted value.
type Override struct {
	PONumber    *string `json:"po_number,omitempty"`
	Job         *string `json:"job,omitempty"`
	Lot         *string `json:"lot,omitempty"`
	Description *string `json:"description,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Customer    *string `json:"customer,omitempty"`
	JobLocation *string `json:"job_location,omitempty"`
	Signature   *string `json:"signature,omitempty"`
	ThroughDate *string `json:"through_date,omitempty"`
}

// Set maps input file base names to their overrides.
type Set map[string]Override

// Load reads, sanitizes and validates a corrections file.
func Load(path string, logger *slog.Logger) (Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidCorrection, "read corrections", err)
	}
	return Parse(raw, logger)
}

// Parse sanitizes raw JSON, validates it against BuildSchema and decodes it.
func Parse(raw []byte, logger *slog.Logger) (Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clean, dropped, err := Sanitize(raw)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidCorrection, "decode corrections", err)
	}
	if len(dropped) > 0 {
		logger.Debug("corrections.sanitized", "dropped", dropped)
	}
	if err := ValidateJSONAgainstSchema(BuildSchema(), clean); err != nil {
		return nil, common.NewAppError(common.CodeInvalidCorrection, "validate corrections", err)
	}
	var set Set
	if err := json.Unmarshal(clean, &set); err != nil {
		return nil, common.NewAppError(common.CodeInvalidCorrection, "decode corrections", err)
	}
	return set, nil
}

// Sanitize trims string values, drops empty ones and coerces numeric amounts
// to strings so hand-edited files validate. Numbers keep their literal digits.
func Sanitize(raw []byte) ([]byte, []string, error) {
	var m map[string]map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("sanitize: decode: trailing data after corrections object")
	}
	var dropped []string
	for file, fields := range m {
		for k, v := range fields {
			switch t := v.(type) {
			case nil:
				delete(fields, k)
				dropped = append(dropped, file+"."+k+"(null)")
			case json.Number:
				if k == "amount" {
					fields[k] = t.String()
				}
			case string:
				if s := strings.TrimSpace(t); s == "" {
					delete(fields, k)
					dropped = append(dropped, file+"."+k+"(empty)")
				} else {
					fields[k] = s
				}
			}
		}
		if len(fields) == 0 {
			delete(m, file)
			dropped = append(dropped, file)
		}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}

// For returns the override for an input path, matched by base name.
func (s Set) For(path string) (Override, bool) {
	o, ok := s[filepath.Base(path)]
	return o, ok
}

// Apply returns a copy of rec with the override's values in place and the
// names of the fields it changed.
func (o Override) Apply(rec entity.BillingRecord) (entity.BillingRecord, []string, error) {
	var fields []string
	set := func(dst **string, v *string, name string) {
		if v != nil {
			*dst = entity.Ptr(*v)
			fields = append(fields, name)
		}
	}
	set(&rec.PONumber, o.PONumber, "po_number")
	set(&rec.Job, o.Job, "job")
	set(&rec.Lot, o.Lot, "lot")
	set(&rec.Description, o.Description, "description")
	set(&rec.Amount, o.Amount, "amount")
	set(&rec.Customer, o.Customer, "customer")

	if o.JobLocation != nil {
		rec.JobLocation = *o.JobLocation
		fields = append(fields, "job_location")
	}
	if o.Signature != nil {
		rec.Signature = *o.Signature
		fields = append(fields, "signature")
	}
	if o.ThroughDate != nil {
		d, err := time.ParseInLocation(constants.DateLayout, *o.ThroughDate, rec.ThroughDate.Location())
		if err != nil {
			return rec, nil, common.NewAppError(common.CodeInvalidCorrection, "through_date", err)
		}
		rec.ThroughDate = d
		fields = append(fields, "through_date")
	}
	if o.Amount != nil {
		if _, err := entity.ParseAmount(*o.Amount); err != nil {
			return rec, nil, common.NewAppError(common.CodeInvalidCorrection, "amount", err)
		}
	}
	return rec, fields, nil
}
