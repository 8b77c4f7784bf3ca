package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

// InvoiceID is the opaque invoice identifier "INV-<N>".
type InvoiceID string

// NewInvoiceID formats n as an invoice identifier.
func NewInvoiceID(n int64) InvoiceID {
	return InvoiceID(constants.InvoicePrefix + strconv.FormatInt(n, 10))
}

// Number returns N from "INV-<N>".
func (id InvoiceID) Number() (int64, error) {
	s, ok := strings.CutPrefix(string(id), constants.InvoicePrefix)
	if !ok {
		return 0, fmt.Errorf("invoice id %q: missing %s prefix", id, constants.InvoicePrefix)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invoice id %q: bad number", id)
	}
	return n, nil
}

func (id InvoiceID) String() string { return string(id) }
