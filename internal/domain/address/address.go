// Package address models delivery addresses and postal code lookup.
package address

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/errkind"
)

// PostalCodeDigits is the length of a normalized postal code (CEP).
const PostalCodeDigits = 8

var (
	// ErrMalformedPostalCode is returned when a postal code does not contain
	// exactly eight digits.
	ErrMalformedPostalCode = errkind.Validation(errors.New("postal code must have 8 digits"))
	// ErrNotFound is returned when the lookup service knows no address for a
	// postal code.
	ErrNotFound = errkind.NotFound(errors.New("postal code not found"))
)

// Address is a delivery address.
type Address struct {
	PostalCode   string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// Complete reports whether postal code, street, number, city and state are
// all non-blank. Complement and neighborhood are optional.
func (a Address) Complete() bool {
	for _, v := range []string{a.PostalCode, a.Street, a.Number, a.City, a.State} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Fields are the parts of an address a postal code lookup can resolve.
type Fields struct {
	PostalCode   string
	Street       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// Fill copies the resolved fields into a, keeping the house number.
func (a Address) Fill(f Fields) Address {
	a.Street = f.Street
	a.Complement = f.Complement
	a.Neighborhood = f.Neighborhood
	a.City = f.City
	a.State = f.State
	return a
}

// Lookup resolves a postal code to address fields. Implementations return
// ErrMalformedPostalCode, ErrNotFound, or a transient error.
type Lookup interface {
	LookupAddress(ctx context.Context, postalCode string) (*Fields, error)
}

// NormalizePostalCode strips every non-digit and requires exactly eight
// digits.
func NormalizePostalCode(code string) (string, error) {
	digits := onlyDigits(code)
	if len(digits) != PostalCodeDigits {
		return "", ErrMalformedPostalCode
	}
	return digits, nil
}

// FormatPostalCode masks a partial or complete postal code as 12345-678.
func FormatPostalCode(code string) string {
	digits := onlyDigits(code)
	if len(digits) <= 5 {
		return digits
	}
	if len(digits) > PostalCodeDigits {
		digits = digits[:PostalCodeDigits]
	}
	return digits[:5] + "-" + digits[5:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
