package viacep

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// response is the subset of the ViaCEP payload the storefront uses.
type response struct {
	CEP          string
	Street       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	NotFound     bool
}

// Decode reads a ViaCEP JSON object. The "erro" flag is a boolean in the
// classic API and the string "true" in newer deployments; both are accepted.
func (r *response) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var (
			dst *string
			err error
		)
		switch string(key) {
		case "cep":
			dst = &r.CEP
		case "logradouro":
			dst = &r.Street
		case "complemento":
			dst = &r.Complement
		case "bairro":
			dst = &r.Neighborhood
		case "localidade":
			dst = &r.City
		case "uf":
			dst = &r.State
		case "erro":
			r.NotFound, err = decodeFlag(d)
			return errors.Wrap(err, "erro")
		default:
			return d.Skip()
		}

		if d.Next() == jx.Null {
			return d.Null()
		}
		*dst, err = d.Str()
		return errors.Wrap(err, string(key))
	})
}

func decodeFlag(d *jx.Decoder) (bool, error) {
	switch d.Next() {
	case jx.Bool:
		return d.Bool()
	case jx.String:
		s, err := d.Str()
		return s == "true", err
	case jx.Null:
		return false, d.Null()
	default:
		return false, d.Skip()
	}
}
