package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"ibge-panorama/lib/textutil"
)

// ID is a unit identifier. The catalog serves it as a number, older
// snapshots as a string, both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(data, &n)
	if err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

type Region struct {
	ID   int    `json:"id"`
	Code string `json:"sigla"`
	Name string `json:"nome"`
}

type State struct {
	ID     int     `json:"id"`
	Code   string  `json:"sigla"`
	Name   string  `json:"nome"`
	Region *Region `json:"regiao"`
}

type Mesoregion struct {
	ID    int    `json:"id"`
	Name  string `json:"nome"`
	State *State `json:"UF"`
}

type Microregion struct {
	ID         int         `json:"id"`
	Name       string      `json:"nome"`
	Mesoregion *Mesoregion `json:"mesorregiao"`
}

type IntermediateRegion struct {
	ID    int    `json:"id"`
	Name  string `json:"nome"`
	State *State `json:"UF"`
}

type ImmediateRegion struct {
	ID                 int                 `json:"id"`
	Name               string              `json:"nome"`
	IntermediateRegion *IntermediateRegion `json:"regiao-intermediaria"`
}

// Unit is one municipality as listed by the catalog.
type Unit struct {
	ID              ID               `json:"id"`
	Name            string           `json:"nome"`
	Microregion     *Microregion     `json:"microrregiao"`
	ImmediateRegion *ImmediateRegion `json:"regiao-imediata"`

	// RequestedCode is the division code the unit was listed under.
	RequestedCode string `json:"-"`
}

// DivisionCode is the lower case code of the unit's state. It is read from
// the micro-region chain, then from the immediate region chain, and last
// from the code the unit was requested under.
func (u Unit) DivisionCode() string {
	if state := u.microregionState(); state != nil && state.Code != "" {
		return strings.ToLower(state.Code)
	}
	if state := u.immediateRegionState(); state != nil && state.Code != "" {
		return strings.ToLower(state.Code)
	}
	return strings.ToLower(u.RequestedCode)
}

func (u Unit) microregionState() *State {
	if u.Microregion == nil || u.Microregion.Mesoregion == nil {
		return nil
	}
	return u.Microregion.Mesoregion.State
}

func (u Unit) immediateRegionState() *State {
	if u.ImmediateRegion == nil || u.ImmediateRegion.IntermediateRegion == nil {
		return nil
	}
	return u.ImmediateRegion.IntermediateRegion.State
}

// Slug is the name as it appears in the detail page path.
func (u Unit) Slug() string {
	return textutil.Slug(u.Name)
}

// DetailURL fills the {uf} and {slug} placeholders of template.
func (u Unit) DetailURL(template string) string {
	return strings.NewReplacer(
		"{uf}", u.DivisionCode(),
		"{slug}", u.Slug(),
	).Replace(template)
}
