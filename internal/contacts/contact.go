// Package contacts defines the contact snapshot exchanged between the contact
// source, the change detector, the tagging service and the local store.
package contacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Contact is one snapshot of a device contact.
// TrueID is the stable external identifier assigned by the contact source and
// is the only key used to correlate a snapshot with a stored row.
type Contact struct {
	TrueID         string `json:"true_id" yaml:"true_id"`
	Name           string `json:"name" yaml:"name"`
	Company        string `json:"company" yaml:"company"`
	JobTitle       string `json:"jobTitle" yaml:"jobTitle"`
	ImageAvailable bool   `json:"imageAvailable" yaml:"imageAvailable"`
}

// Validate checks that the snapshot can be stored. An identifier made only of
// whitespace is rejected.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.TrueID) == "" {
		return fmt.Errorf("true_id is required")
	}
	return nil
}

// Normalized returns a copy with surface whitespace trimmed from name, company
// and job title. TrueID is opaque and kept byte for byte.
func (c Contact) Normalized() Contact {
	return Contact{
		TrueID:         c.TrueID,
		Name:           strings.TrimSpace(c.Name),
		Company:        strings.TrimSpace(c.Company),
		JobTitle:       strings.TrimSpace(c.JobTitle),
		ImageAvailable: c.ImageAvailable,
	}
}

// SameFields reports whether two snapshots agree on every tracked field
// (name, company, job title, image flag) after trimming.
func (c Contact) SameFields(other Contact) bool {
	a, b := c.Normalized(), other.Normalized()
	return a.Name == b.Name &&
		a.Company == b.Company &&
		a.JobTitle == b.JobTitle &&
		a.ImageAvailable == b.ImageAvailable
}

// rawContact accepts the field spellings emitted by common address-book
// exporters. Absent fields decode as "" / false.
type rawContact struct {
	TrueID          looseID   `json:"true_id" yaml:"true_id"`
	ID              looseID   `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Company         string    `json:"company" yaml:"company"`
	JobTitle        string    `json:"jobTitle" yaml:"jobTitle"`
	JobTitleSnake   string    `json:"job_title" yaml:"job_title"`
	ImageAvailable  looseFlag `json:"imageAvailable" yaml:"imageAvailable"`
	ImageAvailSnake looseFlag `json:"image_available" yaml:"image_available"`
}

func (r rawContact) contact() Contact {
	c := Contact{
		TrueID:   string(r.TrueID),
		Name:     r.Name,
		Company:  r.Company,
		JobTitle: r.JobTitle,
	}
	if c.TrueID == "" {
		c.TrueID = string(r.ID)
	}
	if c.JobTitle == "" {
		c.JobTitle = r.JobTitleSnake
	}
	switch {
	case r.ImageAvailable.set:
		c.ImageAvailable = r.ImageAvailable.value
	case r.ImageAvailSnake.set:
		c.ImageAvailable = r.ImageAvailSnake.value
	}
	return c
}

// looseID is an identifier given as a string or a bare number. Numbers keep
// their literal text. Any other value decodes as empty, which marks the record
// invalid instead of failing the whole export.
type looseID string

func (id *looseID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = looseID(s)
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err == nil {
		*id = looseID(n.String())
		return nil
	}
	*id = ""
	return nil
}

func (id *looseID) UnmarshalYAML(node *yaml.Node) error {
	*id = ""
	if node.Kind == yaml.ScalarNode && node.Tag != "!!null" {
		*id = looseID(node.Value)
	}
	return nil
}

// looseFlag is a boolean given as true/false, 0/1 or their string forms.
// Unrecognised values leave it unset.
type looseFlag struct {
	set   bool
	value bool
}

func (f *looseFlag) parse(text string) {
	if b, err := strconv.ParseBool(strings.TrimSpace(text)); err == nil {
		*f = looseFlag{set: true, value: b}
	}
}

func (f *looseFlag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.parse(s)
		return nil
	}
	f.parse(string(data))
	return nil
}

func (f *looseFlag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.parse(node.Value)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting exporter aliases
// (id, job_title, image_available).
func (c *Contact) UnmarshalJSON(data []byte) error {
	var raw rawContact
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = raw.contact()
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler with the same aliases as UnmarshalJSON.
func (c *Contact) UnmarshalYAML(node *yaml.Node) error {
	var raw rawContact
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = raw.contact()
	return nil
}
