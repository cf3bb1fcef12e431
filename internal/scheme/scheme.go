package scheme

import (
	"encoding/json"
	"time"
)

// Style carries the shared drawing defaults of a scheme or connector.
type Style struct {
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	StrokeColor     string  `json:"strokeColor,omitempty"`
	StrokeSize      float64 `json:"strokeSize,omitempty"`
	TextColor       string  `json:"textColor,omitempty"`
}

// Scheme is a complete diagram document.
type Scheme struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	CategoryID   string       `json:"categoryId,omitempty"`
	ModifiedTime time.Time    `json:"modifiedTime"`
	Style        Style        `json:"style"`
	Items        []*Item      `json:"items"`
	Connectors   []*Connector `json:"connectors,omitempty"`
}

// NewScheme creates an empty scheme.
func NewScheme(id, name string) *Scheme {
	return &Scheme{
		ID:           id,
		Name:         name,
		ModifiedTime: time.Now().UTC(),
		Items:        []*Item{},
	}
}

// Clone returns a deep copy of the scheme. Item meta is reset on the copy.
func (s *Scheme) Clone() *Scheme {
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out Scheme
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}

// Marshal serializes the scheme for storage or history checkpoints.
func (s *Scheme) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal loads a scheme from its serialized form, applying item defaults.
func Unmarshal(data []byte) (*Scheme, error) {
	var s Scheme
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
