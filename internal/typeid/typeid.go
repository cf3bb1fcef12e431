package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser      = "user"
	PrefixScheme    = "scheme"
	PrefixItem      = "item"
	PrefixConnector = "conn"
	PrefixArt       = "art"
	PrefixCategory  = "cat"
	PrefixOp        = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string      { return New(PrefixUser) }
func NewSchemeID() string    { return New(PrefixScheme) }
func NewItemID() string      { return New(PrefixItem) }
func NewConnectorID() string { return New(PrefixConnector) }
func NewArtID() string       { return New(PrefixArt) }
func NewCategoryID() string  { return New(PrefixCategory) }
func NewOpID() string        { return New(PrefixOp) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
