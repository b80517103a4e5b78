package whitelist

import "regexp"

// IdentifierLength is the length of an EC3000 transmitter ID.
const IdentifierLength = 4

var identifierRegex = regexp.MustCompile(`^[0-9A-F]{4}$`)

// defaultEntries are the EC3000 transmitters admitted when no whitelist file
// is configured.
var defaultEntries = []Entry{
	{ID: "7821", Label: "3D printer"},
	{ID: "531C", Label: "washing machine & dishwasher"},
	{ID: "7E3A", Label: "fridge"},
	{ID: "770C", Label: "e-bike"},
	{ID: "7E65", Label: "monitor"},
	{ID: "51D2", Label: "total"},
}

// Default returns the built-in EC3000 whitelist.
func Default() *Whitelist {
	return NewFromEntries(defaultEntries)
}

// ValidIdentifier reports whether s is a well-formed EC3000 ID: exactly four
// uppercase hexadecimal characters.
func ValidIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}
