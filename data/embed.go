package data

import (
	_ "embed"
)

// SeedForms is the JSON catalog of the default intake and exit survey forms
//
//go:embed seed/forms.json
var SeedForms []byte
