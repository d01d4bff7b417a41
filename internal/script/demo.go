package script

import (
	_ "embed"
)

//go:embed demo.yaml
var demoYAML []byte

// Demo returns the built-in walkthrough used by the demo command.
func Demo() (Script, error) {
	return Parse(demoYAML)
}
