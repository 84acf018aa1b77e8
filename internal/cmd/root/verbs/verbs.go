package verbs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/navigator"
)

const (
	Browse  = VerbValue("browse")
	List    = VerbValue("list")
	Check   = VerbValue("check")
	Import  = VerbValue("import")
	Version = VerbValue("version")
)

// Empty type to represent the _type_ Verb. Genesis is to support a key in a Context
type VerbKey struct{}

// Verb is a global instance of the VerbKey type
var Verb = VerbKey{}

// Will represent a specific Verb (browse, list, check, etc)
type VerbValue string

func (v VerbValue) String() string {
	return string(v)
}

// RouteArg parses the optional route argument of commands that open a table,
// e.g. "/accounts/1/profiles/p1".
func RouteArg(args []string) (navigator.Route, error) {
	switch len(args) {
	case 0:
		return navigator.Root, nil
	case 1:
		return navigator.Parse(args[0])
	default:
		return navigator.Route{}, fmt.Errorf("expected at most one route, got %d arguments", len(args))
	}
}

// MaxOneRoute is an Args validator for commands taking an optional route.
func MaxOneRoute(_ *cobra.Command, args []string) error {
	_, err := RouteArg(args)
	return err
}
