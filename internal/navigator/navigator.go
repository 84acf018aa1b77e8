// Package navigator models the position in the accounts > profiles > campaigns
// hierarchy.
package navigator

import (
	"fmt"
	"net/url"
	"strings"
)

type Level int

const (
	Accounts Level = iota
	Profiles
	Campaigns
)

func (l Level) String() string {
	switch l {
	case Profiles:
		return "profiles"
	case Campaigns:
		return "campaigns"
	default:
		return "accounts"
	}
}

// Route addresses one table. AccountID is set from Profiles down, ProfileID
// only on Campaigns.
type Route struct {
	Level     Level
	AccountID string
	ProfileID string
}

// Root is the accounts list.
var Root = Route{Level: Accounts}

// ProfilesOf routes to the profiles of an account.
func ProfilesOf(accountID string) Route {
	return Route{Level: Profiles, AccountID: accountID}
}

// CampaignsOf routes to the campaigns of a profile.
func CampaignsOf(accountID, profileID string) Route {
	return Route{Level: Campaigns, AccountID: accountID, ProfileID: profileID}
}

// Parse accepts "/", "/accounts/<id>" and "/accounts/<id>/profiles/<pid>". The
// leading slash is optional and "/accounts" is the same as "/".
func Parse(s string) (Route, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "/")
	if trimmed == "" {
		return Root, nil
	}

	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		unescaped, err := url.PathUnescape(p)
		if err != nil || unescaped == "" {
			return Route{}, fmt.Errorf("invalid route %q", s)
		}
		parts[i] = unescaped
	}

	switch {
	case len(parts) == 1 && parts[0] == "accounts":
		return Root, nil
	case len(parts) == 2 && parts[0] == "accounts":
		return ProfilesOf(parts[1]), nil
	case len(parts) == 4 && parts[0] == "accounts" && parts[2] == "profiles":
		return CampaignsOf(parts[1], parts[3]), nil
	default:
		return Route{}, fmt.Errorf("invalid route %q, expected /accounts/<id>[/profiles/<id>]", s)
	}
}

func (r Route) String() string {
	switch r.Level {
	case Profiles:
		return "/accounts/" + url.PathEscape(r.AccountID)
	case Campaigns:
		return "/accounts/" + url.PathEscape(r.AccountID) + "/profiles/" + url.PathEscape(r.ProfileID)
	default:
		return "/"
	}
}

// Child returns the route opened by selecting the row id on this level. The
// campaigns level has no children.
func (r Route) Child(id string) (Route, bool) {
	switch r.Level {
	case Accounts:
		return ProfilesOf(id), true
	case Profiles:
		return CampaignsOf(r.AccountID, id), true
	default:
		return r, false
	}
}

// Parent returns the route one level up. The root is its own parent.
func (r Route) Parent() Route {
	switch r.Level {
	case Campaigns:
		return ProfilesOf(r.AccountID)
	default:
		return Root
	}
}

// Key is the dataset key for this level: the account id for profiles, the
// profile id for campaigns and empty for accounts.
func (r Route) Key() string {
	switch r.Level {
	case Profiles:
		return r.AccountID
	case Campaigns:
		return r.ProfileID
	default:
		return ""
	}
}

// Trail returns the routes from the root down to r.
func (r Route) Trail() []Route {
	switch r.Level {
	case Profiles:
		return []Route{Root, r}
	case Campaigns:
		return []Route{Root, ProfilesOf(r.AccountID), r}
	default:
		return []Route{Root}
	}
}
