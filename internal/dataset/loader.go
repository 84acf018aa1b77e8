package dataset

import (
	"context"
	"fmt"

	"github.com/adsdrill/drillctl/internal/record"
)

// Loader resolves a hierarchy key to a dataset.
type Loader interface {
	Load(ctx context.Context, key string) (record.Dataset, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, key string) (record.Dataset, error)

func (f LoaderFunc) Load(ctx context.Context, key string) (record.Dataset, error) {
	return f(ctx, key)
}

// KeyedLoader reads the resource Prefix+key from Source and decodes it with
// Schema.
type KeyedLoader struct {
	Source Source
	Schema *record.Schema
	Prefix string
}

func (l *KeyedLoader) Resource(key string) string {
	return l.Prefix + key
}

func (l *KeyedLoader) Load(ctx context.Context, key string) (record.Dataset, error) {
	if key == "" {
		return nil, fmt.Errorf("%s: empty key", l.Schema.Name)
	}
	return fetchDecode(ctx, l.Source, l.Schema, l.Resource(key))
}

// StaticLoader always reads the same resource, whatever the key.
type StaticLoader struct {
	Source   Source
	Schema   *record.Schema
	Resource string
}

func (l *StaticLoader) Load(ctx context.Context, _ string) (record.Dataset, error) {
	return fetchDecode(ctx, l.Source, l.Schema, l.Resource)
}

func fetchDecode(ctx context.Context, src Source, schema *record.Schema, resource string) (record.Dataset, error) {
	data, err := src.Fetch(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", schema.Name, err)
	}
	ds, err := record.Decode(schema, data)
	if err != nil {
		return nil, fmt.Errorf("loading %s from %s: %w", schema.Name, resource, err)
	}
	return ds, nil
}

// Outcome is the result of one load.
type Outcome struct {
	Key     string
	Dataset record.Dataset
	Err     error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Layout names the resources of the three hierarchy levels.
type Layout struct {
	AccountsResource string
	ProfilesPrefix   string
	CampaignsPrefix  string
}

// DefaultLayout matches the bundled sample data.
var DefaultLayout = Layout{
	AccountsResource: "accounts",
	ProfilesPrefix:   "profiles",
	CampaignsPrefix:  "campaignsData/campaigns",
}

// Loaders bundles the loaders for every level over one source.
type Loaders struct {
	Accounts  *StaticLoader
	Profiles  *KeyedLoader
	Campaigns *KeyedLoader
}

// NewLoaders wires a source with a layout. Empty layout fields take their
// default.
func NewLoaders(src Source, layout Layout) Loaders {
	if layout.AccountsResource == "" {
		layout.AccountsResource = DefaultLayout.AccountsResource
	}
	if layout.ProfilesPrefix == "" {
		layout.ProfilesPrefix = DefaultLayout.ProfilesPrefix
	}
	if layout.CampaignsPrefix == "" {
		layout.CampaignsPrefix = DefaultLayout.CampaignsPrefix
	}
	return Loaders{
		Accounts:  &StaticLoader{Source: src, Schema: record.Accounts, Resource: layout.AccountsResource},
		Profiles:  &KeyedLoader{Source: src, Schema: record.Profiles, Prefix: layout.ProfilesPrefix},
		Campaigns: &KeyedLoader{Source: src, Schema: record.Campaigns, Prefix: layout.CampaignsPrefix},
	}
}
