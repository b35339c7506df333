package retrieval

import (
	"fmt"

	"github.com/ecotraq/be-waste-dashboard/internal/client"
	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/rejoin"
)

// ScreenConfig is one screen's retrieval strategy list. The same
// coordinator mechanics serve every screen; only this configuration varies.
type ScreenConfig struct {
	ID string

	// View is the precomputed multi-entity view for tier 1. Empty means the
	// screen has no precomputed view and loading starts at tier 2.
	View string

	// ViewRoleAgnostic marks views documented as NOT encoding the caller's
	// role restriction server-side. For those the coordinator re-applies the
	// restriction client-side so tier-1 results match tiers 2/3.
	ViewRoleAgnostic bool

	// Table is the primary table for tiers 2 and 3.
	Table string

	// Keys declares the screen's foreign keys. Tier 2 derives its relation
	// expansion from them; tier 3 uses them to fetch reference sets and
	// re-join manually.
	Keys []rejoin.KeySpec

	// OwnerField, when set, restricts non-privileged callers to rows whose
	// owner field equals their user id.
	OwnerField string
}

// expand derives the declarative-join relation specs from the key specs so
// tiers 2 and 3 always agree on projection and field naming.
func (c ScreenConfig) expand() []client.RelationSpec {
	specs := make([]client.RelationSpec, 0, len(c.Keys))
	for _, k := range c.Keys {
		specs = append(specs, client.RelationSpec{
			Column:  k.Field,
			Table:   k.RefTable,
			As:      k.As,
			Columns: k.Project,
		})
	}
	return specs
}

// roleFilter returns the row restriction for the caller, or nil when the
// screen is unrestricted or the caller is privileged.
func (c ScreenConfig) roleFilter(role record.RoleContext) *client.Predicate {
	if c.OwnerField == "" || role.Privileged {
		return nil
	}
	return &client.Predicate{Field: c.OwnerField, Op: "eq", Value: role.UserID}
}

// Registry maps screen ids to their retrieval configuration.
type Registry map[string]ScreenConfig

// Lookup resolves a screen id.
func (r Registry) Lookup(screenID string) (ScreenConfig, error) {
	cfg, ok := r[screenID]
	if !ok {
		return ScreenConfig{}, fmt.Errorf("unknown screen %q", screenID)
	}
	return cfg, nil
}

// Reference-set projections shared across screens.
var (
	userProjection      = []string{"id", "full_name", "department"}
	processorProjection = []string{"id", "name", "license_no"}
	wasteItemProjection = []string{"id", "code", "category"}
	areaProjection      = []string{"id", "name"}
)

// DefaultRegistry declares the dashboard's screens.
func DefaultRegistry() Registry {
	return Registry{
		"waste_items": {
			ID:         "waste_items",
			View:       "waste_items_overview",
			Table:      "waste_items",
			OwnerField: "responsible_id",
			Keys: []rejoin.KeySpec{
				{Field: "responsible_id", As: "responsible", RefTable: "users", Project: userProjection},
				{Field: "storage_area_id", As: "storage_area", RefTable: "storage_areas", Project: areaProjection},
			},
		},
		"deliveries": {
			ID:         "deliveries",
			View:       "deliveries_overview",
			Table:      "deliveries",
			OwnerField: "created_by",
			Keys: []rejoin.KeySpec{
				{Field: "processor_id", As: "processor", RefTable: "processors", Project: processorProjection},
				{Field: "created_by", As: "creator", RefTable: "users", Project: userProjection},
			},
		},
		"incidents": {
			ID:         "incidents",
			View:       "incidents_overview",
			Table:      "incidents",
			OwnerField: "reported_by",
			Keys: []rejoin.KeySpec{
				{Field: "reported_by", As: "reporter", RefTable: "users", Project: userProjection},
				{Field: "waste_item_id", As: "waste_item", RefTable: "waste_items", Project: wasteItemProjection},
			},
		},
		"trainings": {
			ID:   "trainings",
			View: "training_overview",
			// The training view serves every role the same rows; the caller
			// restriction, when one applies, must happen client-side.
			ViewRoleAgnostic: true,
			Table:            "training_sessions",
			Keys: []rejoin.KeySpec{
				{Field: "instructor_id", As: "instructor", RefTable: "users", Project: userProjection},
			},
		},
		"weighings": {
			ID: "weighings",
			// No precomputed view exists for weighings; loading starts at
			// the declarative join.
			Table:      "weighing_events",
			OwnerField: "recorded_by",
			Keys: []rejoin.KeySpec{
				{Field: "waste_item_id", As: "waste_item", RefTable: "waste_items", Project: wasteItemProjection},
				{Field: "recorded_by", As: "recorder", RefTable: "users", Project: userProjection},
			},
		},
		"report_jobs": {
			ID:         "report_jobs",
			Table:      "report_jobs",
			OwnerField: "requested_by",
			Keys: []rejoin.KeySpec{
				{Field: "requested_by", As: "requester", RefTable: "users", Project: userProjection},
			},
		},
	}
}
