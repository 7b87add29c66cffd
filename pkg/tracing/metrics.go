package tracing

import (
	"context"
	"fmt"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Measures recorded by the tracking, directory and dashboard services
var (
	VisitsRecorded       = stats.Int64("dalil/visits_recorded", "Page visits stored", stats.UnitDimensionless)
	ContactClicks        = stats.Int64("dalil/contact_clicks", "Contact clicks stored", stats.UnitDimensionless)
	Registrations        = stats.Int64("dalil/registrations", "Worker registration attempts", stats.UnitDimensionless)
	DashboardSectionErrs = stats.Int64("dalil/dashboard_section_errors", "Dashboard sections that failed to load", stats.UnitDimensionless)
)

// Tag keys attached to the measures above
var (
	KeyOutcome = tag.MustNewKey("outcome")
	KeySection = tag.MustNewKey("section")
)

// Outcome tag values
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Views exposes every dalil measure as a count
var Views = []*view.View{
	{Name: "dalil/visits_recorded", Measure: VisitsRecorded, Aggregation: view.Count(), TagKeys: []tag.Key{KeyOutcome}},
	{Name: "dalil/contact_clicks", Measure: ContactClicks, Aggregation: view.Count(), TagKeys: []tag.Key{KeyOutcome}},
	{Name: "dalil/registrations", Measure: Registrations, Aggregation: view.Count(), TagKeys: []tag.Key{KeyOutcome}},
	{Name: "dalil/dashboard_section_errors", Measure: DashboardSectionErrs, Aggregation: view.Count(), TagKeys: []tag.Key{KeySection}},
}

// RegisterViews registers Views with the OpenCensus view worker
func RegisterViews() error {
	if err := view.Register(Views...); err != nil {
		return fmt.Errorf("failed to register dalil views: %w", err)
	}
	return nil
}

// Count records one occurrence of m tagged with key=value
func Count(ctx context.Context, m *stats.Int64Measure, key tag.Key, value string) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(key, value)}, m.M(1))
}
