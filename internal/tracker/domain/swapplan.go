package domain

// FieldMove redirects the values of one version-picker custom field from the
// deleted version to a replacement.
type FieldMove struct {
	FieldID     int64 `json:"field_id"`
	ToVersionID int64 `json:"to_version_id"`
}

// SwapPlan is the full replacement plan for deleting a version: where its
// affected-version and fix-version references move, and which custom-field
// values follow. The store applies the plan atomically.
type SwapPlan struct {
	DeletingID   int64       `json:"deleting_id"`
	AffectedToID int64       `json:"affected_to_id"`
	FixToID      int64       `json:"fix_to_id"`
	FieldMoves   []FieldMove `json:"field_moves,omitempty"`
}

// SwapPlanBuilder assembles a SwapPlan step by step.
type SwapPlanBuilder struct {
	plan SwapPlan
}

// NewSwapPlan starts a plan for deleting the given version.
func NewSwapPlan(deleting Version) *SwapPlanBuilder {
	return &SwapPlanBuilder{plan: SwapPlan{DeletingID: deleting.ID}}
}

// MoveAffectedIssuesTo redirects affected-version references to the
// replacement.
func (b *SwapPlanBuilder) MoveAffectedIssuesTo(v Version) *SwapPlanBuilder {
	b.plan.AffectedToID = v.ID
	return b
}

// MoveFixIssuesTo redirects fix-version references to the replacement.
func (b *SwapPlanBuilder) MoveFixIssuesTo(v Version) *SwapPlanBuilder {
	b.plan.FixToID = v.ID
	return b
}

// MoveCustomFieldValuesTo redirects the values of a version-picker custom
// field to the replacement. Only fields that currently resolve in the store
// belong in the plan; absent fields are the caller's to skip.
func (b *SwapPlanBuilder) MoveCustomFieldValuesTo(fieldID int64, v Version) *SwapPlanBuilder {
	b.plan.FieldMoves = append(b.plan.FieldMoves, FieldMove{FieldID: fieldID, ToVersionID: v.ID})
	return b
}

// Build returns the immutable plan.
func (b *SwapPlanBuilder) Build() SwapPlan {
	moves := make([]FieldMove, len(b.plan.FieldMoves))
	copy(moves, b.plan.FieldMoves)
	plan := b.plan
	plan.FieldMoves = moves
	return plan
}
