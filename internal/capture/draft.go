// Package capture implements the diagnostic capture workflow: the outcome-driven
// wizard state machine and the normalization applied to a draft record before it
// is persisted as a repair result.
package capture

import (
	"time"

	"repairlog/internal/models"
)

// Draft is the in-progress aggregate built across wizard steps. Fields
// accumulate additively via shallow merge; a later step never removes a key
// written by an earlier one.
type Draft map[string]interface{}

// Merge returns a new draft with the given fields shallow-merged over d.
// Neither input is mutated.
func (d Draft) Merge(fields Draft) Draft {
	merged := make(Draft, len(d)+len(fields))
	for k, v := range d {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy of the draft.
func (d Draft) Clone() Draft {
	return Draft{}.Merge(d)
}

// NormalizeDraft converts an accumulated draft into the shape the repair result
// store expects. It is total and pure: any draft is accepted, the input is not
// mutated, and applying it to an already-normalized draft changes nothing.
//
// Steps, in order:
//  1. derive "type" from the outcome code, only if absent,
//  2. derive "text" from the outcome label, only if absent,
//  3. rename "feature" to "fault_features" when the latter is absent, then drop "feature",
//  4. collapse a "fault_diagnosed" collection to its first element or nil,
//  5. stamp "date" with the current date, only if absent.
func NormalizeDraft(d Draft, outcome models.RepairOutcome, now time.Time) Draft {
	out := d.Clone()

	if _, ok := out["type"]; !ok {
		out["type"] = string(outcome)
	}

	if _, ok := out["text"]; !ok {
		out["text"] = outcome.Label()
	}

	if feature, ok := out["feature"]; ok {
		if _, ok := out["fault_features"]; !ok {
			out["fault_features"] = feature
		}
		delete(out, "feature")
	}

	if diagnosed, ok := out["fault_diagnosed"]; ok {
		out["fault_diagnosed"] = collapseToScalar(diagnosed)
	}

	if _, ok := out["date"]; !ok {
		out["date"] = now.Format(models.DateLayout)
	}

	return out
}

// collapseToScalar reduces a possibly-multi-element selection to its first
// element, or nil when empty. Scalars pass through untouched.
func collapseToScalar(v interface{}) interface{} {
	switch vv := v.(type) {
	case []int:
		if len(vv) == 0 {
			return nil
		}
		return vv[0]
	case []int64:
		if len(vv) == 0 {
			return nil
		}
		return vv[0]
	case []interface{}:
		if len(vv) == 0 {
			return nil
		}
		return vv[0]
	default:
		return v
	}
}
