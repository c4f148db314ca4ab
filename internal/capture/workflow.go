package capture

import (
	"time"

	"repairlog/internal/models"
	contextutils "repairlog/internal/utils"
)

// State identifies the active wizard step. Exactly one state is active at a time.
type State string

const (
	// StateIdle is both the initial state and the state reached after
	// submission or cancellation.
	StateIdle State = "idle"
	// StateSelectingFeatures collects the observed fault features.
	StateSelectingFeatures State = "selecting_features"
	// StateSelectingFault collects the single diagnosed fault.
	StateSelectingFault State = "selecting_fault"
	// StateSelectingRepairAction collects the repair actions performed.
	StateSelectingRepairAction State = "selecting_repair_action"
	// StateSelectingReasonsNotRepaired collects why the repair was not completed.
	StateSelectingReasonsNotRepaired State = "selecting_reasons_not_repaired"
	// StateCollectingExtras collects notes and timing before submission.
	StateCollectingExtras State = "collecting_extras"
)

// StepDescriptor tells the selector collaborator how to run one wizard step:
// which catalogue to present, where the selection lands in the draft, and
// whether multi-select and photo capture apply.
type StepDescriptor struct {
	State             State  `json:"state"`
	CatalogueEndpoint string `json:"catalogue_endpoint,omitempty"`
	StorageKey        string `json:"storage_key,omitempty"`
	MultiSelect       bool   `json:"multi_select"`
	PhotoCapture      bool   `json:"photo_capture"`
}

// stepDescriptors maps each selection state to its selector contract.
var stepDescriptors = map[State]StepDescriptor{
	StateSelectingFeatures: {
		State:             StateSelectingFeatures,
		CatalogueEndpoint: "/v1/features",
		StorageKey:        "fault_features",
		MultiSelect:       true,
		PhotoCapture:      true,
	},
	StateSelectingFault: {
		State:             StateSelectingFault,
		CatalogueEndpoint: "/v1/faults",
		StorageKey:        "fault_diagnosed",
		MultiSelect:       false,
		PhotoCapture:      false,
	},
	StateSelectingRepairAction: {
		State:             StateSelectingRepairAction,
		CatalogueEndpoint: "/v1/repair-actions",
		StorageKey:        "repair_action",
		MultiSelect:       true,
		PhotoCapture:      false,
	},
	StateSelectingReasonsNotRepaired: {
		State:             StateSelectingReasonsNotRepaired,
		CatalogueEndpoint: "/v1/reasons-not-repaired",
		StorageKey:        "reason_not_repaired",
		MultiSelect:       true,
		PhotoCapture:      false,
	},
	StateCollectingExtras: {
		State: StateCollectingExtras,
	},
}

// next returns the state following from, given the outcome chosen at the start
// of the capture. The asymmetric branch: Repaired and PartiallyRepaired both
// collect repair actions, but only PartiallyRepaired and NotRepaired collect
// reasons-not-repaired.
func next(from State, outcome models.RepairOutcome) (State, bool) {
	switch from {
	case StateIdle:
		return StateSelectingFeatures, true
	case StateSelectingFeatures:
		return StateSelectingFault, true
	case StateSelectingFault:
		if outcome == models.OutcomeNotRepaired {
			return StateSelectingReasonsNotRepaired, true
		}
		return StateSelectingRepairAction, true
	case StateSelectingRepairAction:
		if outcome == models.OutcomePartiallyRepaired {
			return StateSelectingReasonsNotRepaired, true
		}
		if outcome == models.OutcomeRepaired {
			return StateCollectingExtras, true
		}
		return "", false
	case StateSelectingReasonsNotRepaired:
		if outcome == models.OutcomeRepaired {
			return "", false
		}
		return StateCollectingExtras, true
	case StateCollectingExtras:
		return StateIdle, true
	}
	return "", false
}

// Selection is what the selector collaborator reports back for one step:
// the chosen catalogue ids plus any photos created as a side effect.
type Selection struct {
	IDs      []int `json:"ids"`
	PhotoIDs []int `json:"photo_ids,omitempty"`
}

// Extras carries the free-form fields collected in the final step.
type Extras struct {
	Notes          string `json:"notes"`
	TimeToDiagnose string `json:"time_to_diagnose"`
	TimeToRepair   string `json:"time_to_repair"`
}

// Workflow is one capture session's state machine. It is a plain value with no
// locking of its own; the owning session store serializes access.
type Workflow struct {
	ProductID int
	Outcome   models.RepairOutcome
	State     State
	Draft     Draft

	// pending blocks a step from being submitted twice concurrently. It is
	// set before a step's work is dispatched and cleared on every exit path.
	pending bool
}

// Start creates a workflow for one product and outcome, positioned at the
// first selection step.
func Start(productID int, outcome models.RepairOutcome) (result0 *Workflow, err error) {
	if !outcome.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown repair outcome %q", string(outcome))
	}
	if productID <= 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "product id is required")
	}

	state, _ := next(StateIdle, outcome)
	return &Workflow{
		ProductID: productID,
		Outcome:   outcome,
		State:     state,
		Draft:     Draft{"product_id": productID},
	}, nil
}

// Step returns the descriptor for the currently active step, or false when the
// workflow is idle.
func (w *Workflow) Step() (StepDescriptor, bool) {
	desc, ok := stepDescriptors[w.State]
	return desc, ok
}

// BeginStep marks the current step in-flight. It fails if a step submission is
// already being processed.
func (w *Workflow) BeginStep() error {
	if w.pending {
		return contextutils.ErrSessionPending
	}
	w.pending = true
	return nil
}

// EndStep clears the in-flight flag. Callers must invoke it on every exit path.
func (w *Workflow) EndStep() {
	w.pending = false
}

// Pending reports whether a step submission is currently being processed.
func (w *Workflow) Pending() bool {
	return w.pending
}

// ApplySelection merges one selection step's result into the draft and
// advances to the next state. It rejects selections in Idle and in
// CollectingExtras, which takes extras instead.
func (w *Workflow) ApplySelection(sel Selection) (err error) {
	desc, ok := stepDescriptors[w.State]
	if !ok || desc.StorageKey == "" {
		return contextutils.WrapErrorf(contextutils.ErrInvalidTransition, "state %s does not accept a selection", w.State)
	}

	fields := Draft{desc.StorageKey: sel.IDs}
	if len(sel.PhotoIDs) > 0 {
		fields["photo_id"] = sel.PhotoIDs
	}
	w.Draft = w.Draft.Merge(fields)

	nextState, ok := next(w.State, w.Outcome)
	if !ok {
		return contextutils.WrapErrorf(contextutils.ErrInvalidTransition, "no transition from %s for outcome %s", w.State, string(w.Outcome))
	}
	w.State = nextState
	return nil
}

// ApplyExtras merges the final step's free-form fields and returns the
// normalized record ready for submission. The workflow stays in
// CollectingExtras: only Complete, after the sink accepted the record, moves
// it to Idle, so a failed submission can be retried without re-walking steps.
func (w *Workflow) ApplyExtras(extras Extras, now time.Time) (result0 Draft, err error) {
	if w.State != StateCollectingExtras {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidTransition, "state %s does not accept extras", w.State)
	}

	fields := Draft{}
	if extras.Notes != "" {
		fields["notes"] = extras.Notes
	}
	if extras.TimeToDiagnose != "" {
		fields["time_to_diagnose"] = extras.TimeToDiagnose
	}
	if extras.TimeToRepair != "" {
		fields["time_to_repair"] = extras.TimeToRepair
	}
	w.Draft = w.Draft.Merge(fields)

	return NormalizeDraft(w.Draft, w.Outcome, now), nil
}

// Complete resets the workflow to Idle after a successful submission.
func (w *Workflow) Complete() {
	w.State = StateIdle
	w.Draft = Draft{}
	w.pending = false
}

// Cancel discards the draft and returns to Idle without submitting.
func (w *Workflow) Cancel() {
	w.Complete()
}
