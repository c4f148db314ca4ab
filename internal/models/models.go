// Package models defines data structures used throughout the repair capture application.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// DateLayout is the wire format for repair record dates
const DateLayout = "2006-01-02"

// RepairOutcome classifies how a repair attempt ended
type RepairOutcome string

const (
	// OutcomeRepaired is for products that were fully repaired
	OutcomeRepaired RepairOutcome = "R"
	// OutcomePartiallyRepaired is for products that were only partially repaired
	OutcomePartiallyRepaired RepairOutcome = "P"
	// OutcomeNotRepaired is for products that could not be repaired
	OutcomeNotRepaired RepairOutcome = "N"
)

// Valid reports whether the outcome is one of the known codes
func (o RepairOutcome) Valid() bool {
	switch o {
	case OutcomeRepaired, OutcomePartiallyRepaired, OutcomeNotRepaired:
		return true
	}
	return false
}

// Label returns the human-readable outcome label used as the default record text
func (o RepairOutcome) Label() string {
	switch o {
	case OutcomeRepaired:
		return "Repaired"
	case OutcomePartiallyRepaired:
		return "Partial repair"
	case OutcomeNotRepaired:
		return "Not repaired"
	}
	return string(o)
}

// Product represents a repairable product in the catalogue
type Product struct {
	ID            int            `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	BarcodeSerial sql.NullString `json:"barcode_serial" yaml:"barcode_serial"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" yaml:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Product to handle sql.NullString properly
func (p Product) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID            int       `json:"id"`
		Name          string    `json:"name"`
		BarcodeSerial *string   `json:"barcode_serial"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}{
		ID:            p.ID,
		Name:          p.Name,
		BarcodeSerial: nullStringToPointer(p.BarcodeSerial),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON so products survive a cache
// round trip
func (p *Product) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID            int       `json:"id"`
		Name          string    `json:"name"`
		BarcodeSerial *string   `json:"barcode_serial"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Product{
		ID:            wire.ID,
		Name:          wire.Name,
		BarcodeSerial: pointerToNullString(wire.BarcodeSerial),
		CreatedAt:     wire.CreatedAt,
		UpdatedAt:     wire.UpdatedAt,
	}
	return nil
}

// Feature represents an observable symptom or characteristic of a product
type Feature struct {
	ID          int            `json:"id" yaml:"id"`
	ProductID   int            `json:"product_id" yaml:"product_id"`
	Name        string         `json:"name" yaml:"name"`
	Description sql.NullString `json:"description" yaml:"description"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
}

// MarshalJSON renders the optional description as JSON null when absent
func (f Feature) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}{
		ID:          f.ID,
		ProductID:   f.ProductID,
		Name:        f.Name,
		Description: nullStringToPointer(f.Description),
		CreatedAt:   f.CreatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON so features survive a cache
// round trip
func (f *Feature) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*f = Feature{
		ID:          wire.ID,
		ProductID:   wire.ProductID,
		Name:        wire.Name,
		Description: pointerToNullString(wire.Description),
		CreatedAt:   wire.CreatedAt,
	}
	return nil
}

// Fault represents a known defect associated with a set of features
type Fault struct {
	ID          int            `json:"id" yaml:"id"`
	ProductID   int            `json:"product_id" yaml:"product_id"`
	Name        string         `json:"name" yaml:"name"`
	Description sql.NullString `json:"description" yaml:"description"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	// FeatureIDs lists the features this fault is known to present with
	FeatureIDs []int `json:"feature_ids" yaml:"feature_ids"`
}

// MarshalJSON renders the optional description as JSON null when absent
func (f Fault) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
		FeatureIDs  []int     `json:"feature_ids"`
	}{
		ID:          f.ID,
		ProductID:   f.ProductID,
		Name:        f.Name,
		Description: nullStringToPointer(f.Description),
		CreatedAt:   f.CreatedAt,
		FeatureIDs:  emptyIfNil(f.FeatureIDs),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON so faults survive a cache
// round trip
func (f *Fault) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
		FeatureIDs  []int     `json:"feature_ids"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*f = Fault{
		ID:          wire.ID,
		ProductID:   wire.ProductID,
		Name:        wire.Name,
		Description: pointerToNullString(wire.Description),
		CreatedAt:   wire.CreatedAt,
		FeatureIDs:  wire.FeatureIDs,
	}
	return nil
}

// RankedFault pairs a fault with how many of the selected features it matches.
// MatchedFeatureIDs carries the intersection itself for display.
type RankedFault struct {
	Fault             Fault `json:"fault"`
	MatchCount        int   `json:"match_count"`
	MatchedFeatureIDs []int `json:"matched_feature_ids"`
}

// RepairAction represents a catalogue entry describing work performed during a repair
type RepairAction struct {
	ID          int            `json:"id" yaml:"id"`
	ProductID   int            `json:"product_id" yaml:"product_id"`
	Name        string         `json:"name" yaml:"name"`
	Description sql.NullString `json:"description" yaml:"description"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
}

// MarshalJSON renders the optional description as JSON null when absent
func (a RepairAction) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}{
		ID:          a.ID,
		ProductID:   a.ProductID,
		Name:        a.Name,
		Description: nullStringToPointer(a.Description),
		CreatedAt:   a.CreatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON so repair actions survive a
// cache round trip
func (a *RepairAction) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = RepairAction{
		ID:          wire.ID,
		ProductID:   wire.ProductID,
		Name:        wire.Name,
		Description: pointerToNullString(wire.Description),
		CreatedAt:   wire.CreatedAt,
	}
	return nil
}

// ReasonNotRepaired represents a catalogue entry explaining why a repair was not completed
type ReasonNotRepaired struct {
	ID          int            `json:"id" yaml:"id"`
	ProductID   int            `json:"product_id" yaml:"product_id"`
	Name        string         `json:"name" yaml:"name"`
	Description sql.NullString `json:"description" yaml:"description"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
}

// MarshalJSON renders the optional description as JSON null when absent
func (r ReasonNotRepaired) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}{
		ID:          r.ID,
		ProductID:   r.ProductID,
		Name:        r.Name,
		Description: nullStringToPointer(r.Description),
		CreatedAt:   r.CreatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON so reasons survive a cache
// round trip
func (r *ReasonNotRepaired) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = ReasonNotRepaired{
		ID:          wire.ID,
		ProductID:   wire.ProductID,
		Name:        wire.Name,
		Description: pointerToNullString(wire.Description),
		CreatedAt:   wire.CreatedAt,
	}
	return nil
}

// Photo represents an image captured while selecting features
type Photo struct {
	ID        int    `json:"id" yaml:"id"`
	ProductID int    `json:"product_id" yaml:"product_id"`
	Title     string `json:"title" yaml:"title"`
	// FeatureID points at the feature this photo illustrates, if any
	FeatureID   sql.NullInt64 `json:"feature_id" yaml:"feature_id"`
	ContentType string        `json:"content_type" yaml:"content_type"`
	// Image holds the raw image bytes and is omitted from list responses
	Image      []byte    `json:"-" yaml:"-"`
	UploadedAt time.Time `json:"uploaded_at" yaml:"uploaded_at"`
}

// MarshalJSON customizes JSON marshaling for Photo to handle sql.Null types properly
func (p Photo) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          int       `json:"id"`
		ProductID   int       `json:"product_id"`
		Title       string    `json:"title"`
		FeatureID   *int64    `json:"feature_id"`
		ContentType string    `json:"content_type"`
		UploadedAt  time.Time `json:"uploaded_at"`
	}{
		ID:          p.ID,
		ProductID:   p.ProductID,
		Title:       p.Title,
		FeatureID:   nullInt64ToPointer(p.FeatureID),
		ContentType: p.ContentType,
		UploadedAt:  p.UploadedAt,
	})
}

// RepairResult represents a finished, stored repair record
type RepairResult struct {
	ID        int            `json:"id" yaml:"id"`
	ProductID int            `json:"product_id" yaml:"product_id"`
	Text      string         `json:"text" yaml:"text"`
	Type      RepairOutcome  `json:"type" yaml:"type"`
	Date      time.Time      `json:"date" yaml:"date"`
	Notes     sql.NullString `json:"notes" yaml:"notes"`
	// FaultDiagnosed is the single diagnosed fault, if any
	FaultDiagnosed sql.NullInt64 `json:"fault_diagnosed" yaml:"fault_diagnosed"`
	// Durations are carried as "HH:MM:SS" clock strings
	TimeToDiagnose sql.NullString `json:"time_to_diagnose" yaml:"time_to_diagnose"`
	TimeToRepair   sql.NullString `json:"time_to_repair" yaml:"time_to_repair"`
	// Many-to-many associations
	FaultFeatureIDs      []int     `json:"fault_features" yaml:"fault_features"`
	RepairActionIDs      []int     `json:"repair_action" yaml:"repair_action"`
	ReasonNotRepairedIDs []int     `json:"reason_not_repaired" yaml:"reason_not_repaired"`
	PhotoIDs             []int     `json:"photo_id" yaml:"photo_id"`
	CreatedAt            time.Time `json:"created_at" yaml:"created_at"`
}

// MarshalJSON customizes JSON marshaling for RepairResult so null fields render
// as JSON null and the date uses the YYYY-MM-DD wire format
func (r RepairResult) MarshalJSON() (result0 []byte, err error) {
	var faultDiagnosed *int64
	if r.FaultDiagnosed.Valid {
		faultDiagnosed = &r.FaultDiagnosed.Int64
	}
	return json.Marshal(&struct {
		ID                   int       `json:"id"`
		ProductID            int       `json:"product_id"`
		Text                 string    `json:"text"`
		Type                 string    `json:"type"`
		Date                 string    `json:"date"`
		Notes                *string   `json:"notes"`
		FaultDiagnosed       *int64    `json:"fault_diagnosed"`
		TimeToDiagnose       *string   `json:"time_to_diagnose"`
		TimeToRepair         *string   `json:"time_to_repair"`
		FaultFeatureIDs      []int     `json:"fault_features"`
		RepairActionIDs      []int     `json:"repair_action"`
		ReasonNotRepairedIDs []int     `json:"reason_not_repaired"`
		PhotoIDs             []int     `json:"photo_id"`
		CreatedAt            time.Time `json:"created_at"`
	}{
		ID:                   r.ID,
		ProductID:            r.ProductID,
		Text:                 r.Text,
		Type:                 string(r.Type),
		Date:                 r.Date.Format(DateLayout),
		Notes:                nullStringToPointer(r.Notes),
		FaultDiagnosed:       faultDiagnosed,
		TimeToDiagnose:       nullStringToPointer(r.TimeToDiagnose),
		TimeToRepair:         nullStringToPointer(r.TimeToRepair),
		FaultFeatureIDs:      emptyIfNil(r.FaultFeatureIDs),
		RepairActionIDs:      emptyIfNil(r.RepairActionIDs),
		ReasonNotRepairedIDs: emptyIfNil(r.ReasonNotRepairedIDs),
		PhotoIDs:             emptyIfNil(r.PhotoIDs),
		CreatedAt:            r.CreatedAt,
	})
}

// RepairEvent records that a repair attempt started for a product, before any
// record is captured. Events survive even when the capture is later cancelled.
type RepairEvent struct {
	ID        int           `json:"id" yaml:"id"`
	ProductID int           `json:"product_id" yaml:"product_id"`
	Outcome   RepairOutcome `json:"outcome" yaml:"outcome"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func pointerToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64ToPointer(ni sql.NullInt64) *int64 {
	if ni.Valid {
		return &ni.Int64
	}
	return nil
}

func emptyIfNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
