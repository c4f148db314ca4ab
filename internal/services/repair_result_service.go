package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"repairlog/internal/capture"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// RepairResultService persists completed repair-result records and serves
// the results listing.
type RepairResultService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewRepairResultService creates a new RepairResultService instance.
func NewRepairResultService(db *sql.DB, logger *observability.Logger) *RepairResultService {
	if db == nil {
		panic("NewRepairResultService: db is nil")
	}
	if logger == nil {
		panic("NewRepairResultService: logger is nil")
	}
	return &RepairResultService{db: db, logger: logger}
}

// SubmitDraft converts a normalized capture draft into a repair result and
// stores it. The draft must already carry type, text and date.
func (s *RepairResultService) SubmitDraft(ctx context.Context, draft capture.Draft) (result0 *models.RepairResult, err error) {
	ctx, span := observability.TraceResultsFunction(ctx, "submit_draft")
	defer observability.FinishSpan(span, &err)

	record, err := RepairResultFromDraft(draft)
	if err != nil {
		return nil, err
	}
	return s.CreateRepairResult(ctx, record)
}

// RepairResultFromDraft maps the normalized draft keys onto a RepairResult.
func RepairResultFromDraft(draft capture.Draft) (*models.RepairResult, error) {
	productID, ok := draftInt(draft["product_id"])
	if !ok || productID == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "draft has no product_id")
	}
	resultType, _ := draftString(draft["type"])
	if !models.RepairOutcome(resultType).Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "draft has invalid type %q", resultType)
	}
	dateStr, _ := draftString(draft["date"])
	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "draft has invalid date %q", dateStr)
	}

	record := &models.RepairResult{
		ProductID:            productID,
		Type:                 models.RepairOutcome(resultType),
		Date:                 date,
		FaultFeatureIDs:      draftIntSlice(draft["fault_features"]),
		RepairActionIDs:      draftIntSlice(draft["repair_action"]),
		ReasonNotRepairedIDs: draftIntSlice(draft["reason_not_repaired"]),
		PhotoIDs:             draftIntSlice(draft["photo_id"]),
	}
	record.Text, _ = draftString(draft["text"])

	if notes, ok := draftString(draft["notes"]); ok && notes != "" {
		record.Notes = sql.NullString{String: notes, Valid: true}
	}
	if faultID, ok := draftInt(draft["fault_diagnosed"]); ok {
		record.FaultDiagnosed = sql.NullInt64{Int64: int64(faultID), Valid: true}
	}
	if ttd, ok := draftString(draft["time_to_diagnose"]); ok && ttd != "" {
		if _, err := contextutils.ParseClockDuration(ttd); err != nil {
			return nil, contextutils.WrapErrorf(err, "invalid time_to_diagnose %q", ttd)
		}
		record.TimeToDiagnose = sql.NullString{String: ttd, Valid: true}
	}
	if ttr, ok := draftString(draft["time_to_repair"]); ok && ttr != "" {
		if _, err := contextutils.ParseClockDuration(ttr); err != nil {
			return nil, contextutils.WrapErrorf(err, "invalid time_to_repair %q", ttr)
		}
		record.TimeToRepair = sql.NullString{String: ttr, Valid: true}
	}

	return record, nil
}

// CreateRepairResult stores a repair result and its junction rows in one
// transaction.
func (s *RepairResultService) CreateRepairResult(ctx context.Context, record *models.RepairResult) (result0 *models.RepairResult, err error) {
	ctx, span := observability.TraceResultsFunction(ctx, "create_repair_result",
		observability.AttributeProductID(record.ProductID),
		observability.AttributeResultType(string(record.Type)),
	)
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrSubmissionFailed, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO repair_results (product_id, text, type, date, notes, fault_diagnosed, time_to_diagnose, time_to_repair, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id, created_at`
	if err = tx.QueryRowContext(ctx, query,
		record.ProductID, record.Text, record.Type, record.Date,
		record.Notes, record.FaultDiagnosed, record.TimeToDiagnose, record.TimeToRepair,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return nil, contextutils.WrapError(err, "failed to insert repair result")
	}

	junctions := []struct {
		table  string
		column string
		ids    []int
	}{
		{"repair_result_fault_features", "feature_id", record.FaultFeatureIDs},
		{"repair_result_repair_actions", "repair_action_id", record.RepairActionIDs},
		{"repair_result_reasons", "reason_id", record.ReasonNotRepairedIDs},
		{"repair_result_photos", "photo_id", record.PhotoIDs},
	}
	for _, j := range junctions {
		if err = insertJunctionRows(ctx, tx, j.table, "repair_result_id", j.column, record.ID, j.ids); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrSubmissionFailed, "failed to commit repair result")
	}

	s.logger.Info(ctx, "Repair result stored", map[string]interface{}{
		"repair_result_id": record.ID,
		"product_id":       record.ProductID,
		"type":             record.Type,
	})
	return record, nil
}

// GetRepairResult fetches a single repair result with its linked IDs.
func (s *RepairResultService) GetRepairResult(ctx context.Context, id int) (result0 *models.RepairResult, err error) {
	ctx, span := observability.TraceResultsFunction(ctx, "get_repair_result")
	defer observability.FinishSpan(span, &err)

	query := selectRepairResultQuery + ` WHERE r.id = $1 GROUP BY r.id`
	row := s.db.QueryRowContext(ctx, query, id)
	record, err := scanRepairResult(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "repair result %d not found", id)
		}
		return nil, err
	}
	return record, nil
}

// ListRepairResults returns repair results newest first, optionally filtered
// by product, diagnosed fault and outcome type, with pagination.
func (s *RepairResultService) ListRepairResults(ctx context.Context, productID, faultID int, resultType string, page, pageSize int) (result0 []models.RepairResult, result1 int, err error) {
	ctx, span := observability.TraceResultsFunction(ctx, "list_repair_results",
		observability.AttributePage(page),
		observability.AttributePageSize(pageSize),
	)
	defer observability.FinishSpan(span, &err)

	var conditions []string
	var args []interface{}
	idx := 1
	if productID != 0 {
		conditions = append(conditions, fmt.Sprintf("r.product_id = $%d", idx))
		args = append(args, productID)
		idx++
	}
	if faultID != 0 {
		conditions = append(conditions, fmt.Sprintf("r.fault_diagnosed = $%d", idx))
		args = append(args, faultID)
		idx++
	}
	if resultType != "" {
		conditions = append(conditions, fmt.Sprintf("r.type = $%d", idx))
		args = append(args, resultType)
		idx++
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM repair_results r %s", where)
	var total int
	if err = s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to count repair results")
	}

	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	query := fmt.Sprintf("%s %s GROUP BY r.id ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d",
		selectRepairResultQuery, where, idx, idx+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to query repair results")
	}
	defer func() {
		_ = rows.Close()
	}()

	list := []models.RepairResult{}
	for rows.Next() {
		record, err := scanRepairResult(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *record)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to iterate repair results")
	}

	span.SetAttributes(attribute.Int("results.total", total))
	return list, total, nil
}

const selectRepairResultQuery = `
	SELECT r.id, r.product_id, r.text, r.type, r.date, r.notes, r.fault_diagnosed,
	       r.time_to_diagnose, r.time_to_repair, r.created_at,
	       COALESCE(ARRAY_AGG(DISTINCT ff.feature_id) FILTER (WHERE ff.feature_id IS NOT NULL), '{}'),
	       COALESCE(ARRAY_AGG(DISTINCT ra.repair_action_id) FILTER (WHERE ra.repair_action_id IS NOT NULL), '{}'),
	       COALESCE(ARRAY_AGG(DISTINCT rn.reason_id) FILTER (WHERE rn.reason_id IS NOT NULL), '{}'),
	       COALESCE(ARRAY_AGG(DISTINCT rp.photo_id) FILTER (WHERE rp.photo_id IS NOT NULL), '{}')
	FROM repair_results r
	LEFT JOIN repair_result_fault_features ff ON ff.repair_result_id = r.id
	LEFT JOIN repair_result_repair_actions ra ON ra.repair_result_id = r.id
	LEFT JOIN repair_result_reasons rn ON rn.repair_result_id = r.id
	LEFT JOIN repair_result_photos rp ON rp.repair_result_id = r.id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRepairResult(row rowScanner) (*models.RepairResult, error) {
	var r models.RepairResult
	var featureIDs, actionIDs, reasonIDs, photoIDs pq.Int64Array
	err := row.Scan(&r.ID, &r.ProductID, &r.Text, &r.Type, &r.Date, &r.Notes, &r.FaultDiagnosed,
		&r.TimeToDiagnose, &r.TimeToRepair, &r.CreatedAt,
		&featureIDs, &actionIDs, &reasonIDs, &photoIDs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, contextutils.WrapError(err, "failed to scan repair result")
	}
	r.FaultFeatureIDs = int64ArrayToInts(featureIDs)
	r.RepairActionIDs = int64ArrayToInts(actionIDs)
	r.ReasonNotRepairedIDs = int64ArrayToInts(reasonIDs)
	r.PhotoIDs = int64ArrayToInts(photoIDs)
	return &r, nil
}

// draftInt coerces a draft value to int. JSON decoding produces float64,
// normalized drafts carry int.
func draftInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func draftString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func draftIntSlice(v interface{}) []int {
	switch vals := v.(type) {
	case []int:
		return vals
	case []int64:
		out := make([]int, 0, len(vals))
		for _, n := range vals {
			out = append(out, int(n))
		}
		return out
	case []interface{}:
		out := make([]int, 0, len(vals))
		for _, item := range vals {
			if n, ok := draftInt(item); ok {
				out = append(out, n)
			}
		}
		return out
	default:
		if n, ok := draftInt(v); ok {
			return []int{n}
		}
		return nil
	}
}
