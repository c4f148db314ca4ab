package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"repairlog/internal/models"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// CatalogService serves the per-product catalogues the capture wizard steps
// read from: products, features, faults, repair actions and reasons not
// repaired. Listings are cached when a cache is provided.
type CatalogService struct {
	db     *sql.DB
	cache  *CatalogCache
	logger *observability.Logger
}

// NewCatalogService creates a new CatalogService instance. cache may be nil.
func NewCatalogService(db *sql.DB, cache *CatalogCache, logger *observability.Logger) *CatalogService {
	if db == nil {
		panic("NewCatalogService: db is nil")
	}
	if logger == nil {
		panic("NewCatalogService: logger is nil")
	}
	return &CatalogService{db: db, cache: cache, logger: logger}
}

// ListProducts returns all products ordered by name.
func (s *CatalogService) ListProducts(ctx context.Context) (result0 []models.Product, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "list_products")
	defer observability.FinishSpan(span, &err)

	key := catalogCacheKey("products", 0)
	products := []models.Product{}
	if s.cache.get(ctx, key, &products) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return products, nil
	}

	query := `SELECT id, name, barcode_serial, created_at, updated_at FROM products ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query products")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.BarcodeSerial, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate products")
	}

	s.cache.set(ctx, key, products)
	return products, nil
}

// GetProduct fetches a single product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, id int) (result0 *models.Product, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "get_product", observability.AttributeProductID(id))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, name, barcode_serial, created_at, updated_at FROM products WHERE id = $1`
	var p models.Product
	err = s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.BarcodeSerial, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "product %d not found", id)
		}
		return nil, contextutils.WrapError(err, "failed to scan product")
	}
	return &p, nil
}

// CreateProduct inserts a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) (result0 *models.Product, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "create_product")
	defer observability.FinishSpan(span, &err)

	query := `INSERT INTO products (name, barcode_serial, created_at, updated_at)
	          VALUES ($1, $2, NOW(), NOW()) RETURNING id, created_at, updated_at`
	err = s.db.QueryRowContext(ctx, query, product.Name, product.BarcodeSerial).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert product")
	}

	s.cache.invalidate(ctx, "products")
	return product, nil
}

// ListFeatures returns the features for a product ordered by name. productID
// zero means all products.
func (s *CatalogService) ListFeatures(ctx context.Context, productID int) (result0 []models.Feature, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "list_features", observability.AttributeProductID(productID))
	defer observability.FinishSpan(span, &err)

	key := catalogCacheKey("features", productID)
	features := []models.Feature{}
	if s.cache.get(ctx, key, &features) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return features, nil
	}

	rows, err := s.queryNamedCatalogue(ctx, "features", productID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var f models.Feature
		if err := rows.Scan(&f.ID, &f.ProductID, &f.Name, &f.Description, &f.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan feature")
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate features")
	}

	s.cache.set(ctx, key, features)
	return features, nil
}

// CreateFeature inserts a new feature for a product.
func (s *CatalogService) CreateFeature(ctx context.Context, feature *models.Feature) (result0 *models.Feature, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "create_feature", observability.AttributeProductID(feature.ProductID))
	defer observability.FinishSpan(span, &err)

	query := `INSERT INTO features (product_id, name, description, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	err = s.db.QueryRowContext(ctx, query, feature.ProductID, feature.Name, feature.Description).
		Scan(&feature.ID, &feature.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert feature")
	}

	s.cache.invalidate(ctx, "features")
	return feature, nil
}

// ListFaults returns the faults for a product ordered by name, each carrying
// the IDs of the features it is known to present with. productID zero means
// all products.
func (s *CatalogService) ListFaults(ctx context.Context, productID int) (result0 []models.Fault, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "list_faults", observability.AttributeProductID(productID))
	defer observability.FinishSpan(span, &err)

	key := catalogCacheKey("faults", productID)
	faults := []models.Fault{}
	if s.cache.get(ctx, key, &faults) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return faults, nil
	}

	// Aggregate the feature links in one round trip rather than a query per fault
	query := `SELECT f.id, f.product_id, f.name, f.description, f.created_at,
	                 COALESCE(ARRAY_AGG(ff.feature_id ORDER BY ff.feature_id) FILTER (WHERE ff.feature_id IS NOT NULL), '{}')
	          FROM faults f
	          LEFT JOIN fault_features ff ON ff.fault_id = f.id`
	var args []interface{}
	if productID != 0 {
		query += ` WHERE f.product_id = $1`
		args = append(args, productID)
	}
	query += ` GROUP BY f.id ORDER BY f.name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query faults")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var f models.Fault
		var featureIDs pq.Int64Array
		if err := rows.Scan(&f.ID, &f.ProductID, &f.Name, &f.Description, &f.CreatedAt, &featureIDs); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan fault")
		}
		f.FeatureIDs = int64ArrayToInts(featureIDs)
		faults = append(faults, f)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate faults")
	}

	s.cache.set(ctx, key, faults)
	return faults, nil
}

// GetFault fetches a single fault with its feature links.
func (s *CatalogService) GetFault(ctx context.Context, id int) (result0 *models.Fault, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "get_fault", observability.AttributeFaultID(id))
	defer observability.FinishSpan(span, &err)

	query := `SELECT f.id, f.product_id, f.name, f.description, f.created_at,
	                 COALESCE(ARRAY_AGG(ff.feature_id ORDER BY ff.feature_id) FILTER (WHERE ff.feature_id IS NOT NULL), '{}')
	          FROM faults f
	          LEFT JOIN fault_features ff ON ff.fault_id = f.id
	          WHERE f.id = $1
	          GROUP BY f.id`
	var f models.Fault
	var featureIDs pq.Int64Array
	err = s.db.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.ProductID, &f.Name, &f.Description, &f.CreatedAt, &featureIDs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "fault %d not found", id)
		}
		return nil, contextutils.WrapError(err, "failed to scan fault")
	}
	f.FeatureIDs = int64ArrayToInts(featureIDs)
	return &f, nil
}

// CreateFault inserts a new fault together with its feature links.
func (s *CatalogService) CreateFault(ctx context.Context, fault *models.Fault) (result0 *models.Fault, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "create_fault",
		observability.AttributeProductID(fault.ProductID),
		observability.AttributeFeatureCount(len(fault.FeatureIDs)),
	)
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO faults (product_id, name, description, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	if err = tx.QueryRowContext(ctx, query, fault.ProductID, fault.Name, fault.Description).
		Scan(&fault.ID, &fault.CreatedAt); err != nil {
		return nil, contextutils.WrapError(err, "failed to insert fault")
	}

	if err = insertJunctionRows(ctx, tx, "fault_features", "fault_id", "feature_id", fault.ID, fault.FeatureIDs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit fault")
	}

	s.cache.invalidate(ctx, "faults")
	return fault, nil
}

// ListRepairActions returns the repair actions for a product ordered by name.
// productID zero means all products.
func (s *CatalogService) ListRepairActions(ctx context.Context, productID int) (result0 []models.RepairAction, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "list_repair_actions", observability.AttributeProductID(productID))
	defer observability.FinishSpan(span, &err)

	key := catalogCacheKey("repair_actions", productID)
	actions := []models.RepairAction{}
	if s.cache.get(ctx, key, &actions) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return actions, nil
	}

	rows, err := s.queryNamedCatalogue(ctx, "repair_actions", productID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var a models.RepairAction
		if err := rows.Scan(&a.ID, &a.ProductID, &a.Name, &a.Description, &a.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan repair action")
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate repair actions")
	}

	s.cache.set(ctx, key, actions)
	return actions, nil
}

// CreateRepairAction inserts a new repair action for a product.
func (s *CatalogService) CreateRepairAction(ctx context.Context, action *models.RepairAction) (result0 *models.RepairAction, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "create_repair_action", observability.AttributeProductID(action.ProductID))
	defer observability.FinishSpan(span, &err)

	query := `INSERT INTO repair_actions (product_id, name, description, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	err = s.db.QueryRowContext(ctx, query, action.ProductID, action.Name, action.Description).
		Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert repair action")
	}

	s.cache.invalidate(ctx, "repair_actions")
	return action, nil
}

// ListReasonsNotRepaired returns the reasons-not-repaired catalogue for a
// product ordered by name. productID zero means all products.
func (s *CatalogService) ListReasonsNotRepaired(ctx context.Context, productID int) (result0 []models.ReasonNotRepaired, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "list_reasons_not_repaired", observability.AttributeProductID(productID))
	defer observability.FinishSpan(span, &err)

	key := catalogCacheKey("reasons_not_repaired", productID)
	reasons := []models.ReasonNotRepaired{}
	if s.cache.get(ctx, key, &reasons) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return reasons, nil
	}

	rows, err := s.queryNamedCatalogue(ctx, "reasons_not_repaired", productID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var r models.ReasonNotRepaired
		if err := rows.Scan(&r.ID, &r.ProductID, &r.Name, &r.Description, &r.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan reason not repaired")
		}
		reasons = append(reasons, r)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate reasons not repaired")
	}

	s.cache.set(ctx, key, reasons)
	return reasons, nil
}

// CreateReasonNotRepaired inserts a new reason-not-repaired entry.
func (s *CatalogService) CreateReasonNotRepaired(ctx context.Context, reason *models.ReasonNotRepaired) (result0 *models.ReasonNotRepaired, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "create_reason_not_repaired", observability.AttributeProductID(reason.ProductID))
	defer observability.FinishSpan(span, &err)

	query := `INSERT INTO reasons_not_repaired (product_id, name, description, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	err = s.db.QueryRowContext(ctx, query, reason.ProductID, reason.Name, reason.Description).
		Scan(&reason.ID, &reason.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert reason not repaired")
	}

	s.cache.invalidate(ctx, "reasons_not_repaired")
	return reason, nil
}

// UpdateProduct renames a product or changes its barcode.
func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) (result0 *models.Product, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "update_product", observability.AttributeProductID(product.ID))
	defer observability.FinishSpan(span, &err)

	query := `UPDATE products SET name = $2, barcode_serial = $3, updated_at = NOW()
	          WHERE id = $1 RETURNING created_at, updated_at`
	err = s.db.QueryRowContext(ctx, query, product.ID, product.Name, product.BarcodeSerial).
		Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "product %d not found", product.ID)
		}
		return nil, contextutils.WrapError(err, "failed to update product")
	}

	s.cache.invalidate(ctx, "products")
	return product, nil
}

// DeleteProduct removes a product. Its catalogues, photos and results go
// with it through the schema's cascades, so every cached listing is stale.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "delete_product", observability.AttributeProductID(id))
	defer observability.FinishSpan(span, &err)

	if err := s.deleteByID(ctx, "products", id); err != nil {
		return err
	}
	for _, kind := range []string{"products", "features", "faults", "repair_actions", "reasons_not_repaired"} {
		s.cache.invalidate(ctx, kind)
	}
	return nil
}

// UpdateFeature changes a feature's name and description.
func (s *CatalogService) UpdateFeature(ctx context.Context, feature *models.Feature) (result0 *models.Feature, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "update_feature")
	defer observability.FinishSpan(span, &err)

	if err := s.renameNamedEntry(ctx, "features", feature.ID, feature.Name, feature.Description, &feature.ProductID, &feature.CreatedAt); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, "features")
	return feature, nil
}

// DeleteFeature removes a feature and its fault links.
func (s *CatalogService) DeleteFeature(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "delete_feature")
	defer observability.FinishSpan(span, &err)

	if err := s.deleteByID(ctx, "features", id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, "features")
	s.cache.invalidate(ctx, "faults")
	return nil
}

// UpdateFault changes a fault's name and description and replaces its
// feature links.
func (s *CatalogService) UpdateFault(ctx context.Context, fault *models.Fault) (result0 *models.Fault, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "update_fault",
		observability.AttributeFaultID(fault.ID),
		observability.AttributeFeatureCount(len(fault.FeatureIDs)),
	)
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `UPDATE faults SET name = $2, description = $3 WHERE id = $1 RETURNING product_id, created_at`
	if err = tx.QueryRowContext(ctx, query, fault.ID, fault.Name, fault.Description).
		Scan(&fault.ProductID, &fault.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "fault %d not found", fault.ID)
		}
		return nil, contextutils.WrapError(err, "failed to update fault")
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM fault_features WHERE fault_id = $1`, fault.ID); err != nil {
		return nil, contextutils.WrapError(err, "failed to clear fault feature links")
	}
	if err = insertJunctionRows(ctx, tx, "fault_features", "fault_id", "feature_id", fault.ID, fault.FeatureIDs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit fault update")
	}

	s.cache.invalidate(ctx, "faults")
	return fault, nil
}

// DeleteFault removes a fault and its feature links.
func (s *CatalogService) DeleteFault(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "delete_fault", observability.AttributeFaultID(id))
	defer observability.FinishSpan(span, &err)

	if err := s.deleteByID(ctx, "faults", id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, "faults")
	return nil
}

// UpdateRepairAction changes a repair action's name and description.
func (s *CatalogService) UpdateRepairAction(ctx context.Context, action *models.RepairAction) (result0 *models.RepairAction, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "update_repair_action")
	defer observability.FinishSpan(span, &err)

	if err := s.renameNamedEntry(ctx, "repair_actions", action.ID, action.Name, action.Description, &action.ProductID, &action.CreatedAt); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, "repair_actions")
	return action, nil
}

// DeleteRepairAction removes a repair action.
func (s *CatalogService) DeleteRepairAction(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "delete_repair_action")
	defer observability.FinishSpan(span, &err)

	if err := s.deleteByID(ctx, "repair_actions", id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, "repair_actions")
	return nil
}

// UpdateReasonNotRepaired changes a reason-not-repaired entry's name and
// description.
func (s *CatalogService) UpdateReasonNotRepaired(ctx context.Context, reason *models.ReasonNotRepaired) (result0 *models.ReasonNotRepaired, err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "update_reason_not_repaired")
	defer observability.FinishSpan(span, &err)

	if err := s.renameNamedEntry(ctx, "reasons_not_repaired", reason.ID, reason.Name, reason.Description, &reason.ProductID, &reason.CreatedAt); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, "reasons_not_repaired")
	return reason, nil
}

// DeleteReasonNotRepaired removes a reason-not-repaired entry.
func (s *CatalogService) DeleteReasonNotRepaired(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceCatalogFunction(ctx, "delete_reason_not_repaired")
	defer observability.FinishSpan(span, &err)

	if err := s.deleteByID(ctx, "reasons_not_repaired", id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, "reasons_not_repaired")
	return nil
}

// renameNamedEntry runs the shared update for the simple catalogue tables,
// filling product_id and created_at back into the caller's struct.
func (s *CatalogService) renameNamedEntry(ctx context.Context, table string, id int, name string, description sql.NullString, productID *int, createdAt *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $2, description = $3 WHERE id = $1 RETURNING product_id, created_at`, table)
	err := s.db.QueryRowContext(ctx, query, id, name, description).Scan(productID, createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "%s entry %d not found", table, id)
		}
		return contextutils.WrapErrorf(err, "failed to update %s entry", table)
	}
	return nil
}

func (s *CatalogService) deleteByID(ctx context.Context, table string, id int) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to delete from %s", table)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "%s entry %d not found", table, id)
	}
	return nil
}

// queryNamedCatalogue runs the shared listing query for the simple catalogue
// tables, which all share the id/product_id/name/description/created_at shape.
func (s *CatalogService) queryNamedCatalogue(ctx context.Context, table string, productID int) (*sql.Rows, error) {
	query := fmt.Sprintf(`SELECT id, product_id, name, description, created_at FROM %s`, table)
	var args []interface{}
	if productID != 0 {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to query %s", table)
	}
	return rows, nil
}

// insertJunctionRows links a parent row to a set of IDs through a junction
// table inside an existing transaction.
func insertJunctionRows(ctx context.Context, tx *sql.Tx, table, parentColumn, childColumn string, parentID int, childIDs []int) error {
	if len(childIDs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(childIDs))
	args := make([]interface{}, 0, len(childIDs)+1)
	args = append(args, parentID)
	for i, childID := range childIDs {
		placeholders = append(placeholders, fmt.Sprintf("($1, $%d)", i+2))
		args = append(args, childID)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES %s",
		table, parentColumn, childColumn, strings.Join(placeholders, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return contextutils.WrapErrorf(err, "failed to insert %s rows", table)
	}
	return nil
}

func int64ArrayToInts(arr pq.Int64Array) []int {
	out := make([]int, 0, len(arr))
	for _, v := range arr {
		out = append(out, int(v))
	}
	return out
}
