package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService manages items, locations and BOM definitions. It never writes stock:
// new items start at zero and quantities move only through StockLedger.
type CatalogService interface {
	CreateItem(ctx context.Context, actor Actor, input ItemInput) (*Item, error)
	GetItem(ctx context.Context, itemID int) (*Item, error)
	GetItemBySKU(ctx context.Context, sku string) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	// DeleteItem removes an item with no stock history. Admin only.
	DeleteItem(ctx context.Context, actor Actor, itemID int) error

	CreateLocation(ctx context.Context, actor Actor, code, name string, kind LocationKind, isDefault bool) (*Location, error)
	GetLocationByCode(ctx context.Context, code string) (*Location, error)
	GetDefaultLocation(ctx context.Context) (*Location, error)
	ListLocations(ctx context.Context) ([]Location, error)

	// SetBOM replaces the parent's BOM. Duplicate children are merged (ratios summed).
	SetBOM(ctx context.Context, actor Actor, parentItemID int, lines []BOMLineInput) ([]BOMLine, error)
	GetBOM(ctx context.Context, parentItemID int) ([]BOMLine, error)
}

type catalogService struct {
	pool  *pgxpool.Pool
	audit AuditLog
}

// NewCatalogService constructs a CatalogService backed by PostgreSQL.
func NewCatalogService(pool *pgxpool.Pool, audit AuditLog) CatalogService {
	return &catalogService{pool: pool, audit: audit}
}

const itemColumns = `id, sku, name, kind, aggregate_qty, min_stock, unit_cost, unit_price, is_serialized, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	it := &Item{}
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.Kind, &it.AggregateQty,
		&it.MinStock, &it.UnitCost, &it.UnitPrice, &it.IsSerialized, &it.CreatedAt)
	return it, err
}

func (s *catalogService) CreateItem(ctx context.Context, actor Actor, input ItemInput) (*Item, error) {
	if err := actor.Authorize("create item", RoleOperator); err != nil {
		return nil, err
	}
	input.SKU = strings.TrimSpace(input.SKU)
	if input.SKU == "" || strings.TrimSpace(input.Name) == "" {
		return nil, &ValidationError{Message: "item SKU and name are required"}
	}
	switch input.Kind {
	case ItemKindRaw, ItemKindAssembly, ItemKindProduct:
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("unknown item kind %q", input.Kind)}
	}
	for what, v := range map[string]decimal.Decimal{"minimum stock": input.MinStock, "unit cost": input.UnitCost, "unit price": input.UnitPrice} {
		if v.IsNegative() {
			return nil, &ValidationError{Message: fmt.Sprintf("%s cannot be negative", what)}
		}
	}

	it, err := scanItem(s.pool.QueryRow(ctx, `
		INSERT INTO items (sku, name, kind, min_stock, unit_cost, unit_price, is_serialized)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+itemColumns,
		input.SKU, input.Name, input.Kind, input.MinStock, input.UnitCost, input.UnitPrice, input.IsSerialized,
	))
	if err != nil {
		return nil, translatePgError(err, "create item")
	}
	s.record(ctx, AuditEntry{ActorID: actor.UserID, Action: "item.create", EntityID: it.SKU, Detail: it.Name})
	return it, nil
}

func (s *catalogService) GetItem(ctx context.Context, itemID int) (*Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, "SELECT "+itemColumns+" FROM items WHERE id = $1", itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "item", Key: fmt.Sprint(itemID)}
		}
		return nil, fmt.Errorf("get item %d: %w", itemID, err)
	}
	return it, nil
}

func (s *catalogService) GetItemBySKU(ctx context.Context, sku string) (*Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, "SELECT "+itemColumns+" FROM items WHERE sku = $1", sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "item", Key: sku}
		}
		return nil, fmt.Errorf("get item %s: %w", sku, err)
	}
	return it, nil
}

func (s *catalogService) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+itemColumns+" FROM items ORDER BY sku")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *catalogService) DeleteItem(ctx context.Context, actor Actor, itemID int) error {
	if err := actor.Authorize("delete item", RoleAdmin); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM items WHERE id = $1", itemID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return &ConflictError{Message: fmt.Sprintf("item %d is still referenced by %s", itemID, pgErr.TableName)}
		}
		return translatePgError(err, "delete item")
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "item", Key: fmt.Sprint(itemID)}
	}
	s.record(ctx, AuditEntry{ActorID: actor.UserID, Action: "item.delete", EntityID: fmt.Sprint(itemID), Detail: "item deleted"})
	return nil
}

func (s *catalogService) CreateLocation(ctx context.Context, actor Actor, code, name string, kind LocationKind, isDefault bool) (*Location, error) {
	if err := actor.Authorize("create location", RoleAdmin); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" || strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Message: "location code and name are required"}
	}
	if kind == "" {
		kind = LocationStandard
	}
	if kind != LocationStandard && kind != LocationVirtual {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown location kind %q", kind)}
	}

	l := &Location{}
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO locations (code, name, kind, is_default)
		VALUES ($1, $2, $3, $4)
		RETURNING id, code, name, kind, is_default, created_at`,
		code, name, kind, isDefault,
	).Scan(&l.ID, &l.Code, &l.Name, &l.Kind, &l.IsDefault, &l.CreatedAt); err != nil {
		return nil, translatePgError(err, "create location")
	}
	s.record(ctx, AuditEntry{ActorID: actor.UserID, Action: "location.create", EntityID: l.Code, Detail: l.Name})
	return l, nil
}

func (s *catalogService) GetLocationByCode(ctx context.Context, code string) (*Location, error) {
	return s.getLocation(ctx, "code = $1", code)
}

// GetDefaultLocation returns the location reconciliation repairs drift into.
func (s *catalogService) GetDefaultLocation(ctx context.Context) (*Location, error) {
	l, err := s.getLocation(ctx, "is_default = $1", true)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nil, &NotFoundError{Entity: "location", Key: "default"}
	}
	return l, err
}

func (s *catalogService) getLocation(ctx context.Context, where string, arg any) (*Location, error) {
	l := &Location{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name, kind, is_default, created_at
		FROM locations WHERE `+where, arg,
	).Scan(&l.ID, &l.Code, &l.Name, &l.Kind, &l.IsDefault, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "location", Key: fmt.Sprint(arg)}
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (s *catalogService) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, kind, is_default, created_at
		FROM locations
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Kind, &l.IsDefault, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *catalogService) SetBOM(ctx context.Context, actor Actor, parentItemID int, lines []BOMLineInput) ([]BOMLine, error) {
	if err := actor.Authorize("define BOM", RoleOperator); err != nil {
		return nil, err
	}
	merged, err := mergeBOMLines(parentItemID, lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var parentSKU string
	if err := tx.QueryRow(ctx, "SELECT sku FROM items WHERE id = $1 FOR UPDATE", parentItemID).Scan(&parentSKU); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "item", Key: fmt.Sprint(parentItemID)}
		}
		return nil, fmt.Errorf("lock parent item: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM bom_lines WHERE parent_item_id = $1", parentItemID); err != nil {
		return nil, fmt.Errorf("clear BOM for %s: %w", parentSKU, err)
	}
	for i, l := range merged {
		if _, err := tx.Exec(ctx, `
			INSERT INTO bom_lines (parent_item_id, child_item_id, ratio)
			VALUES ($1, $2, $3)`,
			parentItemID, l.ChildItemID, l.Ratio,
		); err != nil {
			return nil, translatePgError(err, fmt.Sprintf("insert BOM line %d", i+1))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit BOM: %w", err)
	}
	s.record(ctx, AuditEntry{ActorID: actor.UserID, Action: "bom.set", EntityID: parentSKU,
		Detail: fmt.Sprintf("%d component(s)", len(merged))})
	return s.GetBOM(ctx, parentItemID)
}

func (s *catalogService) GetBOM(ctx context.Context, parentItemID int) ([]BOMLine, error) {
	return queryBOM(ctx, s.pool, parentItemID)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryBOM loads the current BOM of a parent item, ordered by child id.
func queryBOM(ctx context.Context, q querier, parentItemID int) ([]BOMLine, error) {
	rows, err := q.Query(ctx, `
		SELECT b.id, b.parent_item_id, b.child_item_id, c.sku, b.ratio
		FROM bom_lines b
		JOIN items c ON c.id = b.child_item_id
		WHERE b.parent_item_id = $1
		ORDER BY b.child_item_id
	`, parentItemID)
	if err != nil {
		return nil, fmt.Errorf("fetch BOM for item %d: %w", parentItemID, err)
	}
	defer rows.Close()

	var lines []BOMLine
	for rows.Next() {
		var l BOMLine
		if err := rows.Scan(&l.ID, &l.ParentItemID, &l.ChildItemID, &l.ChildSKU, &l.Ratio); err != nil {
			return nil, fmt.Errorf("scan BOM line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *catalogService) record(ctx context.Context, entry AuditEntry) {
	observers{audit: s.audit}.committed(ctx, entry)
}
