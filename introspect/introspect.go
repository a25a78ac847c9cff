// Package introspect reads a live database's catalog and produces the
// schema model of individual tables, one introspector per supported
// dialect.
//
// Beyond reading the catalog, each introspector classifies indexes: an
// index that only exists to enforce a primary key or unique constraint is
// folded into the constraint it backs and excluded from the table's plain
// index list, so a later diff can never target it directly.
package introspect

import (
	"context"
	"fmt"

	"github.com/tordrt/schemadiff/schema"
)

// Introspector produces the current physical shape of a single table.
type Introspector interface {
	// IntrospectTable returns the table's schema model, a
	// *TableNotFoundError when the table is absent from the catalog, or a
	// *CatalogQueryError when a catalog query fails.
	IntrospectTable(ctx context.Context, table string) (*schema.Table, error)
}

// TableNotFoundError reports that a requested table does not exist.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q does not exist", e.Table)
}

// CatalogQueryError wraps a failed catalog query. Detail names the part of
// the catalog being read when the failure occurred.
type CatalogQueryError struct {
	Table  string
	Detail string
	Err    error
}

func (e *CatalogQueryError) Error() string {
	return fmt.Sprintf("introspecting table %q: %s: %v", e.Table, e.Detail, e.Err)
}

func (e *CatalogQueryError) Unwrap() error { return e.Err }
