package dbx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memorylocks/internal/optional"
)

// ErrNoFields is returned by Build when no column was set.
var ErrNoFields = errors.New("no fields provided for update")

// UpdateBuilder assembles a single-row UPDATE statement touching only the
// columns that were explicitly set. Placeholders use the PostgreSQL $n form.
type UpdateBuilder struct {
	table   string
	columns []string
	args    []any
}

// NewUpdate starts an UPDATE statement for table.
func NewUpdate(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set adds column = value. Setting the same column twice keeps the first
// position and the last value.
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	for i, c := range b.columns {
		if c == column {
			b.args[i] = value
			return b
		}
	}
	b.columns = append(b.columns, column)
	b.args = append(b.args, value)
	return b
}

// Len returns the number of columns set so far.
func (b *UpdateBuilder) Len() int {
	return len(b.columns)
}

// Build renders the statement filtered by keyColumn = key and returns it with
// its arguments in placeholder order.
func (b *UpdateBuilder) Build(keyColumn string, key any) (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, ErrNoFields
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	for i, c := range b.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = $%d", c, i+1)
	}
	fmt.Fprintf(&sb, " WHERE %s = $%d", keyColumn, len(b.columns)+1)

	args := make([]any, 0, len(b.args)+1)
	args = append(args, b.args...)
	args = append(args, key)

	return sb.String(), args, nil
}

// SetField adds column to b when f was provided. A null field binds NULL.
func SetField[T any](b *UpdateBuilder, column string, f optional.Field[T]) {
	if f.IsSet() {
		b.Set(column, f.SQLArg())
	}
}
