// Package normalizer maps header-keyed source rows onto fixed output schemas.
//
// A Schema names the identifier column and lists the output fields in order.
// Each Field carries one rule: copy a column, emit a constant, coerce a column
// to an integer (empty means 0) or copy a column that becomes null when empty.
// Rows whose identifier column is absent or empty are skipped without a diagnostic.
package normalizer

// Kind selects how a field value is produced
type Kind int

const (
	// KindCopy takes the column value verbatim
	KindCopy Kind = iota
	// KindConstant ignores the row and emits Field.Value
	KindConstant
	// KindInteger parses the column as a base-10 integer, 0 when empty
	KindInteger
	// KindNullable copies the column, null when empty
	KindNullable
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindConstant:
		return "constant"
	case KindInteger:
		return "integer"
	case KindNullable:
		return "nullable"
	default:
		return "unknown"
	}
}

// Field is one output key and the rule that fills it
type Field struct {
	Name   string
	Column string
	Kind   Kind
	Value  any
}

// Schema is the ordered output shape for one kind of source
type Schema struct {
	Name     string
	IDColumn string
	Fields   []Field
}

// CopyField emits column's value as name
func CopyField(name, column string) Field {
	return Field{Name: name, Column: column, Kind: KindCopy}
}

// ConstantField always emits value as name
func ConstantField(name string, value any) Field {
	return Field{Name: name, Kind: KindConstant, Value: value}
}

// IntField emits column parsed as an integer, or 0 when the column is empty
func IntField(name, column string) Field {
	return Field{Name: name, Column: column, Kind: KindInteger}
}

// NullableField emits column's value, or null when the column is empty
func NullableField(name, column string) Field {
	return Field{Name: name, Column: column, Kind: KindNullable}
}

// Columns lists the distinct source columns the schema reads, identifier first
func (s Schema) Columns() []string {
	seen := map[string]bool{}
	var columns []string
	add := func(column string) {
		if column == "" || seen[column] {
			return
		}
		seen[column] = true
		columns = append(columns, column)
	}

	add(s.IDColumn)
	for _, field := range s.Fields {
		if field.Kind != KindConstant {
			add(field.Column)
		}
	}
	return columns
}

// FieldNames lists the output keys in order
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, field := range s.Fields {
		names[i] = field.Name
	}
	return names
}
