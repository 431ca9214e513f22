package model1

// Fields represents the rendered values of a row.
type Fields []string

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

// Row represents a collection of columns
type Row struct {
	ID     string
	Seq    int64 // insertion ordinal, final sort tie-breaker
	Fields Fields
}

func NewRow(size int) Row {
	return Row{Fields: make([]string, size)}
}

func (r Row) Clone() Row {
	return Row{
		ID:     r.ID,
		Seq:    r.Seq,
		Fields: r.Fields.Clone(),
	}
}

func (r Row) Len() int {
	return len(r.Fields)
}

// Field returns the value at col or NAValue when out of bounds.
func (r Row) Field(col int) string {
	if col < 0 || col >= len(r.Fields) {
		return NAValue
	}
	return r.Fields[col]
}

// Map returns the row keyed by header column names.
func (r Row) Map(h Header) map[string]any {
	m := make(map[string]any, len(h)+1)
	m["id"] = r.ID
	for i, c := range h {
		m[c.Name] = r.Field(i)
	}
	return m
}

// Rows represents a collection of rows
type Rows []Row

func (r Rows) Clone() Rows {
	out := make(Rows, len(r))
	for i, row := range r {
		out[i] = row.Clone()
	}
	return out
}
