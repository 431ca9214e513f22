package render

import (
	"strconv"
	"time"

	"github.com/derailed/tview"
	"github.com/rowscope/rowscope/internal/model1"
)

// Person is a generated record backing the in-memory source.
type Person struct {
	Name   string
	Age    int
	City   string
	Tenure time.Duration
	Quota  int64
	Note   string
}

// People renders people records.
type People struct {
	Base
}

// Header returns the people header.
func (*People) Header() model1.Header {
	return model1.Header{
		{Name: "NAME", Attrs: model1.Attrs{Sortable: true, Editable: true}},
		{Name: "AGE", Attrs: model1.Attrs{Number: true, Sortable: true, Editable: true, Align: tview.AlignRight}},
		{Name: "CITY", Attrs: model1.Attrs{Sortable: true, Editable: true}},
		{Name: "TENURE", Attrs: model1.Attrs{Time: true, Sortable: true}},
		{Name: "QUOTA", Attrs: model1.Attrs{Capacity: true, Sortable: true, Align: tview.AlignRight}},
		{Name: "NOTE", Attrs: model1.Attrs{Editable: true, Wide: true}},
	}
}

// Render renders a person to a row.
func (*People) Render(p Person, row *model1.Row) error {
	row.Fields = model1.Fields{
		p.Name,
		strconv.Itoa(p.Age),
		p.City,
		HumanDuration(p.Tenure),
		FormatSize(p.Quota),
		p.Note,
	}
	return nil
}
