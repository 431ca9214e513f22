package render

import (
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/rowscope/rowscope/internal/model1"
)

// S3Object renders S3 objects
type S3Object struct {
	Base
}

// Header returns the S3 object header
func (*S3Object) Header() model1.Header {
	return model1.Header{
		{Name: "KEY", Attrs: model1.Attrs{Sortable: true}},
		{Name: "SIZE", Attrs: model1.Attrs{Capacity: true, Sortable: true, Align: tview.AlignRight}},
		{Name: "STORAGE-CLASS", Attrs: model1.Attrs{Sortable: true}},
		{Name: "AGE", Attrs: model1.Attrs{Time: true, Sortable: true}},
		{Name: "ETAG", Attrs: model1.Attrs{Wide: true}},
	}
}

// Render renders an S3 object to a row
func (*S3Object) Render(o types.Object, row *model1.Row) error {
	key := StrPtrToStr(o.Key)
	row.ID = key
	row.Fields = model1.Fields{
		key,
		formatS3Size(o.Size),
		string(o.StorageClass),
		ToAge(o.LastModified),
		StrPtrToStr(o.ETag),
	}
	return nil
}

// ColorerFunc returns the object colorer
func (o *S3Object) ColorerFunc() ColorerFunc {
	return func(h model1.Header, it model1.Item, selected bool) tcell.Color {
		if it.Placeholder() || selected {
			return DefaultColorer(h, it, selected)
		}
		storageIdx, ok := h.IndexOf("STORAGE-CLASS", true)
		if !ok {
			return model1.StdColor
		}
		switch it.Row.Field(storageIdx) {
		case "GLACIER", "DEEP_ARCHIVE", "GLACIER_IR":
			return model1.PendingColor
		default:
			return model1.StdColor
		}
	}
}

func formatS3Size(size *int64) string {
	if size == nil {
		return NAValue
	}
	return FormatSize(*size)
}
