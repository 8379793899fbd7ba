package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/claimwatch/internal/model"
	"github.com/spiffcs/claimwatch/internal/reconcile"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatDetections outputs detections as JSON
func (f *JSONFormatter) FormatDetections(detections []model.Detection, w io.Writer) error {
	if detections == nil {
		detections = []model.Detection{}
	}
	return f.encode(detections, w)
}

// FormatActors outputs the trust feed as JSON
func (f *JSONFormatter) FormatActors(actors []model.Actor, w io.Writer) error {
	if actors == nil {
		actors = []model.Actor{}
	}
	return f.encode(actors, w)
}

// FormatReport outputs a reconciliation report as JSON
func (f *JSONFormatter) FormatReport(report reconcile.Report, w io.Writer) error {
	return f.encode(report, w)
}
