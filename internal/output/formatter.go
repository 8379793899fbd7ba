package output

import (
	"io"

	"github.com/spiffcs/claimwatch/internal/model"
	"github.com/spiffcs/claimwatch/internal/reconcile"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter defines the interface for output formatters
type Formatter interface {
	FormatDetections(detections []model.Detection, w io.Writer) error
	FormatActors(actors []model.Actor, w io.Writer) error
	FormatReport(report reconcile.Report, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	default:
		return &TableFormatter{}
	}
}
