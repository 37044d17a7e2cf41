package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
	"github.com/noah-isme/duty-roster-api/pkg/export"
)

// ExportFormat identifies a supported roster export format.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ParseExportFormat normalises a format query value.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// ExportResult carries a rendered roster export.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

type rosterReader interface {
	All(ctx context.Context) ([]dto.ScheduleItem, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the current roster into downloadable documents.
// Exports are generated synchronously and returned inline.
type ExportService struct {
	roster  rosterReader
	csv     csvRenderer
	pdf     pdfRenderer
	enabled bool
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(roster rosterReader, enabled bool, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{roster: roster, csv: csv, pdf: pdf, enabled: enabled, logger: logger}
}

// ExportRoster renders the full roster in the requested format.
func (s *ExportService) ExportRoster(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	items, err := s.roster.All(ctx)
	if err != nil {
		return nil, err
	}

	dataset := buildRosterDataset(items)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Data:        data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("roster-%s.csv", stamp),
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, "Duty Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Data:        data,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("roster-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func buildRosterDataset(items []dto.ScheduleItem) export.Dataset {
	headers := []string{"Date", "Member", "Email", "Completed"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"Date":      item.Date,
			"Member":    item.OwnerName,
			"Email":     item.OwnerEmail,
			"Completed": strconv.FormatBool(item.Completed),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
