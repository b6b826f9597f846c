package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
	"github.com/noah-isme/content-review-api/pkg/export"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type submissionGetter interface {
	Get(ctx context.Context, assignmentID string) (*models.SubmissionView, error)
}

type csvRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

type pdfRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// ExportResult is a rendered annotation export ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the annotations of an assignment as CSV or PDF.
type ExportService struct {
	submissions submissionGetter
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(submissions submissionGetter, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{submissions: submissions, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportAnnotations renders every comment of every version of an assignment.
func (s *ExportService) ExportAnnotations(ctx context.Context, assignmentID string, format ExportFormat) (*ExportResult, error) {
	format = ExportFormat(strings.ToLower(string(format)))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	view, err := s.submissions.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	sheet := AnnotationSheet(view, s.now().UTC())

	var (
		data        []byte
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		data, err = s.pdf.Render(sheet)
		contentType = "application/pdf"
	default:
		data, err = s.csv.Render(sheet)
		contentType = "text/csv"
	}
	if err != nil {
		s.logger.Error("annotation export failed", zap.String("assignment_id", assignmentID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("review_%s_%s.%s", sanitizeFilename(assignmentID), s.now().UTC().Format("20060102_150405"), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// AnnotationSheet flattens a submission's comments into a table, version by version and media
// slot by media slot.
func AnnotationSheet(view *models.SubmissionView, generatedAt time.Time) export.Sheet {
	sheet := export.Sheet{
		Title: view.Title,
		Subtitle: fmt.Sprintf("Assignment %s | %s | status %s | generated %s",
			view.AssignmentID, view.Platform, view.DisplayStatus, generatedAt.Format(time.RFC3339)),
		Columns: []export.Column{
			{Header: "Version", Width: 18},
			{Header: "Media", Width: 16},
			{Header: "Media URL", Width: 55},
			{Header: "X", Width: 14},
			{Header: "Y", Width: 14},
			{Header: "Comment"},
			{Header: "Done", Width: 14},
			{Header: "Author", Width: 28},
			{Header: "Created", Width: 36},
		},
	}
	if sheet.Title == "" {
		sheet.Title = "Assignment " + view.AssignmentID
	}
	for _, version := range view.Versions {
		partitions := PartitionByMedia(version.Comments)
		slots := make([]int, 0, len(partitions))
		for slot := range partitions {
			slots = append(slots, slot)
		}
		sort.Ints(slots)
		for _, mediaIndex := range slots {
			comments := partitions[mediaIndex]
			url := ""
			if mediaIndex >= 0 && mediaIndex < len(version.Media) {
				url = version.Media[mediaIndex].URL
			}
			for _, c := range comments {
				sheet.Rows = append(sheet.Rows, []string{
					strconv.Itoa(version.VersionNumber),
					strconv.Itoa(mediaIndex),
					url,
					strconv.FormatFloat(c.X, 'f', -1, 64),
					strconv.FormatFloat(c.Y, 'f', -1, 64),
					c.Text,
					strconv.FormatBool(c.Done),
					c.AuthorID,
					c.Timestamp.UTC().Format(time.RFC3339),
				})
			}
		}
	}
	return sheet
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
