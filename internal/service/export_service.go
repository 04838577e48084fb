package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/export"
)

// ReportFormat selects the rendered output type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type exportAdmissionRepository interface {
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error)
}

type exportAttendanceRepository interface {
	SummaryByBatch(ctx context.Context, batchID string) ([]models.AttendanceSummary, error)
}

type exportPlacementRepository interface {
	ListPlacements(ctx context.Context, studentID, companyID string, page, pageSize int) ([]models.Placement, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered report and its download metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders fee, attendance and placement reports.
type ExportService struct {
	admissions exportAdmissionRepository
	attendance exportAttendanceRepository
	placements exportPlacementRepository
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(admissions exportAdmissionRepository, attendance exportAttendanceRepository, placements exportPlacementRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		admissions: admissions,
		attendance: attendance,
		placements: placements,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// Fees renders the fee ledger, optionally scoped to a branch.
func (s *ExportService) Fees(ctx context.Context, branchID string, format ReportFormat) (*ExportResult, error) {
	admissions, _, err := s.admissions.List(ctx, models.AdmissionFilter{BranchID: branchID, Page: 1, PageSize: 1000})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admissions")
	}

	dataset := export.Dataset{
		Headers: []string{"Admission No", "Name", "Status", "Total Fee", "Paid", "Balance"},
	}
	for _, a := range admissions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Admission No": a.AdmissionNo,
			"Name":         a.Name,
			"Status":       string(a.Status),
			"Total Fee":    strconv.FormatInt(a.TotalFee, 10),
			"Paid":         strconv.FormatInt(a.FeePaid, 10),
			"Balance":      strconv.FormatInt(a.Balance(), 10),
		})
	}
	return s.render(dataset, "Fee Ledger", "fees", format)
}

// Attendance renders the per-student summary for a batch.
func (s *ExportService) Attendance(ctx context.Context, batchID string, format ReportFormat) (*ExportResult, error) {
	summary, err := s.attendance.SummaryByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance summary")
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Marked", "Attended", "Percentage"},
	}
	for _, row := range summary {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":    row.StudentName,
			"Marked":     strconv.Itoa(row.Marked),
			"Attended":   strconv.Itoa(row.Attended),
			"Percentage": fmt.Sprintf("%.1f", row.Percentage),
		})
	}
	return s.render(dataset, "Attendance Summary", "attendance", format)
}

// Placements renders the placement register.
func (s *ExportService) Placements(ctx context.Context, format ReportFormat) (*ExportResult, error) {
	placements, _, err := s.placements.ListPlacements(ctx, "", "", 1, 1000)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placements")
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Company ID", "Role", "CTC", "Placed On"},
	}
	for _, p := range placements {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": p.StudentID,
			"Company ID": p.CompanyID,
			"Role":       p.RoleTitle,
			"CTC":        strconv.FormatInt(p.CTC, 10),
			"Placed On":  p.PlacedOn.Format("2006-01-02"),
		})
	}
	return s.render(dataset, "Placement Register", "placements", format)
}

func (s *ExportService) render(dataset export.Dataset, title, name string, format ReportFormat) (*ExportResult, error) {
	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.csv", name, stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ReportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.pdf", name, stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
