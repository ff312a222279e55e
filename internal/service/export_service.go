package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/models"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
	"github.com/carelink/clinic-api/pkg/export"
)

// ReportFormat selects the rendered appointment report format.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportAppointmentLister interface {
	ListForDoctor(ctx context.Context, doctorUID string) ([]models.AppointmentDetail, error)
}

// ExportService renders a doctor's appointment list as a downloadable report.
type ExportService struct {
	bookings exportAppointmentLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(bookings exportAppointmentLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{bookings: bookings, csv: csv, pdf: pdf, logger: logger}
}

// AppointmentReport renders the doctor's appointments in the given format
// and returns payload bytes plus the matching content type.
func (s *ExportService) AppointmentReport(ctx context.Context, doctorUID string, format ReportFormat) ([]byte, string, error) {
	appointments, err := s.bookings.ListForDoctor(ctx, doctorUID)
	if err != nil {
		return nil, "", err
	}

	dataset := appointmentDataset(appointments)

	switch format {
	case ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case ReportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Appointment Report")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}

func appointmentDataset(appointments []models.AppointmentDetail) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Booking ID", "Patient", "Email", "Day", "Start", "End", "Reason", "Status", "Created At"},
		Rows:    make([]map[string]string, 0, len(appointments)),
	}
	for _, a := range appointments {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Booking ID": a.BookingID,
			"Patient":    a.PatientName,
			"Email":      a.PatientEmail,
			"Day":        string(a.Day),
			"Start":      a.StartTime,
			"End":        a.EndTime,
			"Reason":     a.Reason,
			"Status":     string(a.Status),
			"Created At": a.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return dataset
}
