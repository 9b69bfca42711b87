package service

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/export"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
	"github.com/sekundarstufe/stundenplan-core/pkg/storage"
)

// ExportFormat selects the rendering backend.
type ExportFormat string

const (
	FormatPDF ExportFormat = "pdf"
	FormatCSV ExportFormat = "csv"
)

// ExportResult points at a rendered artifact via a signed download token.
type ExportResult struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders solutions to disk and mints signed download links.
type ExportService struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	pdf    *export.PDFExporter
	csv    *export.CSVExporter
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		store:  store,
		signer: signer,
		pdf:    export.NewPDFExporter(),
		csv:    export.NewCSVExporter(),
		logger: logger,
	}
}

// Render produces the artifact for one solution and stores it.
func (s *ExportService) Render(data *domain.SchoolData, sol *domain.Solution, format ExportFormat) (*ExportResult, error) {
	if sol == nil || !sol.IsUsable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "solution is not renderable")
	}

	var raw []byte
	var err error
	switch format {
	case FormatPDF:
		raw, err = s.pdf.Render(data, sol)
	case FormatCSV:
		raw, err = s.csv.Render(sol)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s/timetable.%s", sol.ID, format)
	if _, err := s.store.Save(filename, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(sol.ID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.logger.Info("export_rendered", zap.String("solution_id", sol.ID), zap.String("format", string(format)))
	return &ExportResult{Token: token, Filename: filename, ExpiresAt: expiresAt}, nil
}

// Open validates a download token and opens the stored artifact.
func (s *ExportService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	return file, nil
}
