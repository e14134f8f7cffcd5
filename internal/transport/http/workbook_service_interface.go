package http

import (
	"context"
	"io"

	"sheetpulse/pkg/contracts/domain"
)

// WorkbookServiceInterface defines the workbook operations the handlers use
type WorkbookServiceInterface interface {
	Load(ctx context.Context, filename string, data []byte) (domain.UploadInfo, error)
	Import(ctx context.Context, spreadsheetID string) (domain.UploadInfo, error)
	Status() (domain.UploadInfo, error)
	Workbook() (*domain.Workbook, error)
	Sheet(name string) (*domain.Sheet, error)

	Dashboard(ctx context.Context, sheet string) (domain.Dashboard, error)
	Roles(sheet string) (string, domain.ColumnRoleMap, error)
	Table(sheet string, q domain.TableQuery) (*domain.TableView, error)
	Export(ctx context.Context, w io.Writer, sheet string, q domain.TableQuery, format domain.ExportFormat) (string, error)
}
