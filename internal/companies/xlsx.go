package companies

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"jobalert-engine/internal/domain"
)

// XLSXSource reads one worksheet; an empty Sheet means the first one.
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) Load(ctx context.Context) ([]domain.CompanyTarget, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open company list: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", s.Path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, s.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return targetsFromRows(rows, s.Path+"#"+sheet)
}
