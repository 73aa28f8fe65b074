package companies

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"jobalert-engine/internal/domain"
)

type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) ([]domain.CompanyTarget, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open company list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read company list %s: %w", s.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return targetsFromRows(rows, s.Path)
}
