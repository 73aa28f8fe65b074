// Package companies loads the ordered list of target companies from a
// spreadsheet.
package companies

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/util"
)

var ErrNoTargets = errors.New("company list has no usable rows")

// Source supplies targets in sheet order. A missing or unreadable file is
// an error; individual malformed rows are skipped.
type Source interface {
	Load(ctx context.Context) ([]domain.CompanyTarget, error)
}

// Open picks a reader by file extension.
func Open(path, sheet string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVSource{Path: path}, nil
	case ".xlsx", ".xlsm":
		return XLSXSource{Path: path, Sheet: sheet}, nil
	default:
		return nil, fmt.Errorf("unsupported company list %q (want .csv or .xlsx)", path)
	}
}

type column int

const (
	colName column = iota
	colCountry
	colURL
	colKind
)

var headerNames = map[string]column{
	"company":      colName,
	"company name": colName,
	"name":         colName,
	"country":      colCountry,
	"url":          colURL,
	"site":         colURL,
	"site url":     colURL,
	"careers url":  colURL,
	"career url":   colURL,
	"careers page": colURL,
	"website":      colURL,
	"kind":         colKind,
	"site kind":    colKind,
	"ats":          colKind,
	"type":         colKind,
}

type layout map[column]int

var positional = layout{colName: 0, colCountry: 1, colURL: 2, colKind: 3}

// detectHeader reports the column layout if row looks like a header.
func detectHeader(row []string) (layout, bool) {
	l := layout{}
	for i, cell := range row {
		key := strings.ToLower(util.CleanText(strings.ReplaceAll(cell, "_", " ")))
		if c, ok := headerNames[key]; ok {
			if _, seen := l[c]; !seen {
				l[c] = i
			}
		}
	}
	_, hasName := l[colName]
	_, hasURL := l[colURL]
	return l, hasName && hasURL
}

func (l layout) cell(row []string, c column) string {
	i, ok := l[c]
	if !ok || i >= len(row) {
		return ""
	}
	return util.CleanText(row[i])
}

// targetsFromRows turns raw sheet rows into targets. origin is used in log
// lines only.
func targetsFromRows(rows [][]string, origin string) ([]domain.CompanyTarget, error) {
	var (
		out     []domain.CompanyTarget
		l       = positional
		started bool
		skipped int
	)

	for i, row := range rows {
		if blank(row) {
			continue
		}
		if !started {
			started = true
			if hl, ok := detectHeader(row); ok {
				l = hl
				continue
			}
		}

		t := domain.CompanyTarget{
			Name:     l.cell(row, colName),
			Country:  util.CanonicalCountry(l.cell(row, colCountry)),
			SiteURL:  l.cell(row, colURL),
			SiteKind: domain.ParseSiteKind(l.cell(row, colKind)),
		}
		if t.Name == "" {
			log.Printf("[companies] %s row %d: missing company name; skipped", origin, i+1)
			skipped++
			continue
		}
		if _, ok := util.ValidSiteURL(t.SiteURL); !ok {
			log.Printf("[companies] %s row %d company=%q: invalid site url %q; skipped", origin, i+1, t.Name, t.SiteURL)
			skipped++
			continue
		}
		out = append(out, t)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w (%d rows skipped)", origin, ErrNoTargets, skipped)
	}
	log.Printf("[companies] loaded %d targets from %s (skipped=%d)", len(out), origin, skipped)
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
