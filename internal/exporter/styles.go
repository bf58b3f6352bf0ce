package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// numberFormat renders amounts and trail rates with thousands separators
const numberFormat = "#,##0.00"

// Fill colours
const (
	colorHeader       = "2C3E50"
	colorHighlight    = "4F81BD"
	colorCategoryDiff = "FFD700"
	colorTitle        = "4472C4"
	colorSubtitle     = "D9E1F2"
	colorTableHeader  = "2F3E5C"
	colorWhite        = "FFFFFF"
)

// maxColumnWidth caps auto-sized columns
const maxColumnWidth = 40

// styles holds the style IDs registered on one workbook
type styles struct {
	header          int
	text            int
	number          int
	highlightText   int
	highlightNumber int
	categoryDiff    int

	title       int
	subtitle    int
	tableHeader int

	label int
}

func newStyles(f *excelize.File) (*styles, error) {
	numFmt := numberFormat
	thin := []excelize.Border{
		{Type: "left", Color: "D0D0D0", Style: 1},
		{Type: "right", Color: "D0D0D0", Style: 1},
		{Type: "top", Color: "D0D0D0", Style: 1},
		{Type: "bottom", Color: "D0D0D0", Style: 1},
	}
	solid := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}
	centered := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	s := &styles{}
	var err error
	register := func(dst *int, style *excelize.Style) {
		if err != nil {
			return
		}
		if *dst, err = f.NewStyle(style); err != nil {
			err = fmt.Errorf("failed to register workbook style: %w", err)
		}
	}

	register(&s.header, &excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorWhite},
		Fill:      solid(colorHeader),
		Alignment: centered,
		Border:    thin,
	})
	register(&s.text, &excelize.Style{Border: thin})
	register(&s.number, &excelize.Style{Border: thin, CustomNumFmt: &numFmt})
	register(&s.highlightText, &excelize.Style{
		Font:   &excelize.Font{Color: colorWhite},
		Fill:   solid(colorHighlight),
		Border: thin,
	})
	register(&s.highlightNumber, &excelize.Style{
		Font:         &excelize.Font{Color: colorWhite},
		Fill:         solid(colorHighlight),
		Border:       thin,
		CustomNumFmt: &numFmt,
	})
	register(&s.categoryDiff, &excelize.Style{Fill: solid(colorCategoryDiff), Border: thin})
	register(&s.title, &excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 20, Color: colorWhite},
		Fill:      solid(colorTitle),
		Alignment: centered,
	})
	register(&s.subtitle, &excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: colorTitle},
		Fill:      solid(colorSubtitle),
		Alignment: centered,
	})
	register(&s.tableHeader, &excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorWhite},
		Fill:      solid(colorTableHeader),
		Alignment: centered,
		Border:    thin,
	})
	register(&s.label, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: thin})

	if err != nil {
		return nil, err
	}
	return s, nil
}
