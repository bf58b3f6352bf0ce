package merge

import (
	"strings"

	"switchrecon/internal/config"
	"switchrecon/internal/tabular"
	"switchrecon/pkg/contracts/domain"
)

// RecordBuilder maps the columns a primary file actually has onto
// SwitchRecord fields. Missing columns leave their field empty and are
// reported through Schema.
type RecordBuilder struct {
	folio  int
	broker int
	amount int
	in     int
	out    int
}

// NewRecordBuilder negotiates the schema of an upper-cased primary header
func NewRecordBuilder(columns []string) *RecordBuilder {
	index := func(name string) int {
		for i, c := range columns {
			if c == name {
				return i
			}
		}
		return -1
	}
	return &RecordBuilder{
		folio:  index(config.ColumnFolio),
		broker: index(config.ColumnBrokerCode),
		amount: index(config.ColumnAmount),
		in:     index(config.ColumnSwitchIn),
		out:    index(config.ColumnSwitchOut),
	}
}

// Schema reports which primary columns were found
func (b *RecordBuilder) Schema() domain.RecordSchema {
	return domain.RecordSchema{
		Folio:      b.folio >= 0,
		BrokerCode: b.broker >= 0,
		Amount:     b.amount >= 0,
		SwitchIn:   b.in >= 0,
		SwitchOut:  b.out >= 0,
	}
}

// Build projects one padded data row
func (b *RecordBuilder) Build(row []string) domain.SwitchRecord {
	rec := domain.SwitchRecord{
		Folio:      cell(row, b.folio),
		BrokerCode: cell(row, b.broker),
		SwitchIn:   cell(row, b.in),
		SwitchOut:  cell(row, b.out),
	}
	if b.amount >= 0 {
		rec.Amount = tabular.Decimal(cell(row, b.amount))
	}
	return rec
}

// Excluded reports whether the row belongs to the sentinel broker
func (b *RecordBuilder) Excluded(row []string) bool {
	return b.broker >= 0 && cell(row, b.broker) == config.ExcludedBrokerCode
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
