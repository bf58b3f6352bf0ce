// Package analytics groups flagged switch records into the distributor-wise
// summary tables exported next to the record sheet.
package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"switchrecon/pkg/contracts/domain"
)

// Summary sheet names
const (
	SheetTrailIncrease   = "Analytics"
	SheetSwitchingRate   = "Switching Rate Analytics"
	SheetDirectToRegular = "Direct to Regular Analytics"
)

// Summary column headers
const (
	HeaderARN           = "ARN"
	HeaderSwitchInName  = "Switch In Scheme Name"
	HeaderSwitchOutName = "Switch OUT Scheme Name"
	HeaderAmountSum     = "TRADES_AMOUNT(sum)"
	HeaderTrailCurrent  = "switch in TRAIL_1ST_YEAR (CURRENT)"
	HeaderTrailOutUpper = "switch OUT TRAIL_1ST_YEAR"
)

// Summary is one grouped table
type Summary struct {
	Sheet    string          `json:"sheet"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Columns  []string        `json:"columns"`
	Rows     [][]domain.Cell `json:"-"`
}

type aggKind int

const (
	aggSum aggKind = iota
	aggFirst
)

type keyColumn struct {
	header string
	value  func(*domain.SwitchRecord) string
}

type aggColumn struct {
	header string
	kind   aggKind
	value  func(*domain.SwitchRecord) domain.Cell
}

// Build returns every summary that applies to the schema, in sheet order.
// The switching-rate and direct-to-regular summaries need the folio column.
func Build(records []domain.SwitchRecord, schema domain.RecordSchema) []Summary {
	out := []Summary{TrailIncrease(records, schema)}
	if schema.Folio {
		out = append(out, SwitchingRate(records, schema), DirectToRegular(records, schema))
	}
	return out
}

// TrailIncrease summarises records whose switch-in trail rose since the
// previous month, per folio (when known), broker and switch-in fund.
func TrailIncrease(records []domain.SwitchRecord, schema domain.RecordSchema) Summary {
	var keys []keyColumn
	if schema.Folio {
		keys = append(keys, folioKey)
	}
	keys = append(keys, brokerKey, switchInKey)

	var aggs []aggColumn
	if schema.Amount {
		aggs = append(aggs, amountSum)
	}
	aggs = append(aggs,
		firstOf(HeaderTrailCurrent, domain.HeaderTrailIn),
		firstOf(domain.HeaderTrailInPrev, domain.HeaderTrailInPrev),
	)
	aggs = append(aggs, payoutSums(schema)...)
	aggs = append(aggs, schemeTypes...)

	return Summary{
		Sheet:    SheetTrailIncrease,
		Title:    "Distributor wise Analytics",
		Subtitle: domain.HeaderTrailIncrease,
		Columns:  headers(keys, aggs),
		Rows: group(records, func(r *domain.SwitchRecord) bool {
			return r.TrailIncrease.IsSet()
		}, keys, aggs),
	}
}

// SwitchingRate summarises records switching into a fund with a higher
// trail than the fund switched out of.
func SwitchingRate(records []domain.SwitchRecord, schema domain.RecordSchema) Summary {
	keys := []keyColumn{folioKey, brokerKey, switchInKey, switchOutKey}

	var aggs []aggColumn
	if schema.Amount {
		aggs = append(aggs, amountSum)
	}
	aggs = append(aggs,
		firstOf(domain.HeaderTrailIn, domain.HeaderTrailIn),
		firstOf(HeaderTrailOutUpper, domain.HeaderTrailOut),
		firstOf(domain.HeaderSwitchingRate, domain.HeaderSwitchingRate),
	)
	aggs = append(aggs, payoutSums(schema)...)
	aggs = append(aggs, schemeTypes...)

	return Summary{
		Sheet:    SheetSwitchingRate,
		Title:    "Switching Rate Analytics",
		Subtitle: "switch in TRAIL_1ST_YEAR > switch out TRAIL_1ST_YEAR",
		Columns:  headers(keys, aggs),
		Rows: group(records, func(r *domain.SwitchRecord) bool {
			return r.SwitchingRateCheck.IsSet()
		}, keys, aggs),
	}
}

// DirectToRegular summarises direct-to-regular switches
func DirectToRegular(records []domain.SwitchRecord, schema domain.RecordSchema) Summary {
	keys := []keyColumn{folioKey, brokerKey, switchInKey, switchOutKey}

	var aggs []aggColumn
	if schema.Amount {
		aggs = append(aggs, amountSum)
	}
	aggs = append(aggs, payoutSums(schema)...)
	aggs = append(aggs, schemeTypes...)

	return Summary{
		Sheet:    SheetDirectToRegular,
		Title:    "Distributor wise Analytics",
		Subtitle: "Direct to Regular",
		Columns:  headers(keys, aggs),
		Rows: group(records, func(r *domain.SwitchRecord) bool {
			return r.DirectToRegular.IsSet()
		}, keys, aggs),
	}
}

var (
	folioKey     = keyColumn{domain.HeaderFolio, func(r *domain.SwitchRecord) string { return r.Folio }}
	brokerKey    = keyColumn{HeaderARN, func(r *domain.SwitchRecord) string { return r.BrokerCode }}
	switchInKey  = keyColumn{HeaderSwitchInName, func(r *domain.SwitchRecord) string { return r.SwitchIn }}
	switchOutKey = keyColumn{HeaderSwitchOutName, func(r *domain.SwitchRecord) string { return r.SwitchOut }}

	amountSum = aggColumn{HeaderAmountSum, aggSum, func(r *domain.SwitchRecord) domain.Cell {
		return domain.NumberCell(r.Amount)
	}}

	schemeTypes = []aggColumn{
		firstOf(domain.HeaderSchemeTypeIn, domain.HeaderSchemeTypeIn),
		firstOf(domain.HeaderSchemeTypeOut, domain.HeaderSchemeTypeOut),
	}
)

func firstOf(header, source string) aggColumn {
	return aggColumn{header, aggFirst, func(r *domain.SwitchRecord) domain.Cell {
		return r.Cell(source)
	}}
}

func payoutSums(schema domain.RecordSchema) []aggColumn {
	out := make([]aggColumn, 0, len(schema.PayoutLabels))
	for _, label := range schema.PayoutLabels {
		header := domain.PayoutPrefix + label
		out = append(out, aggColumn{header, aggSum, func(r *domain.SwitchRecord) domain.Cell {
			return r.Cell(header)
		}})
	}
	return out
}

func headers(keys []keyColumn, aggs []aggColumn) []string {
	out := make([]string, 0, len(keys)+len(aggs))
	for _, k := range keys {
		out = append(out, k.header)
	}
	for _, a := range aggs {
		out = append(out, a.header)
	}
	return out
}

type bucket struct {
	key   []string
	sums  []decimal.Decimal
	first []domain.Cell
}

// group filters records and aggregates them per distinct key tuple. Records
// with any blank key are left out. Groups are ordered by key, compared
// column by column.
func group(records []domain.SwitchRecord, keep func(*domain.SwitchRecord) bool, keys []keyColumn, aggs []aggColumn) [][]domain.Cell {
	buckets := make(map[string]*bucket)
	var order []*bucket

	for i := range records {
		r := &records[i]
		if !keep(r) {
			continue
		}

		key := make([]string, len(keys))
		blank := false
		for k, col := range keys {
			key[k] = strings.TrimSpace(col.value(r))
			if key[k] == "" {
				blank = true
				break
			}
		}
		if blank {
			continue
		}

		id := strings.Join(key, "\x00")
		b, ok := buckets[id]
		if !ok {
			b = &bucket{
				key:   key,
				sums:  make([]decimal.Decimal, len(aggs)),
				first: make([]domain.Cell, len(aggs)),
			}
			buckets[id] = b
			order = append(order, b)
		}

		for a, col := range aggs {
			cell := col.value(r)
			switch col.kind {
			case aggSum:
				if cell.Number.Valid {
					b.sums[a] = b.sums[a].Add(cell.Number.Decimal)
				}
			case aggFirst:
				if b.first[a].Empty() && !cell.Empty() {
					b.first[a] = cell
				}
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return lessKey(order[i].key, order[j].key)
	})

	rows := make([][]domain.Cell, 0, len(order))
	for _, b := range order {
		row := make([]domain.Cell, 0, len(keys)+len(aggs))
		for _, k := range b.key {
			row = append(row, domain.TextCell(k))
		}
		for a, col := range aggs {
			if col.kind == aggSum {
				row = append(row, domain.NumberCell(decimal.NewNullDecimal(b.sums[a])))
			} else {
				row = append(row, b.first[a])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func lessKey(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
