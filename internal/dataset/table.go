package dataset

import (
	"time"

	"bikepulse/pkg/contracts/domain"
)

// Table is an immutable, loaded dataset. It is safe for concurrent readers.
type Table struct {
	records  []domain.RentalRecord
	minDate  time.Time
	maxDate  time.Time
	source   string
	loadedAt time.Time
}

// NewTable builds a table from already parsed records, in their given order.
// The slice is copied.
func NewTable(source string, records []domain.RentalRecord) *Table {
	t := &Table{
		records:  append([]domain.RentalRecord(nil), records...),
		source:   source,
		loadedAt: time.Now(),
	}
	for i, r := range t.records {
		d := r.Day()
		if i == 0 || d.Before(t.minDate) {
			t.minDate = d
		}
		if i == 0 || d.After(t.maxDate) {
			t.maxDate = d
		}
	}
	return t
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of all records in file order.
func (t *Table) Records() []domain.RentalRecord {
	return append([]domain.RentalRecord(nil), t.records...)
}

// View returns the records without copying. Callers must not modify it.
func (t *Table) View() []domain.RentalRecord { return t.records }

// MinDate is the earliest record date, or the zero time for an empty table.
func (t *Table) MinDate() time.Time { return t.minDate }

// MaxDate is the latest record date, or the zero time for an empty table.
func (t *Table) MaxDate() time.Time { return t.maxDate }

// Source is the path the table was loaded from.
func (t *Table) Source() string { return t.source }

// LoadedAt is when the table was built.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }

// Bounds returns the user-control bounds for this table.
func (t *Table) Bounds() domain.Bounds {
	b := domain.Bounds{Hours: domain.FullDay, Records: len(t.records)}
	if len(t.records) > 0 {
		b.MinDate = t.minDate.Format(domain.DateLayout)
		b.MaxDate = t.maxDate.Format(domain.DateLayout)
	}
	return b
}
