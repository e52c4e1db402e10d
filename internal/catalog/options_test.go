package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-migrator/internal/domain"
)

func TestAggregateOptions_FirstSeenOrder(t *testing.T) {
	rows := []domain.OptionRow{
		{Name: "A", Value: "a1"},
		{Name: "B", Value: "b1"},
		{Name: "A", Value: "a2"},
	}

	attrs := AggregateOptions(rows)

	assert.Equal(t, []domain.Attribute{
		{Name: "A", Options: []string{"a1", "a2"}, Visible: true, Variation: true},
		{Name: "B", Options: []string{"b1"}, Visible: true, Variation: true},
	}, attrs)
}

// Join fan-out in the source can repeat a name/value pair; the value is
// listed once per row.
func TestAggregateOptions_KeepsDuplicateValues(t *testing.T) {
	rows := []domain.OptionRow{
		{Name: "Size", Value: "M"},
		{Name: "Size", Value: "M"},
		{Name: "Size", Value: "L"},
	}

	attrs := AggregateOptions(rows)

	assert.Len(t, attrs, 1)
	assert.Equal(t, []string{"M", "M", "L"}, attrs[0].Options)
}

func TestAggregateOptions_Empty(t *testing.T) {
	attrs := AggregateOptions(nil)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)
}
