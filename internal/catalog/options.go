package catalog

import "catalog-migrator/internal/domain"

// AggregateOptions groups option rows by option name. Attributes come out in
// the order their name first appears; each attribute lists the values of its
// rows in input order. Repeated values are kept as-is.
func AggregateOptions(rows []domain.OptionRow) []domain.Attribute {
	attributes := []domain.Attribute{}
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.Name]
		if !ok {
			i = len(attributes)
			index[row.Name] = i
			attributes = append(attributes, domain.Attribute{
				Name:      row.Name,
				Options:   []string{},
				Visible:   true,
				Variation: true,
			})
		}
		attributes[i].Options = append(attributes[i].Options, row.Value)
	}
	return attributes
}
