package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// Aggregation is the derived view over one fetched expense slice.
// Total always equals the sum of ByCategory and of the slice amounts.
type Aggregation struct {
	Total      Money
	Count      int
	ByCategory []CategoryAmount
}

// Aggregate sums the slice. Categories appear in order of first occurrence.
func Aggregate(expenses []Expense) Aggregation {
	agg := Aggregation{ByCategory: []CategoryAmount{}}
	index := make(map[Category]int)
	for _, e := range expenses {
		agg.Total = agg.Total.Add(e.Amount)
		agg.Count++
		i, ok := index[e.Category]
		if !ok {
			i = len(agg.ByCategory)
			index[e.Category] = i
			agg.ByCategory = append(agg.ByCategory, CategoryAmount{Category: e.Category})
		}
		agg.ByCategory[i].Amount = agg.ByCategory[i].Amount.Add(e.Amount)
	}
	return agg
}

// Empty reports whether there is nothing to chart.
func (a Aggregation) Empty() bool {
	return len(a.ByCategory) == 0
}
