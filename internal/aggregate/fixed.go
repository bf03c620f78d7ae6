package aggregate

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gagyebu/internal/core"
)

// GroupedFixedItems folds active versions into their groups. Groups are
// ordered by name using Korean collation; within a group income precedes
// expense and larger amounts come first.
func GroupedFixedItems(active []core.FixedItemVersion) []core.FixedGroup {
	idx := make(map[string]int)
	var groups []core.FixedGroup
	for _, v := range active {
		name := v.Group
		if name == "" {
			name = core.DefaultGroup
		}
		i, ok := idx[name]
		if !ok {
			i = len(groups)
			idx[name] = i
			groups = append(groups, core.FixedGroup{Name: name})
		}
		g := &groups[i]
		g.Items = append(g.Items, v)
		switch v.Kind {
		case core.Income:
			g.Income += v.Amount
		case core.Expense:
			g.Expense += v.Amount
		}
	}

	// collate.Collator is not safe for concurrent use, so each call owns one.
	col := collate.New(language.Korean)
	sort.SliceStable(groups, func(i, j int) bool {
		return col.CompareString(groups[i].Name, groups[j].Name) < 0
	})
	for i := range groups {
		items := groups[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			if items[a].Kind != items[b].Kind {
				return items[a].Kind == core.Income
			}
			return items[a].Amount > items[b].Amount
		})
	}
	if groups == nil {
		groups = []core.FixedGroup{}
	}
	return groups
}
