package gateway

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/permaloom/weavefeed/internal/domain/query"
)

// sortValues maps result ordering onto the gateway's GraphQL sort enum.
var sortValues = map[query.Order]string{
	query.NewestFirst: "HEIGHT_DESC",
	query.OldestFirst: "HEIGHT_ASC",
}

// buildTransactionQuery renders a query spec as GraphQL text. Rendering is
// deterministic: equal specs produce byte-identical queries, which keeps
// request logs and recorded fixtures stable.
func buildTransactionQuery(spec query.Spec) string {
	var b strings.Builder
	b.WriteString("query { transactions(")

	if filters := spec.Filters(); len(filters) > 0 {
		b.WriteString("tags: [")
		for i, f := range filters {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("{name: ")
			b.WriteString(quote(f.Name()))
			b.WriteString(", values: [")
			for j, v := range f.Values() {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(quote(v))
			}
			b.WriteString("]}")
		}
		b.WriteString("], ")
	}

	b.WriteString("first: ")
	b.WriteString(strconv.Itoa(spec.PageSize()))
	b.WriteString(", sort: ")
	b.WriteString(sortValues[spec.Order()])
	if cursor := spec.Cursor(); cursor != "" {
		b.WriteString(", after: ")
		b.WriteString(quote(cursor))
	}

	b.WriteString(") { pageInfo { hasNextPage } edges { cursor node { id owner { address } tags { name value } data { size type } block { height timestamp } } } } }")
	return b.String()
}

// quote renders s as a GraphQL string literal. JSON string escaping is a
// subset of the GraphQL grammar, so encoding/json does the work.
func quote(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}
