package domain

import "fmt"

// MaxFilterValues is the maximum number of values per tag filter.
const MaxFilterValues = 32

// Tag is a name/value pair attached to a transaction, used as a filterable index key.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TagFilter matches transactions carrying a tag with any of the given values.
type TagFilter struct {
	name   string
	values []string
}

// NewTagFilter validates and creates a TagFilter.
// The name must be non-empty and at least one non-empty value is required.
func NewTagFilter(name string, values ...string) (TagFilter, error) {
	if name == "" {
		return TagFilter{}, fmt.Errorf("%w: filter name is required", ErrInvalidArgument)
	}
	if len(values) == 0 {
		return TagFilter{}, fmt.Errorf("%w: filter %q needs at least one value", ErrInvalidArgument, name)
	}
	if len(values) > MaxFilterValues {
		return TagFilter{}, fmt.Errorf(
			"%w: filter %q has too many values (max %d)", ErrInvalidArgument, name, MaxFilterValues,
		)
	}
	for _, v := range values {
		if v == "" {
			return TagFilter{}, fmt.Errorf("%w: filter %q has an empty value", ErrInvalidArgument, name)
		}
	}
	return TagFilter{name: name, values: cloneStrings(values)}, nil
}

// Name returns the tag name to match.
func (f TagFilter) Name() string { return f.name }

// Values returns the accepted values, in match order.
func (f TagFilter) Values() []string { return f.values }

func cloneStrings(s []string) []string {
	c := make([]string, len(s))
	copy(c, s)
	return c
}
