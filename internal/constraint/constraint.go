// Package constraint renders and compares attribute values according to their constraint.
package constraint

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"lumeer-engine/internal/domain"
)

var folder = cases.Fold()

// Fold returns the case-folded form of s for case-insensitive comparison.
func Fold(s string) string {
	return folder.String(s)
}

// Format renders a stored value the way it is displayed to users. A nil constraint renders
// the raw value as text.
func Format(c *domain.Constraint, value any, data domain.ConstraintData) string {
	if IsEmpty(value) {
		return ""
	}
	if c == nil {
		return plain(value)
	}

	switch c.Type {
	case domain.ConstraintNumber:
		n, ok := toNumber(value)
		if !ok {
			return plain(value)
		}
		return formatNumber(n, c.Config.Decimals)
	case domain.ConstraintPercentage:
		n, ok := toNumber(value)
		if !ok {
			return plain(value)
		}
		return formatNumber(n*100, c.Config.Decimals) + "%"
	case domain.ConstraintBoolean:
		if toBool(value) {
			return "true"
		}
		return "false"
	case domain.ConstraintDateTime:
		t, ok := toTime(value)
		if !ok {
			return plain(value)
		}
		if loc, err := time.LoadLocation(data.Timezone); err == nil && data.Timezone != "" {
			t = t.In(loc)
		}
		layout := c.Config.Format
		if layout == "" {
			layout = "2006-01-02 15:04"
		}
		return t.Format(layout)
	case domain.ConstraintSelect:
		return joinValues(value, func(v string) string {
			for _, option := range c.Config.Options {
				if option.Value == v {
					if c.Config.DisplayValues && option.DisplayValue != "" {
						return option.DisplayValue
					}
					return option.Value
				}
			}
			return v
		})
	case domain.ConstraintUser:
		return joinValues(value, func(email string) string {
			for _, user := range data.Users {
				if strings.EqualFold(user.Email, email) && user.Name != "" {
					return user.Name
				}
			}
			return email
		})
	case domain.ConstraintLink:
		// stored as "url [title]"
		s := plain(value)
		if i := strings.Index(s, " ["); i > 0 && strings.HasSuffix(s, "]") {
			return s[i+2 : len(s)-1]
		}
		return s
	default:
		return plain(value)
	}
}

// IsEmpty reports whether a value counts as blank for editing and filtering.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

// Equal compares two stored values; numbers compare numerically so that 1 and "1" and 1.0
// count as the same value.
func Equal(c *domain.Constraint, a, b any) bool {
	if IsEmpty(a) && IsEmpty(b) {
		return true
	}
	if IsEmpty(a) != IsEmpty(b) {
		return false
	}
	if c != nil && (c.Type == domain.ConstraintNumber || c.Type == domain.ConstraintPercentage) {
		na, okA := toNumber(a)
		nb, okB := toNumber(b)
		if okA && okB {
			return na == nb
		}
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	return plain(a) == plain(b)
}

// Compare orders two stored values for display sorting. Empty values sort first.
func Compare(c *domain.Constraint, a, b any, data domain.ConstraintData) int {
	emptyA, emptyB := IsEmpty(a), IsEmpty(b)
	switch {
	case emptyA && emptyB:
		return 0
	case emptyA:
		return -1
	case emptyB:
		return 1
	}

	if c != nil {
		switch c.Type {
		case domain.ConstraintNumber, domain.ConstraintPercentage:
			na, okA := toNumber(a)
			nb, okB := toNumber(b)
			if okA && okB {
				return compareFloat(na, nb)
			}
		case domain.ConstraintDateTime:
			ta, okA := toTime(a)
			tb, okB := toTime(b)
			if okA && okB {
				return ta.Compare(tb)
			}
		case domain.ConstraintBoolean:
			ba, bb := toBool(a), toBool(b)
			if ba == bb {
				return 0
			}
			if !ba {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(Fold(Format(c, a, data)), Fold(Format(c, b, data)))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func plain(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, plain(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func joinValues(value any, mapper func(string) string) string {
	var values []string
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			values = append(values, plain(item))
		}
	case []string:
		values = v
	default:
		values = []string{plain(v)}
	}
	rendered := make([]string, 0, len(values))
	for _, v := range values {
		rendered = append(rendered, mapper(v))
	}
	return strings.Join(rendered, ", ")
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", ".")), 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func formatNumber(n float64, decimals *int) string {
	if decimals == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', *decimals, 64)
}

func toBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	n, ok := toNumber(value)
	return ok && n != 0
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	case float64:
		return time.UnixMilli(int64(v)).UTC(), true
	case int64:
		return time.UnixMilli(v).UTC(), true
	}
	return time.Time{}, false
}
