package form

import (
	"fmt"
	"net/url"
	"strconv"
)

// Mirror returns the posted values Parse turns back into the control's value.
// Browsers do not post disabled inputs, so disabled controls are rendered along with hidden copies.
func (c Control) Mirror() url.Values {
	out := make(url.Values)
	switch c.Type {
	case Checkbox:
		if on, ok := c.Value.(bool); ok && on {
			out.Set(c.Name, "true")
		}
	case MultiSelect:
		if list, ok := c.Value.([]string); ok && len(list) > 0 {
			out[c.Name] = append([]string(nil), list...)
		}
	case DateRange:
		if list, ok := c.Value.([]string); ok && len(list) == 2 {
			out.Set(c.Name+"_from", list[0])
			out.Set(c.Name+"_to", list[1])
		}
	default:
		if c.Value != nil {
			out.Set(c.Name, formatScalar(c.Value))
		}
	}
	return out
}

func formatScalar(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
