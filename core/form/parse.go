package form

import (
	"net/url"
	"strconv"
	"strings"
)

const dateLayout = "2006-01-02"

// Parse coerces posted form values to the Go type of each field:
// integer -> int, price & height -> float64, checkbox -> bool, multi-select -> []string,
// date-range -> []string{from, to} (posted as `<name>_from` and `<name>_to`).
// Blank optional inputs become nil; unparsable numbers are kept as strings for validation to reject.
func Parse(fields []FieldConfig, data url.Values) Values {
	values := make(Values, len(fields))
	for _, fld := range fields {
		switch fld.Type {
		case Checkbox:
			v := strings.ToLower(data.Get(fld.Name))
			values[fld.Name] = v == "on" || v == "true" || v == "1"
		case MultiSelect:
			list := make([]string, 0, len(data[fld.Name]))
			for _, v := range data[fld.Name] {
				if v = strings.TrimSpace(v); v != "" {
					list = append(list, v)
				}
			}
			values[fld.Name] = list
		case DateRange:
			from := strings.TrimSpace(data.Get(fld.Name + "_from"))
			to := strings.TrimSpace(data.Get(fld.Name + "_to"))
			if from == "" && to == "" {
				values[fld.Name] = []string{}
			} else {
				values[fld.Name] = []string{from, to}
			}
		default:
			if _, posted := data[fld.Name]; !posted {
				continue
			}
			values[fld.Name] = parseScalar(fld.Type, data.Get(fld.Name))
		}
	}
	return values
}

func parseScalar(typ FieldType, raw string) interface{} {
	raw = strings.TrimSpace(raw)
	switch typ {
	case Text, Textarea, Password:
		return raw
	}
	if raw == "" {
		return nil
	}
	switch typ {
	case Integer:
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	case Price, Height:
		if n, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64); err == nil {
			return n
		}
	}
	return raw
}
