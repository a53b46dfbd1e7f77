package provider

import "encoding/json"

// Count is a usage counter decoded leniently: a value that is absent,
// non-numeric or not positive decodes as 0 instead of failing the body.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil || v <= 0 {
		*c = 0
		return nil
	}
	*c = Count(v)
	return nil
}

// Int returns the counter as a plain int.
func (c Count) Int() int {
	return int(c)
}
