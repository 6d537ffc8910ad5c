package noske

import (
	"encoding/json"
)

// qList accepts the request.q echo both as a single string and as a list.
type qList []string

// UnmarshalJSON implements json.Unmarshaler.
func (q *qList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*q = qList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*q = list
	return nil
}
