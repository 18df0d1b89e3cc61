// Package members reads and updates member records held in the external
// members table.
package members

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Member is a record of the external members table.
type Member struct {
	MemberID  string `json:"member_id"`
	Name      string `json:"name"`
	Password  string `json:"password,omitempty"`  // stored value, plaintext or bcrypt hash; never sent to clients
	Clearance *int   `json:"clearance,omitempty"` // nil when the record carries no clearance
}

// Public returns a copy without the stored password.
func (m Member) Public() Member {
	m.Password = ""
	return m
}

// UnmarshalJSON accepts numeric or string member ids and clearance values.
// A clearance that is null, missing or not a number decodes to nil.
func (m *Member) UnmarshalJSON(data []byte) error {
	var raw struct {
		MemberID  json.RawMessage `json:"member_id"`
		Name      string          `json:"name"`
		Password  string          `json:"password"`
		Clearance json.RawMessage `json:"clearance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := scalarText(raw.MemberID)
	if err != nil {
		return err
	}
	*m = Member{
		MemberID:  id,
		Name:      raw.Name,
		Password:  raw.Password,
		Clearance: parseClearance(raw.Clearance),
	}
	return nil
}

func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func parseClearance(raw json.RawMessage) *int {
	text, err := scalarText(raw)
	if err != nil || text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	level := int(f)
	return &level
}
