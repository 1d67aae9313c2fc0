package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Cell is one raw entry of a layout row as it was authored: either a JSON
// integer (legacy bare button id) or a JSON string ("category_7").
type Cell struct {
	text     string
	number   int64
	isNumber bool
}

// Key identifies a ReferenceMap entry. Integer and string cells live in
// separate key spaces, so 5 and "5" are different keys.
type Key struct {
	text     string
	number   int64
	isNumber bool
}

func Int(n int64) Cell     { return Cell{number: n, isNumber: true} }
func String(s string) Cell { return Cell{text: s} }

func IntKey(n int64) Key     { return Key{number: n, isNumber: true} }
func StringKey(s string) Key { return Key{text: s} }

func (c Cell) IsNumber() bool { return c.isNumber }

func (c Cell) Key() Key {
	return Key{text: c.text, number: c.number, isNumber: c.isNumber}
}

func (c Cell) String() string {
	if c.isNumber {
		return strconv.FormatInt(c.number, 10)
	}
	return c.text
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.isNumber {
		return []byte(strconv.FormatInt(c.number, 10)), nil
	}
	return json.Marshal(c.text)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	cell, err := decodeCell(data)
	if err != nil {
		return err
	}
	*c = cell
	return nil
}

var errCellType = errors.New(MsgInvalidCellType)

func decodeCell(data []byte) (Cell, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Cell{}, errCellType
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Cell{}, err
		}
		return String(s), nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return Cell{}, errCellType
		}
		return Int(n), nil
	default:
		return Cell{}, errCellType
	}
}
