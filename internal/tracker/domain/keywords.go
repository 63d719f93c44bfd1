package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// KeywordList stores free-text interest keywords as a JSON text column.
type KeywordList []string

func (k KeywordList) Value() (driver.Value, error) {
	if k == nil {
		k = KeywordList{}
	}
	b, err := json.Marshal(k)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (k *KeywordList) Scan(value interface{}) error {
	if value == nil {
		*k = KeywordList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, k)
	case string:
		return json.Unmarshal([]byte(v), k)
	default:
		return errors.New("unsupported keyword list column type")
	}
}
