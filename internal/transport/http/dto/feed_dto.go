package dto

import "encoding/json"

// CardResponse is the public view of another user in feeds and match lists.
type CardResponse struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
	Image     string   `json:"image"`
}

type NullableString struct {
	Value *string
}

func StringOrNull(v string) NullableString {
	if v == "" {
		return NullableString{}
	}
	return NullableString{Value: &v}
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
