package usecase

import "encoding/json"

// outbox行に積むテンプレート値。mapのMarshalは失敗しない。
func mustPlaceholders(values map[string]string) string {
	b, _ := json.Marshal(values)
	return string(b)
}
