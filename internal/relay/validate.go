package relay

import (
	"encoding/json"
	"strings"
)

// Request is a chat request that passed validation.
type Request struct {
	UserID    string
	Query     string
	ProductID string
}

// Validate checks a raw inbound body. The UI historically sent snake_case keys,
// so both spellings are accepted. The query is kept exactly as sent.
func Validate(raw []byte) (Request, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return Request{}, validationError("invalid JSON body", map[string]string{
			"query":   fieldMissing,
			"user_id": fieldMissing,
		})
	}

	query, queryOK := stringField(body, "query")
	userID, userOK := stringField(body, "userId", "user_id")
	productID, _ := stringField(body, "productId", "product_id")

	if !queryOK || !userOK {
		return Request{}, validationError("missing required fields", map[string]string{
			"query":   fieldStatus(queryOK),
			"user_id": fieldStatus(userOK),
		})
	}
	return Request{
		UserID:    strings.TrimSpace(userID),
		Query:     query,
		ProductID: strings.TrimSpace(productID),
	}, nil
}

// stringField returns the first non-blank string value among keys.
func stringField(body map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := body[k].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

func fieldStatus(ok bool) string {
	if ok {
		return fieldOK
	}
	return fieldMissing
}
