package tools

import (
	"bytes"
	"encoding/json"
	"strings"
)

// argumentAliases maps spellings models commonly produce onto the declared
// parameter names.
var argumentAliases = map[string]map[string]string{
	ToolGetCards: {
		"ownerId": "owner_id",
		"OwnerId": "owner_id",
		"ownerID": "owner_id",
		"owner":   "owner_id",
	},
	ToolGetContactDetail: {"Id": "id", "ID": "id", "contact_id": "id", "contactId": "id"},
	ToolGetDealDetail:    {"Id": "id", "ID": "id", "deal_id": "id", "dealId": "id"},
	ToolFormatJSON:       {"json": "json_input", "input": "json_input", "data": "json_input"},
}

// stringArguments are parameters that must reach the tool as trimmed strings.
var stringArguments = map[string]struct{}{
	"prompt":   {},
	"query":    {},
	"owner_id": {},
	"id":       {},
}

// SanitizeArguments normalises tool call arguments before execution. It
// never fails; arguments that are not a JSON object are returned unchanged.
// Only renamed keys and string parameters are rewritten; every other value
// is passed through as raw JSON.
func SanitizeArguments(name, arguments string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arguments), &m); err != nil || m == nil {
		return arguments
	}

	for from, to := range argumentAliases[name] {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
		}
	}

	for key, raw := range m {
		if _, ok := stringArguments[key]; !ok {
			continue
		}
		s, keep := stringArgument(raw)
		if !keep {
			delete(m, key)
			continue
		}
		b, err := marshalNoEscape(s)
		if err != nil {
			return arguments
		}
		m[key] = b
	}

	b, err := marshalNoEscape(m)
	if err != nil {
		return arguments
	}
	return string(b)
}

// stringArgument converts a raw value to a trimmed string. Numbers keep
// their literal digits. Null reports false.
func stringArgument(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return strings.TrimSpace(string(raw)), true
	}
	switch vv := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(vv), true
	case json.Number:
		return vv.String(), true
	default:
		return strings.TrimSpace(string(raw)), true
	}
}

// marshalNoEscape encodes v without HTML escaping so raw values keep their bytes.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
