package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"

	"github.com/crm-chatbot-api/server/pkg/metrics"
)

// InvalidJSONObservation is returned instead of an error for malformed input.
const InvalidJSONObservation = "Invalid JSON input"

const emptyValue = "(empty)"

// hiddenFields are internal CRM fields dropped from formatted output.
// Keys are compared case-insensitively.
var hiddenFields = map[string]struct{}{
	"id":         {},
	"ownerid":    {},
	"creatorid":  {},
	"editorid":   {},
	"tenantid":   {},
	"parentid":   {},
	"isdeleted":  {},
	"ispinned":   {},
	"isarchived": {},
	"rowversion": {},
	"pictureurl": {},
	"imageurl":   {},
	"avatarurl":  {},
	"logourl":    {},
	"thumbnail":  {},
}

// FormatJSON renders CRM JSON as indented bullet text. It implements
// tool.InvokableTool directly so the observation is plain text, not a JSON
// encoded string.
type FormatJSON struct{}

func NewFormatJSON() *FormatJSON {
	return &FormatJSON{}
}

func (f *FormatJSON) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolFormatJSON,
		Desc: "Format raw JSON data from a CRM tool into readable bullet point text. Internal identifiers and flags are removed. Use it on the data field of a CRM observation.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"json_input": {
				Type:     schema.String,
				Desc:     "The JSON document to format.",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun accepts {"json_input": "<json text>"} or {"json_input": <json>}.
func (f *FormatJSON) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	input, ok := extractInput(argumentsInJSON)
	if !ok {
		metrics.RecordToolCall(ToolFormatJSON, metrics.ToolResultError)
		return InvalidJSONObservation, nil
	}
	metrics.RecordToolCall(ToolFormatJSON, metrics.ToolResultOK)
	return Format(input), nil
}

func extractInput(args string) (string, bool) {
	if !gjson.Valid(args) {
		return "", false
	}
	v := gjson.Get(args, "json_input")
	if !v.Exists() {
		return "", false
	}
	raw := v.Raw
	if v.Type == gjson.String {
		raw = strings.TrimSpace(v.String())
	}
	if raw == "" || !gjson.Valid(raw) {
		return "", false
	}
	return raw, true
}

// Format renders a valid JSON document. Callers validate first.
func Format(raw string) string {
	var b strings.Builder
	writeValue(&b, gjson.Parse(raw), 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeValue(b *strings.Builder, v gjson.Result, depth int) {
	switch {
	case v.IsArray():
		writeArray(b, v, depth)
	case v.IsObject():
		writeObject(b, v, depth)
	default:
		fmt.Fprintf(b, "%s%s\n", indent(depth), scalar(v))
	}
}

func writeObject(b *strings.Builder, v gjson.Result, depth int) {
	wrote := false
	v.ForEach(func(key, val gjson.Result) bool {
		if hidden(key.String()) {
			return true
		}
		wrote = true
		if isComposite(val) && !isEmptyComposite(val) {
			fmt.Fprintf(b, "%s- %s:\n", indent(depth), key.String())
			writeValue(b, val, depth+1)
			return true
		}
		fmt.Fprintf(b, "%s- %s: %s\n", indent(depth), key.String(), scalar(val))
		return true
	})
	if !wrote {
		fmt.Fprintf(b, "%s%s\n", indent(depth), emptyValue)
	}
}

func writeArray(b *strings.Builder, v gjson.Result, depth int) {
	items := v.Array()
	if len(items) == 0 {
		fmt.Fprintf(b, "%s%s\n", indent(depth), emptyValue)
		return
	}
	for i, item := range items {
		if isComposite(item) && !isEmptyComposite(item) {
			fmt.Fprintf(b, "%s%d.\n", indent(depth), i+1)
			writeValue(b, item, depth+1)
			continue
		}
		fmt.Fprintf(b, "%s- %s\n", indent(depth), scalar(item))
	}
}

func scalar(v gjson.Result) string {
	switch {
	case isComposite(v):
		return emptyValue
	case v.Type == gjson.Null:
		return "null"
	case v.Type == gjson.String && strings.TrimSpace(v.String()) == "":
		return emptyValue
	default:
		return v.String()
	}
}

func isComposite(v gjson.Result) bool {
	return v.IsArray() || v.IsObject()
}

func isEmptyComposite(v gjson.Result) bool {
	if v.IsArray() {
		return len(v.Array()) == 0
	}
	empty := true
	v.ForEach(func(key, _ gjson.Result) bool {
		if hidden(key.String()) {
			return true
		}
		empty = false
		return false
	})
	return empty
}

func hidden(key string) bool {
	_, ok := hiddenFields[strings.ToLower(key)]
	return ok
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

var _ tool.InvokableTool = (*FormatJSON)(nil)
