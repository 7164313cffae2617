package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/crm-chatbot-api/server/internal/agent/model"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
	"github.com/crm-chatbot-api/server/pkg/metrics"
)

// Payload is the observation returned by every CRM tool. Data holds the raw
// CRM response; Prompt restates what was requested. On failure Error is set
// and Data is omitted, so the model can explain what went wrong.
type Payload struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Prompt string          `json:"prompt"`
	Error  string          `json:"error,omitempty"`
}

type ListInput struct {
	Prompt string `json:"prompt"`
}

type SearchInput struct {
	Query string `json:"query"`
}

type CardsInput struct {
	OwnerID string `json:"owner_id"`
}

type DetailInput struct {
	ID string `json:"id"`
}

type listSpec struct {
	name   string
	entity model.Entity
	desc   string
	prompt string
}

type searchSpec struct {
	name   string
	entity model.Entity
	noun   string
}

var listSpecs = []listSpec{
	{ToolListUsers, model.EntityUser, "Fetch the list of all users in the CRM system. Users own cards, deals and activities.", "List all users"},
	{ToolListProducts, model.EntityProduct, "Fetch the list of all products in the CRM system.", "List all products"},
	{ToolListProductCategories, model.EntityProductCategory, "Fetch the list of all product categories in the CRM system.", "List all product categories"},
	{ToolListPipelines, model.EntityPipeline, "Fetch the list of all deal pipelines (کاریز) and their stages in the CRM system.", "List all pipelines"},
	{ToolListActivityTypes, model.EntityActivityType, "Fetch the list of all activity types in the CRM system.", "List all activity types"},
}

var searchSpecs = []searchSpec{
	{ToolSearchProduct, model.EntityProduct, "product"},
	{ToolSearchAttachment, model.EntityAttachment, "attachment"},
	{ToolSearchCase, model.EntityCase, "case"},
	{ToolSearchCompany, model.EntityCompany, "company"},
	{ToolSearchContact, model.EntityContact, "contact"},
	{ToolSearchDeal, model.EntityDeal, "deal"},
}

// NewCRMTools builds the CRM-backed tools in registration order.
func NewCRMTools(ds model.CRMDataSource) []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(listSpecs)+len(searchSpecs)+3)
	for _, s := range listSpecs {
		out = append(out, newListTool(ds, s))
	}
	for _, s := range searchSpecs {
		out = append(out, newSearchTool(ds, s))
	}
	return append(out,
		newCardsTool(ds),
		newDetailTool(ds, ToolGetContactDetail, model.EntityContact, "contact", ToolSearchContact),
		newDetailTool(ds, ToolGetDealDetail, model.EntityDeal, "deal", ToolSearchDeal),
	)
}

func newListTool(ds model.CRMDataSource, s listSpec) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: s.name,
			Desc: s.desc + " Returns JSON that must be formatted before it is used as an answer.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"prompt": {
					Type: schema.String,
					Desc: "The user's request that led to this call, in their own words.",
				},
			}),
		},
		func(ctx context.Context, in *ListInput) (*Payload, error) {
			prompt := s.prompt
			if in != nil && strings.TrimSpace(in.Prompt) != "" {
				prompt = strings.TrimSpace(in.Prompt)
			}
			return observe(s.name, prompt, func() (json.RawMessage, error) {
				return ds.List(ctx, s.entity)
			}), nil
		},
	)
}

func newSearchTool(ds model.CRMDataSource, s searchSpec) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: s.name,
			Desc: fmt.Sprintf("Search %ss in the CRM system by keyword. Returns JSON that must be formatted before it is used as an answer.", s.noun),
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     fmt.Sprintf("Keyword to match against %s fields, in Persian or English.", s.noun),
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SearchInput) (*Payload, error) {
			query := ""
			if in != nil {
				query = strings.TrimSpace(in.Query)
			}
			prompt := fmt.Sprintf("Search for %s %s", s.noun, query)
			return observe(s.name, prompt, func() (json.RawMessage, error) {
				return ds.Search(ctx, s.entity, query)
			}), nil
		},
	)
}

func newCardsTool(ds model.CRMDataSource) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetCards,
			Desc: fmt.Sprintf("List the 10 latest cards of an owner. Get the owner's Id from %s first. Returns JSON that must be formatted before it is used as an answer.", ToolListUsers),
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"owner_id": {
					Type:     schema.String,
					Desc:     "Id of the owning user.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CardsInput) (*Payload, error) {
			owner := ""
			if in != nil {
				owner = strings.TrimSpace(in.OwnerID)
			}
			prompt := fmt.Sprintf("Get 10 last cards of the owner with the ID of `%s`", owner)
			return observe(ToolGetCards, prompt, func() (json.RawMessage, error) {
				return ds.Cards(ctx, owner)
			}), nil
		},
	)
}

func newDetailTool(ds model.CRMDataSource, name string, entity model.Entity, noun, searchTool string) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: name,
			Desc: fmt.Sprintf("Get the full details of a %s. Get the %s Id from %s first. Returns JSON that must be formatted before it is used as an answer.", noun, noun, searchTool),
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"id": {
					Type:     schema.String,
					Desc:     fmt.Sprintf("Id of the %s.", noun),
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *DetailInput) (*Payload, error) {
			id := ""
			if in != nil {
				id = strings.TrimSpace(in.ID)
			}
			prompt := fmt.Sprintf("Get details of %s with the ID of `%s`", noun, id)
			return observe(name, prompt, func() (json.RawMessage, error) {
				return ds.Detail(ctx, entity, id)
			}), nil
		},
	)
}

// observe runs one CRM call and turns its result, or its failure, into a Payload.
func observe(name, prompt string, call func() (json.RawMessage, error)) *Payload {
	data, err := call()
	if err != nil {
		logx.Warn().Err(err).Str("tool", name).Msg("CRM tool call failed")
		metrics.RecordToolCall(name, metrics.ToolResultError)
		return &Payload{Prompt: prompt, Error: err.Error()}
	}
	metrics.RecordToolCall(name, metrics.ToolResultOK)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return &Payload{Data: data, Prompt: prompt}
}
