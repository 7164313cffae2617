package tools

// Tool names exposed to the crm-agent model.
const (
	ToolListUsers             = "list_users"
	ToolListProducts          = "list_products"
	ToolListProductCategories = "list_product_categories"
	ToolListPipelines         = "list_pipelines"
	ToolListActivityTypes     = "list_activity_types"
	ToolSearchProduct         = "search_product"
	ToolSearchAttachment      = "search_attachment"
	ToolSearchCase            = "search_case"
	ToolSearchCompany         = "search_company"
	ToolSearchContact         = "search_contact"
	ToolSearchDeal            = "search_deal"
	ToolGetCards              = "get_cards"
	ToolGetContactDetail      = "get_contact_detail"
	ToolGetDealDetail         = "get_deal_detail"
	ToolFormatJSON            = "format_json"
)

var toolNames = []string{
	ToolListUsers,
	ToolListProducts,
	ToolListProductCategories,
	ToolListPipelines,
	ToolListActivityTypes,
	ToolSearchProduct,
	ToolSearchAttachment,
	ToolSearchCase,
	ToolSearchCompany,
	ToolSearchContact,
	ToolSearchDeal,
	ToolGetCards,
	ToolGetContactDetail,
	ToolGetDealDetail,
	ToolFormatJSON,
}

// Names returns every tool name in registration order.
func Names() []string {
	out := make([]string, len(toolNames))
	copy(out, toolNames)
	return out
}
