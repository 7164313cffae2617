package nodes

// Graph node keys.
const (
	NodeClassifier = "Classifier"

	NodeCRMAssembler = "CRMAssembler"
	NodeCRMChatModel = "CRMChatModel"
	NodeToolExecutor = "ToolExecutor"
	NodeCRMFinalize  = "CRMFinalize"

	NodeUnknownAssembler = "UnknownAssembler"
	NodeUnknownChatModel = "UnknownChatModel"
	NodeUnknownFinalize  = "UnknownFinalize"
)

// FallbackAnswer replaces an empty final model answer so every turn carries
// assistant text.
const FallbackAnswer = "Sorry, I could not prepare an answer to that. Please rephrase your question with more CRM-specific detail."
