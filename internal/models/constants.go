package models

const (
	ContextSeparator = "\n---\n"

	// InsufficientContextAnswer is returned without calling the generator
	// when ranking keeps nothing.
	InsufficientContextAnswer = "I don't have enough information in the indexed documents to answer that question."
)

var (
	AnswerPromptTemplate = `Using only the context below, answer the question. If the context does not contain the answer, say that you do not have enough information.

Context:
%s

Question: %s

Answer:`

	SystemPrompt = "You are a helpful assistant. Use the provided context to answer the query."
)
