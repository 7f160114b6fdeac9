package rag

import "strings"

// ContextSeparator sits between passages in the system prompt.
const ContextSeparator = "\n\n---\n\n"

const systemInstructions = "You are a helpful assistant answering questions based on the provided information. " +
	"Use the following context to answer the user's question. " +
	"If the answer cannot be found in the context, acknowledge this and provide " +
	"the best response you can based on your knowledge. " +
	"Keep your answers concise and to the point."

// JoinContext joins passages in order with ContextSeparator.
func JoinContext(passages []string) string {
	return strings.Join(passages, ContextSeparator)
}

// SystemPrompt builds the system instruction carrying the retrieved context.
func SystemPrompt(passages []string) string {
	return systemInstructions + "\n\nCONTEXT:\n" + JoinContext(passages)
}
