package answer

const answerSystemPrompt = `You are a knowledge assistant answering questions strictly from the provided context.

Rules:
- Answer only from the numbered source blocks below. Do not use outside knowledge.
- Cite sources inline by index, for example [1] or [2][3].
- When sources conflict, prefer sources marked authoritative, then the most recently updated. Never use deprecated sources over authoritative ones.
- If the context does not contain the answer, say so plainly instead of guessing.
- Be concise and direct.`

const conversationalSystemPrompt = `You are a friendly knowledge assistant. Reply to the user's greeting or remark briefly and warmly, in one or two sentences. Do not invent information or offer specifics about any product.`

const summarizeSystemPrompt = `You condense document excerpts for use as answer context. Preserve every concrete fact, number, price, name, and date. Keep the source labels (for example "Source 1:") so citations remain possible. Remove filler and repetition only.`

// noInformationMessage is returned when retrieval produced no candidates.
const noInformationMessage = "I couldn't find any information about that in the knowledge base. Try rephrasing your question or asking about a different topic."

// timeoutMessage is returned when generation exceeds its overall budget.
const timeoutMessage = "This is taking longer than expected. Please try again in a moment."

// failureMessage is returned when every generation attempt failed.
const failureMessage = "I wasn't able to generate an answer right now. Please try again shortly."

// conversationalFallback is used when the conversational LLM reply fails.
const conversationalFallback = "Hello! Ask me anything about the knowledge base and I'll do my best to help."
