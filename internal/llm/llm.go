package llm

import llmclient "fraudwatch/internal/llmClient"

type LLMClient = llmclient.LLMClient
type Media = llmclient.Media
