package provider

import (
	"github.com/pkoukk/tiktoken-go"
)

// estimateTokens approximates the token count of text when the vendor
// response carries no usage block. Falls back to cl100k_base for models
// tiktoken does not know, and to a bytes/4 heuristic if encoding data is
// unavailable.
func estimateTokens(model, text string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
