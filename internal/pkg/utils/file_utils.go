package utils

import (
	"os"

	"portfolio_dashboard/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadTokensFromJSON reads a token list file: a JSON array of token
// descriptors in the same shape as the inline `tokens` config section.
func LoadTokensFromJSON(filePath string) ([]entity.TokenDescriptor, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var tokens []entity.TokenDescriptor
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}
