package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallbiznis/orderdesk/internal/catalog/domain"
)

type feedEnvelope struct {
	Products []domain.Product `json:"products"`
}

// ParseFeed decodes a product feed. Both a bare array and an object with a
// "products" field are accepted. Products without an id are rejected.
func ParseFeed(data []byte) ([]domain.Product, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, domain.ErrInvalidFeed
	}

	var products []domain.Product
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &products); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFeed, err)
		}
	} else {
		var env feedEnvelope
		if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFeed, err)
		}
		products = env.Products
	}

	for i := range products {
		products[i].ProductID = strings.TrimSpace(products[i].ProductID)
		if products[i].ProductID == "" {
			return nil, fmt.Errorf("%w: product at index %d has no id", domain.ErrInvalidFeed, i)
		}
		for j := range products[i].Variants {
			if products[i].Variants[j].PriceExclVAT.IsNegative() {
				return nil, fmt.Errorf("%w: negative price on %s", domain.ErrInvalidFeed, products[i].Variants[j].SKU)
			}
		}
	}
	return products, nil
}
