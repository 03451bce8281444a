package cart

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/pricing"
)

const stateVersion = 1

// state is the persisted form of a cart.
type state struct {
	Version int                   `json:"v"`
	Items   []cartdomain.LineItem `json:"items"`
	Pricing pricing.Context       `json:"pricing"`
}

// encodeState serializes to JSON and compresses with snappy block format.
func encodeState(s state) ([]byte, error) {
	s.Version = stateVersion
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode cart state: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

func decodeState(data []byte) (state, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return state{}, fmt.Errorf("decompress cart state: %w", err)
	}
	var s state
	if err := json.Unmarshal(raw, &s); err != nil {
		return state{}, fmt.Errorf("decode cart state: %w", err)
	}
	if s.Version > stateVersion {
		return state{}, fmt.Errorf("cart state version %d not supported", s.Version)
	}
	return s, nil
}
