package deploy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	jsonDataURIPrefix = "data:application/json;base64,"
	svgDataURIPrefix  = "data:image/svg+xml;base64,"
)

// TokenURIAttribute is one entry of the metadata attributes list.
type TokenURIAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// TokenURIMetadata is the JSON document a profile NFT serves as its token URI.
type TokenURIMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []TokenURIAttribute `json:"attributes"`
}

// Attribute returns the value of the named trait.
func (m *TokenURIMetadata) Attribute(trait string) (string, bool) {
	for _, a := range m.Attributes {
		if a.TraitType == trait {
			return a.Value, true
		}
	}
	return "", false
}

// DecodeTokenURIMetadata decodes a data:application/json;base64 token URI.
func DecodeTokenURIMetadata(uri string) (*TokenURIMetadata, error) {
	payload, err := dataURIPayload(uri, jsonDataURIPrefix)
	if err != nil {
		return nil, err
	}
	var meta TokenURIMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("deploy: parse token URI metadata: %w", err)
	}
	return &meta, nil
}

// DecodeSVGImage decodes the data:image/svg+xml;base64 image of the metadata.
func DecodeSVGImage(meta *TokenURIMetadata) (string, error) {
	if meta == nil {
		return "", ErrTokenURIFormat
	}
	payload, err := dataURIPayload(meta.Image, svgDataURIPrefix)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// dataURIPayload requires exactly one occurrence of prefix and decodes what follows it.
func dataURIPayload(uri, prefix string) ([]byte, error) {
	if strings.Count(uri, prefix) != 1 {
		return nil, ErrTokenURIFormat
	}
	_, encoded, _ := strings.Cut(uri, prefix)
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenURIFormat, err)
	}
	return payload, nil
}

// HandleAbbreviation returns the prefix of a profile handle used in follow NFT
// symbols: the first four characters, or three when the fourth is a space.
func HandleAbbreviation(handle string) string {
	runes := []rune(handle)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	if len(runes) == 4 && runes[3] == ' ' {
		runes = runes[:3]
	}
	return string(runes)
}
