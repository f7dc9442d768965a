package engine

import (
	"strings"
)

type TokenType string

const (
	TokenKeyword TokenType = "keyword"
	TokenUser    TokenType = "user"
	TokenProject TokenType = "project"
	TokenTag     TokenType = "tag"
)

// SearchToken is one typed term of a free-text search query.
type SearchToken struct {
	Type TokenType `json:"type"`
	// Value is lowercased and used for matching.
	Value string `json:"value"`
	// Display keeps the fragment as typed.
	Display string `json:"display"`
}

// ParseSearchTokens splits a query on whitespace and types each fragment by
// prefix: "@name" is a user, "#id" a project, "tag:value" a tag and anything
// else a keyword. Fragments that are empty after the prefix is stripped are
// dropped, and duplicates by (type, value) keep their first position.
func ParseSearchTokens(query string) []SearchToken {
	fields := strings.Fields(query)
	out := make([]SearchToken, 0, len(fields))
	seen := make(map[SearchToken]struct{}, len(fields))

	for _, frag := range fields {
		tok := classify(frag)
		if tok.Value == "" {
			continue
		}
		key := SearchToken{Type: tok.Type, Value: tok.Value}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func classify(frag string) SearchToken {
	switch {
	case strings.HasPrefix(frag, "@"):
		return SearchToken{Type: TokenUser, Value: strings.ToLower(frag[1:]), Display: frag}
	case strings.HasPrefix(frag, "#"):
		return SearchToken{Type: TokenProject, Value: strings.ToLower(frag[1:]), Display: frag}
	case len(frag) >= len("tag:") && strings.EqualFold(frag[:len("tag:")], "tag:"):
		return SearchToken{Type: TokenTag, Value: strings.ToLower(frag[len("tag:"):]), Display: frag}
	default:
		return SearchToken{Type: TokenKeyword, Value: strings.ToLower(frag), Display: frag}
	}
}
