package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSearchTokens(t *testing.T) {
	got := ParseSearchTokens("@alice #proj1 tag:urgent standup")
	assert.Equal(t, []SearchToken{
		{Type: TokenUser, Value: "alice", Display: "@alice"},
		{Type: TokenProject, Value: "proj1", Display: "#proj1"},
		{Type: TokenTag, Value: "urgent", Display: "tag:urgent"},
		{Type: TokenKeyword, Value: "standup", Display: "standup"},
	}, got)
}

func TestParseSearchTokensDedupAndEmpty(t *testing.T) {
	got := ParseSearchTokens("  Review @ # tag: @Bob review TAG:Ops @bob\tREVIEW ")
	assert.Equal(t, []SearchToken{
		{Type: TokenKeyword, Value: "review", Display: "Review"},
		{Type: TokenUser, Value: "bob", Display: "@Bob"},
		{Type: TokenTag, Value: "ops", Display: "TAG:Ops"},
	}, got)
}

func TestParseSearchTokensSameValueDifferentType(t *testing.T) {
	got := ParseSearchTokens("ops #ops tag:ops @ops")
	assert.Len(t, got, 4)
}

func TestParseSearchTokensBlank(t *testing.T) {
	assert.Empty(t, ParseSearchTokens("   "))
}
