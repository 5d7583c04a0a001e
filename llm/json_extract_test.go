package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONTagTakesPriority(t *testing.T) {
	text := `blah {"ignored": 1} blah <json>{"real": true}</json> trailing`
	out, ok := ExtractJSON(text)
	require.True(t, ok)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, true, parsed["real"])
}

func TestExtractJSONOutermostObject(t *testing.T) {
	text := `here is your answer: {"a": {"b": 1}, "c": [1,2,3]} done`
	out, ok := ExtractJSON(text)
	require.True(t, ok)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed, "a")
}

func TestExtractJSONFallsBackToArray(t *testing.T) {
	text := `the list is [1, 2, 3] ok`
	out, ok := ExtractJSON(text)
	require.True(t, ok)
	assert.Equal(t, "[1, 2, 3]", out)
}

func TestExtractJSONNoneFound(t *testing.T) {
	_, ok := ExtractJSON("just plain prose, nothing structured")
	assert.False(t, ok)
}

func TestRepairStripsCodeFenceAndTrailingComma(t *testing.T) {
	text := "```json\n{\"a\": 1, \"b\": 2,}\n```"
	repaired := Repair(text)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(repaired), &parsed))
	assert.EqualValues(t, 1, parsed["a"])
}

func TestRepairBalancesUnclosedBraces(t *testing.T) {
	text := `{"a": 1, "b": {"c": 2`
	repaired := Repair(text)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(repaired), &parsed))
	assert.EqualValues(t, 2, parsed["b"].(map[string]interface{})["c"])
}

func TestRepairRemovesLineAndBlockComments(t *testing.T) {
	text := "{\"a\": 1, // trailing comment\n\"b\": /* inline */ 2}"
	repaired := Repair(text)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(repaired), &parsed))
	assert.EqualValues(t, 2, parsed["b"])
}
