package tools

import (
	"encoding/json"
	"fmt"
)

// LLMResponseWrapper provides a standardized response format for all MCP tools
// This ensures consistent structure across all tools with Summary, Data, and Next_steps fields
type LLMResponseWrapper[T any] struct {
	Summary   string   `json:"summary"`
	Data      T        `json:"data"`
	NextSteps []string `json:"next_steps,omitempty"`
}

// CreateLLMResponse creates a standardized LLM response with the given data
func CreateLLMResponse[T any](summary string, data T, nextSteps ...string) LLMResponseWrapper[T] {
	return LLMResponseWrapper[T]{
		Summary:   summary,
		Data:      data,
		NextSteps: nextSteps,
	}
}

// ToJSON converts the LLMResponseWrapper to pretty JSON for LLM consumption
func (r LLMResponseWrapper[T]) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(r, "", "")
	if err != nil {
		return "", fmt.Errorf("failed to marshal LLM response to JSON: %w", err)
	}
	return string(bytes), nil
}

// Common response summaries that can be reused across tools
const (
	SummaryTablesListed   = "The list of tables visible to the current connection has been retrieved."
	SummaryTableDescribed = "Column information for the requested table has been retrieved."
)

// Common next steps that can be reused across tools
var (
	NextStepsAfterListTables = []string{
		"Use describe-table to inspect the columns of a table before querying it",
		"Use read-query to run a SELECT against the tables you are interested in",
	}

	NextStepsAfterDescribeTable = []string{
		"Use read-query to run a SELECT against the described table",
		"Use explain-query to check the execution plan of an expensive query before running it",
	}
)
