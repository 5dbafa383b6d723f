// Command client is a worked example of pairing mcp-sql with a generative
// model. It spawns the server over stdio, hands the model the schema
// resource and the available tools, and lets it answer a natural language
// question by requesting read-query calls through function calling.
//
// Works with any OpenAI-compatible chat API (OpenAI cloud, Ollama,
// LocalAI, vLLM) via OPENAI_BASE_URL.
//
//	export MCP_SQL_ENGINE=sqlite MCP_SQL_DSN=file:app.db
//	go run ./client bin/mcp-sql "which three customers placed the most orders?"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pterm/pterm"
	"github.com/sashabaranov/go-openai"
)

const (
	schemaResourceURI = "sql://schema"

	// maxToolRounds bounds the conversation so a confused model cannot
	// loop forever.
	maxToolRounds = 8
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run ./client <path_to_mcp_sql_binary> <question>")
	}
	program := os.Args[1]
	question := os.Args[2]

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	spinner, _ := pterm.DefaultSpinner.Start("Starting mcp-sql server...")
	c, err := client.NewStdioMCPClient(program, os.Environ())
	if err != nil {
		spinner.Fail()
		log.Fatalf("Failed to create client: %v", err)
	}
	defer c.Close()
	captureServerLog(c)

	if err := c.Start(ctx); err != nil {
		spinner.Fail()
		log.Fatalf("Failed to start client: %v", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "mcp-sql-example-client",
		Version: "1.0.0",
	}

	serverInfo, err := c.Initialize(ctx, initRequest)
	if err != nil {
		spinner.Fail()
		log.Fatalf("Failed to initialize: %v", err)
	}
	spinner.Success(fmt.Sprintf("Connected to %s %s", serverInfo.ServerInfo.Name, serverInfo.ServerInfo.Version))

	toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		log.Fatalf("Failed to list tools: %v", err)
	}

	items := make([]pterm.BulletListItem, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		items = append(items, pterm.BulletListItem{Level: 0, Text: tool.Name})
	}
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("Available tools"))
	_ = pterm.DefaultBulletList.WithItems(items).Render()

	schema, err := readSchemaResource(ctx, c)
	if err != nil {
		log.Fatalf("Failed to read schema resource: %v", err)
	}

	answer, err := runConversation(ctx, c, toolsResult.Tools, schema, question)
	if err != nil {
		log.Fatalf("Conversation failed: %v", err)
	}

	pterm.Println()
	pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Answer")).
		Println(answer)
}

// runConversation drives the chat loop: the model either answers or asks
// for tool calls, which are relayed to the MCP server and fed back in.
func runConversation(ctx context.Context, c *client.Client, tools []mcp.Tool, schema, question string) (string, error) {
	llm := newLLMClient()
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}

	systemPrompt := "You are a data analyst with read-only access to a SQL database through tools. " +
		"Answer the user's question by querying the database. Only SELECT statements are accepted. " +
		"Database schema:\n\n" + schema

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: question},
	}

	for round := 0; round < maxToolRounds; round++ {
		spinner, _ := pterm.DefaultSpinner.Start("Thinking...")
		resp, err := llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
			Tools:    openAITools(tools),
		})
		if err != nil {
			spinner.Fail()
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		spinner.Stop()

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat API returned no choices")
		}
		msg := resp.Choices[0].Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		for _, call := range msg.ToolCalls {
			output := relayToolCall(ctx, c, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("model did not produce an answer within %d tool rounds", maxToolRounds)
}

// relayToolCall executes one model-requested tool call against the MCP
// server. Failures are reported back to the model as text so it can
// rephrase the query instead of aborting the conversation.
func relayToolCall(ctx context.Context, c *client.Client, call openai.ToolCall) string {
	pterm.Printf("  %s %s\n", pterm.NewStyle(pterm.FgGray).Sprint("tool:"), call.Function.Name)

	args := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return fmt.Sprintf("invalid tool arguments: %v", err)
		}
	}
	if query, ok := args["query"].(string); ok {
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint("  " + query))
	}

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = call.Function.Name
	callReq.Params.Arguments = args

	result, err := c.CallTool(ctx, callReq)
	if err != nil {
		return fmt.Sprintf("tool call failed: %v", err)
	}

	text := textContent(result)
	if !result.IsError {
		renderRowsTable(text)
	}
	return text
}

// openAITools converts the MCP tool list into chat API function
// definitions. The MCP input schema is already JSON Schema, so it is
// passed through unchanged.
func openAITools(tools []mcp.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return out
}

func readSchemaResource(ctx context.Context, c *client.Client) (string, error) {
	readReq := mcp.ReadResourceRequest{}
	readReq.Params.URI = schemaResourceURI

	result, err := c.ReadResource(ctx, readReq)
	if err != nil {
		return "", err
	}
	for _, content := range result.Contents {
		if text, ok := content.(mcp.TextResourceContents); ok {
			return text.Text, nil
		}
	}
	return "", fmt.Errorf("resource %s returned no text content", schemaResourceURI)
}

// newLLMClient builds the chat client. A dummy key keeps local services
// that ignore authentication working without configuration.
func newLLMClient() *openai.Client {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}

func textContent(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

// renderRowsTable pretty-prints a read-query result. Anything that does
// not look like a query result is skipped silently.
func renderRowsTable(text string) {
	var result struct {
		Columns   []string         `json:"columns"`
		Rows      []map[string]any `json:"rows"`
		RowCount  int              `json:"row_count"`
		Truncated bool             `json:"truncated"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil || len(result.Columns) == 0 {
		return
	}

	data := pterm.TableData{result.Columns}
	for _, row := range result.Rows {
		line := make([]string, 0, len(result.Columns))
		for _, col := range result.Columns {
			line = append(line, fmt.Sprintf("%v", row[col]))
		}
		data = append(data, line)
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if result.Truncated {
		pterm.Println(pterm.NewStyle(pterm.FgYellow).Sprintf("(%d rows shown, result truncated)", result.RowCount))
	}
}

func captureServerLog(c *client.Client) {
	// Set up logging for stderr if available
	if stderr, ok := client.GetStderr(c); ok {
		go func() {
			buf := make([]byte, 4096)
			for {
				n, err := stderr.Read(buf)
				if err != nil {
					if err != io.EOF {
						log.Printf("Error reading stderr: %v", err)
					}
					return
				}
				if n > 0 {
					fmt.Fprintf(os.Stderr, "[Server] %s", buf[:n])
				}
			}
		}()
	}
}
