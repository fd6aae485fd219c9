package agent

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"chat-clone/internal/config"
	"chat-clone/internal/openai"
)

const (
	defaultAgentName      = "ChatGPT Clone"
	defaultFileSearchHits = 3
)

const defaultInstructions = `You are a chatbot that can answer questions and help with tasks.

You have access to the following tools:
    - Web Search Tool: Search the web for information.
    - File Search Tool: Use this tool when the user asks a question about facts related to themselves. Or when they ask questions about specific files.
    - Code Interpreter Tool: Use this tool when you need to write and run code to answer the user's question.`

const minimalInstructions = `You are a chatbot that can answer questions and help with tasks.

You have access to the following tools:
    - Web Search Tool: Search the web for information.`

// Definition describes the agent a turn is run with.
type Definition struct {
	Name         string        `yaml:"name"`
	Model        string        `yaml:"model"`
	Instructions string        `yaml:"instructions"`
	Tools        []openai.Tool `yaml:"tools"`
}

// DefaultDefinition returns the built-in agent for a variant.
func DefaultDefinition(variant, model, vectorStoreID string) *Definition {
	def := &Definition{
		Name:  defaultAgentName,
		Model: model,
	}
	if variant == config.VariantMinimal {
		def.Instructions = minimalInstructions
		def.Tools = []openai.Tool{openai.WebSearchTool()}
		return def
	}

	def.Instructions = defaultInstructions
	def.Tools = []openai.Tool{openai.WebSearchTool()}
	// file search needs an index to search
	if strings.TrimSpace(vectorStoreID) != "" {
		def.Tools = append(def.Tools, openai.FileSearchTool(defaultFileSearchHits, vectorStoreID))
	}
	def.Tools = append(def.Tools, openai.CodeInterpreterTool())
	return def
}

// LoadDefinition reads a YAML agent definition. Empty fields fall back to
// the built-in definition for the variant.
func LoadDefinition(path, variant, model, vectorStoreID string) (*Definition, error) {
	base := DefaultDefinition(variant, model, vectorStoreID)
	if strings.TrimSpace(path) == "" {
		return base, base.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent config: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse agent config %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = base.Name
	}
	if def.Model == "" {
		def.Model = base.Model
	}
	if strings.TrimSpace(def.Instructions) == "" {
		def.Instructions = base.Instructions
	}
	if def.Tools == nil {
		def.Tools = base.Tools
	}
	for i := range def.Tools {
		if def.Tools[i].Type == openai.ToolTypeFileSearch && len(def.Tools[i].VectorStoreIDs) == 0 && vectorStoreID != "" {
			def.Tools[i].VectorStoreIDs = []string{vectorStoreID}
		}
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks tool definitions before they reach the hosted API.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Model) == "" {
		return errors.New("agent model is required")
	}
	for _, tool := range d.Tools {
		switch tool.Type {
		case openai.ToolTypeWebSearch, openai.ToolTypeCodeInterpreter:
		case openai.ToolTypeFileSearch:
			if len(tool.VectorStoreIDs) == 0 || strings.TrimSpace(tool.VectorStoreIDs[0]) == "" {
				return errors.New("file_search tool requires VECTOR_STORE_ID")
			}
		default:
			return fmt.Errorf("unsupported tool type %q", tool.Type)
		}
	}
	return nil
}

// HasTool reports whether the definition enables the given tool type.
func (d *Definition) HasTool(toolType string) bool {
	for _, tool := range d.Tools {
		if tool.Type == toolType {
			return true
		}
	}
	return false
}

// request builds the streamed response request for one turn.
func (d *Definition) request(input []any) openai.ResponseRequest {
	return openai.ResponseRequest{
		Model:        d.Model,
		Instructions: d.Instructions,
		Input:        input,
		Tools:        d.Tools,
		Stream:       true,
	}
}
