package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chat-clone/internal/openai"
)

func TestDefaultDefinitionExtended(t *testing.T) {
	def := DefaultDefinition("extended", "gpt-4.1", "vs_123")

	if def.Name != "ChatGPT Clone" {
		t.Fatalf("unexpected name %q", def.Name)
	}
	if len(def.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(def.Tools))
	}
	fileSearch := def.Tools[1]
	if fileSearch.Type != openai.ToolTypeFileSearch || fileSearch.MaxNumResults != 3 || fileSearch.VectorStoreIDs[0] != "vs_123" {
		t.Fatalf("unexpected file search tool: %#v", fileSearch)
	}
	code := def.Tools[2]
	if code.Type != openai.ToolTypeCodeInterpreter || code.Container == nil || code.Container.Type != "auto" {
		t.Fatalf("unexpected code interpreter tool: %#v", code)
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("expected valid definition, got %v", err)
	}
}

func TestDefaultDefinitionMinimalHasOnlyWebSearch(t *testing.T) {
	def := DefaultDefinition("minimal", "gpt-4.1", "vs_123")
	if len(def.Tools) != 1 || def.Tools[0].Type != openai.ToolTypeWebSearch {
		t.Fatalf("expected web search only, got %#v", def.Tools)
	}
	if def.HasTool(openai.ToolTypeFileSearch) {
		t.Fatal("minimal variant must not search files")
	}
}

func TestDefaultDefinitionSkipsFileSearchWithoutVectorStore(t *testing.T) {
	def := DefaultDefinition("extended", "gpt-4.1", "")
	if def.HasTool(openai.ToolTypeFileSearch) {
		t.Fatalf("expected no file search tool, got %#v", def.Tools)
	}
	if !def.HasTool(openai.ToolTypeCodeInterpreter) {
		t.Fatal("expected code interpreter to stay enabled")
	}
}

func TestLoadDefinitionFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	content := `name: Research Helper
instructions: Answer briefly.
tools:
  - type: web_search
  - type: file_search
    max_num_results: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	def, err := LoadDefinition(path, "extended", "gpt-4.1", "vs_env")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if def.Name != "Research Helper" || def.Model != "gpt-4.1" || def.Instructions != "Answer briefly." {
		t.Fatalf("unexpected definition: %#v", def)
	}
	if len(def.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(def.Tools))
	}
	if got := def.Tools[1]; got.MaxNumResults != 5 || len(got.VectorStoreIDs) != 1 || got.VectorStoreIDs[0] != "vs_env" {
		t.Fatalf("expected vector store from environment, got %#v", got)
	}
}

func TestLoadDefinitionWithoutPathUsesDefaults(t *testing.T) {
	def, err := LoadDefinition("", "minimal", "gpt-4.1", "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(def.Tools) != 1 {
		t.Fatalf("expected default minimal tools, got %#v", def.Tools)
	}
}

func TestLoadDefinitionRejectsUnknownTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte("tools:\n  - type: image_generation\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadDefinition(path, "extended", "gpt-4.1", "vs_1")
	if err == nil || !strings.Contains(err.Error(), "image_generation") {
		t.Fatalf("expected unsupported tool error, got %v", err)
	}
}

func TestValidateRejectsFileSearchWithoutVectorStore(t *testing.T) {
	def := &Definition{Model: "gpt-4.1", Tools: []openai.Tool{openai.FileSearchTool(3)}}
	if err := def.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
