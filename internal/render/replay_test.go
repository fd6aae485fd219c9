package render

import (
	"testing"

	"chat-clone/internal/history"
)

func assistantMessage(text string) history.Item {
	return history.Item{
		"type": history.TypeMessage,
		"role": history.RoleAssistant,
		"content": []any{
			map[string]any{"type": "output_text", "text": text},
		},
	}
}

func TestReplayAlternatingMessagesKeepsOrder(t *testing.T) {
	var items []history.Item
	for i := 0; i < 3; i++ {
		items = append(items, history.UserText("question"), assistantMessage("answer"))
	}

	blocks := Replay(items)
	if len(blocks) != len(items) {
		t.Fatalf("expected %d blocks, got %d", len(items), len(blocks))
	}
	for i, block := range blocks {
		wantRole := BlockRoleUser
		wantText := "question"
		if i%2 == 1 {
			wantRole = BlockRoleAI
			wantText = "answer"
		}
		if block.Role != wantRole || block.Kind != KindText || block.Text != wantText {
			t.Fatalf("block %d = %+v", i, block)
		}
	}
}

func TestReplayToolCallsAndImages(t *testing.T) {
	items := []history.Item{
		{"role": "user", "content": []any{
			map[string]any{"type": "input_image", "image_url": "data:image/png;base64,AAA"},
			map[string]any{"type": "input_text", "text": "ignored"},
			map[string]any{"type": "input_image", "image_url": "data:image/jpeg;base64,BBB"},
		}},
		{"type": history.TypeWebSearchCall, "status": "completed"},
		{"type": history.TypeFileSearchCall, "queries": []any{"me"}},
		{"type": history.TypeCodeInterpreterCall, "code": "print(42)"},
		{"type": "reasoning", "summary": []any{}},
		{"role": "assistant", "type": "function_call_output"},
	}

	blocks := Replay(items)
	want := []Block{
		{Role: BlockRoleUser, Kind: KindImage, Text: "data:image/png;base64,AAA"},
		{Role: BlockRoleUser, Kind: KindImage, Text: "data:image/jpeg;base64,BBB"},
		{Role: BlockRoleAI, Kind: KindNotice, Text: NoticeWebSearch},
		{Role: BlockRoleAI, Kind: KindNotice, Text: NoticeFileSearch},
		{Role: BlockRoleAI, Kind: KindCode, Text: "print(42)"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Fatalf("block %d = %+v, want %+v", i, blocks[i], want[i])
		}
	}
}

func TestReplayEmptyHistory(t *testing.T) {
	if blocks := Replay(nil); len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %d", len(blocks))
	}
}
