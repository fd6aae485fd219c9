package render

import "chat-clone/internal/history"

const (
	BlockRoleUser = "user"
	BlockRoleAI   = "ai"

	KindText   = "text"
	KindImage  = "image"
	KindCode   = "code"
	KindNotice = "notice"

	NoticeWebSearch  = "🔍 Searched the web..."
	NoticeFileSearch = "🗂️ Searched the files..."
)

// Block is one rendered chat bubble.
type Block struct {
	Role string `json:"role"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Replay renders stored history into chat blocks in item order. Items the
// page has no rendering for are skipped.
func Replay(items []history.Item) []Block {
	blocks := make([]Block, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, replayItem(item)...)
	}
	return blocks
}

func replayItem(item history.Item) []Block {
	var out []Block

	if item.HasRole() {
		if item.Role() == history.RoleUser {
			if text, ok := item.ContentText(); ok {
				out = append(out, Block{Role: BlockRoleUser, Kind: KindText, Text: text})
			} else if parts, ok := item.ContentParts(); ok {
				for _, part := range parts {
					if url, ok := part["image_url"].(string); ok {
						out = append(out, Block{Role: BlockRoleUser, Kind: KindImage, Text: url})
					}
				}
			}
		} else if item.Type() == history.TypeMessage {
			out = append(out, Block{Role: BlockRoleAI, Kind: KindText, Text: history.FirstOutputText(item)})
		}
	}

	switch item.Type() {
	case history.TypeWebSearchCall:
		out = append(out, Block{Role: BlockRoleAI, Kind: KindNotice, Text: NoticeWebSearch})
	case history.TypeFileSearchCall:
		out = append(out, Block{Role: BlockRoleAI, Kind: KindNotice, Text: NoticeFileSearch})
	case history.TypeCodeInterpreterCall:
		out = append(out, Block{Role: BlockRoleAI, Kind: KindCode, Text: item.Code()})
	}
	return out
}
