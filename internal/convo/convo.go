// Package convo provides the bounded per-session conversation log
// exchanged with the model.
package convo

import "sync"

// Role identifies the author of a turn.
type Role string

// Turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates the variant stored in a ContentBlock.
type BlockType string

// Supported block types.
const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// ContentBlock is one piece of content inside a turn.
type ContentBlock struct {
	Type BlockType `json:"type"`
	Text string    `json:"text,omitempty"`
	// Data carries base64-encoded image bytes for image blocks.
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

// NewTextBlock creates a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// NewImageBlock creates an image content block from base64 data.
func NewImageBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Type: BlockImage, Data: data, MIMEType: mimeType}
}

// Turn is one message in the conversation history.
type Turn struct {
	Role   Role           `json:"role"`
	Blocks []ContentBlock `json:"content"`
}

// Text concatenates the text of all text blocks, separated by newlines.
func (t Turn) Text() string {
	var result string
	for _, b := range t.Blocks {
		if b.Type == BlockText && b.Text != "" {
			if result != "" {
				result += "\n"
			}
			result += b.Text
		}
	}
	return result
}

// DefaultMaxTurns is the sliding-window bound applied when no explicit
// limit is configured.
const DefaultMaxTurns = 14

// Store is an append-only, length-bounded log of conversation turns.
// After any mutation it retains at most maxTurns most-recent turns,
// evicting the oldest. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	turns    []Turn
	maxTurns int
}

// NewStore creates a Store bounded to maxTurns. A non-positive bound
// falls back to DefaultMaxTurns.
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{maxTurns: maxTurns}
}

// AddUserTurn appends a user turn with the given content blocks.
func (s *Store) AddUserTurn(blocks ...ContentBlock) {
	s.add(Turn{Role: RoleUser, Blocks: blocks})
}

// AddAssistantTurn appends an assistant turn with plain text content.
func (s *Store) AddAssistantTurn(text string) {
	s.add(Turn{Role: RoleAssistant, Blocks: []ContentBlock{NewTextBlock(text)}})
}

func (s *Store) add(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, t)
	if excess := len(s.turns) - s.maxTurns; excess > 0 {
		s.turns = append(s.turns[:0:0], s.turns[excess:]...)
	}
}

// Turns returns an ordered copy of the stored turns.
func (s *Store) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Turn, len(s.turns))
	copy(result, s.turns)
	return result
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear removes all turns.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}
