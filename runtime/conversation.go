package runtime

import (
	"sort"
	"sync"

	"github.com/swarmmind/swarmmind/core"
)

// ConversationTracker groups messages by conversation id, supplementing
// the base runtime with the thread view the coordination protocols in
// SPEC_FULL.md §9 expect when replaying a negotiation or a multi-round
// cognitive exchange.
type ConversationTracker struct {
	mu   sync.Mutex
	byID map[string][]core.Message
}

func NewConversationTracker() *ConversationTracker {
	return &ConversationTracker{byID: make(map[string][]core.Message)}
}

// Record appends msg to its conversation's thread, creating the thread
// on first use. Messages with no conversation id are ignored, since
// they don't belong to any thread.
func (ct *ConversationTracker) Record(msg core.Message) {
	if msg.ConversationID == "" {
		return
	}
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.byID[msg.ConversationID] = append(ct.byID[msg.ConversationID], msg)
}

// Thread returns the messages recorded for conversationID, ordered by
// CreatedAt.
func (ct *ConversationTracker) Thread(conversationID string) []core.Message {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	msgs := append([]core.Message(nil), ct.byID[conversationID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs
}

// Conversations lists every tracked conversation id.
func (ct *ConversationTracker) Conversations() []string {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]string, 0, len(ct.byID))
	for id := range ct.byID {
		out = append(out, id)
	}
	return out
}
