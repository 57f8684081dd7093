package entity

import (
	"fmt"
	"sort"
	"time"
)

type Conversation struct {
	ID                   string         `json:"id" firestore:"id"`
	ListingID            string         `json:"listing_id" firestore:"listingId"`
	ParticipantA         string         `json:"participant_a" firestore:"participantA"`
	ParticipantB         string         `json:"participant_b" firestore:"participantB"`
	Participants         []string       `json:"participants" firestore:"participants"` // sorted pair, for array-contains queries
	LastMessage          string         `json:"last_message" firestore:"lastMessage"`
	LastMessageTimestamp int64          `json:"last_message_timestamp" firestore:"lastMessageTimestamp"`
	UnreadCount          map[string]int `json:"unread_count" firestore:"unreadCount"`
	CreatedAt            time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt            time.Time      `json:"updated_at" firestore:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	Content        string    `json:"content" firestore:"content"`
	ReadBy         []string  `json:"read_by" firestore:"readBy"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

// ConversationKey is the deterministic document ID for a listing and an unordered pair of users.
// Every part is length prefixed so IDs containing the separator cannot collide.
func ConversationKey(listingID, userA, userB string) string {
	lo, hi := userA, userB
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%d:%s_%d:%s_%d:%s", len(listingID), listingID, len(lo), lo, len(hi), hi)
}

// NewConversation builds an empty thread between a and b about listingID.
func NewConversation(listingID, a, b string) *Conversation {
	pair := []string{a, b}
	sort.Strings(pair)
	return &Conversation{
		ID:           ConversationKey(listingID, a, b),
		ListingID:    listingID,
		ParticipantA: a,
		ParticipantB: b,
		Participants: pair,
		UnreadCount:  map[string]int{a: 0, b: 0},
	}
}

// Matches reports whether the conversation is between exactly a and b, in either order.
func (c *Conversation) Matches(a, b string) bool {
	return (c.ParticipantA == a && c.ParticipantB == b) || (c.ParticipantA == b && c.ParticipantB == a)
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Participants != nil {
		cp.Participants = append([]string(nil), c.Participants...)
	}
	if c.UnreadCount != nil {
		cp.UnreadCount = make(map[string]int, len(c.UnreadCount))
		for k, v := range c.UnreadCount {
			cp.UnreadCount[k] = v
		}
	}
	return &cp
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	if m.ReadBy != nil {
		cp.ReadBy = append([]string(nil), m.ReadBy...)
	}
	return &cp
}
