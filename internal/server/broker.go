package server

import (
	"encoding/json"
	"sync"
)

// ScoreEvent is the payload published to a participant's feed.
type ScoreEvent struct {
	Type         string `json:"type"`
	QuizID       string `json:"quizId,omitempty"`
	IsCorrect    bool   `json:"isCorrect,omitempty"`
	PointsEarned int    `json:"pointsEarned,omitempty"`
	TotalScore   int    `json:"totalScore"`
	Answered     int    `json:"answered"`
}

// Broker is an in-process pub/sub for score events, keyed by participant ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the participant.
func (b *Broker) Subscribe(participantID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[participantID] == nil {
		b.subs[participantID] = make(map[chan []byte]struct{})
	}
	b.subs[participantID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the participant's subscribers.
func (b *Broker) Unsubscribe(participantID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[participantID], ch)
	if len(b.subs[participantID]) == 0 {
		delete(b.subs, participantID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the participant.
func (b *Broker) Publish(participantID string, event ScoreEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[participantID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
