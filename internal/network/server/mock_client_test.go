package server

import "github.com/palemoky/dice-chess/internal/network/protocol"

// MockClient implements ClientConn and records every message sent to it.
type MockClient struct {
	ID       string
	Name     string
	RoomID   string
	Messages []*protocol.Message
}

func (m *MockClient) GetID() string {
	return m.ID
}

func (m *MockClient) GetName() string {
	return m.Name
}

func (m *MockClient) SetName(name string) {
	m.Name = name
}

func (m *MockClient) SetRoom(roomID string) {
	m.RoomID = roomID
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Messages = append(m.Messages, msg)
}

// lastOfType returns the most recent message of the given type, or nil.
func (m *MockClient) lastOfType(t protocol.MessageType) *protocol.Message {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Type == t {
			return m.Messages[i]
		}
	}
	return nil
}

// countOfType returns how many messages of the given type were received.
func (m *MockClient) countOfType(t protocol.MessageType) int {
	n := 0
	for _, msg := range m.Messages {
		if msg.Type == t {
			n++
		}
	}
	return n
}

func (m *MockClient) clearMessages() {
	m.Messages = nil
}
