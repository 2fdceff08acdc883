package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExpenseSyncMessage asks the worker to push one recorded expense to the
// user's spreadsheet. The worker loads the expense itself by id.
type ExpenseSyncMessage struct {
	MessageID string    `json:"message_id"`
	ExpenseID int64     `json:"expense_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(expenseID, userID int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		MessageID: uuid.NewString(),
		ExpenseID: expenseID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
