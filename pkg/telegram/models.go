package telegram

import "encoding/json"

// Response is the envelope every Bot API method returns
type Response struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Message is the subset of a sent message that is logged
type Message struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// Message decodes Result as a sent message
func (r *Response) Message() (*Message, error) {
	var m Message
	if err := json.Unmarshal(r.Result, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
