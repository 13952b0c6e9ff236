package client

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"livechat/models"
	"livechat/ws"
)

// SubscribeInserts dials the server's websocket feed for one room and
// pushes each insert event's raw row to the handler. The connection lives
// until Unsubscribe.
func (c *APIClient) SubscribeInserts(roomID string, handler func(models.Message)) (Subscription, error) {
	token := c.token()
	if token == "" {
		return nil, errors.New("no session")
	}

	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) +
		"/ws?roomId=" + url.QueryEscape(roomID) + "&token=" + url.QueryEscape(token)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}

	sub := &wsSubscription{conn: conn}
	go sub.readLoop(handler)
	return sub, nil
}

type wsSubscription struct {
	conn *websocket.Conn
	once sync.Once
}

func (s *wsSubscription) readLoop(handler func(models.Message)) {
	defer s.conn.Close()
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var event ws.InsertEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}
		if event.Type != "insert" || event.Table != "messages" {
			continue
		}
		handler(event.Row)
	}
}

func (s *wsSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	})
}
