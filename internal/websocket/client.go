package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Максимальное время ожидания для pong от клиента
	pongWait = 60 * time.Second

	// Отправлять ping-сообщения клиенту с этим интервалом
	pingPeriod = (pongWait * 9) / 10

	// Время на запись одного кадра
	writeWait = 10 * time.Second

	// Максимальный размер сообщения от клиента
	maxMessageSize = 64 * 1024 // 64KB

	// Размер буфера для отправляемых сообщений
	sendBufferSize = 256
)

// EventHandler обрабатывает входящие кадры клиента
type EventHandler interface {
	HandleEvent(c *Client, raw []byte)
}

// Client представляет собой отдельное WebSocket соединение
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// Lang – значение Accept-Language, с которым установлено соединение
	Lang string

	conn      *websocket.Conn
	send      chan []byte // Буферизованный канал исходящих сообщений
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewClient создает новый экземпляр Client
func NewClient(userID uuid.UUID, lang string, conn *websocket.Conn) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		Lang:      lang,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		closeChan: make(chan struct{}),
	}
}

// Run запускает горутины чтения и записи. Клиент уже должен быть зарегистрирован в manager.
func (c *Client) Run(manager *Manager, handler EventHandler) {
	go c.writePump()
	go c.readPump(manager, handler)
}

// enqueue ставит кадр в очередь без блокировки. false означает, что буфер переполнен.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.closeChan:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close закрывает соединение; повторные вызовы ничего не делают
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump обрабатывает входящие сообщения от клиента
func (c *Client) readPump(manager *Manager, handler EventHandler) {
	defer func() {
		manager.RemoveClient(c.ID)
		c.close()
	}()

	// Настраиваем соединение
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				manager.log.WithError(err).WithField("client_id", c.ID).Debug("Неожиданное закрытие соединения")
			}
			return
		}

		handler.HandleEvent(c, message)
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			// Отправляем ping для поддержания соединения
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
