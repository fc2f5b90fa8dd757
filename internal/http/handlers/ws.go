package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/chat"
)

type WSHandler struct {
	Hub  *chat.Hub
	Chat *chat.Handler
	// InsecureSkipVerify bypasses origin verification; dev only.
	InsecureSkipVerify bool
}

func (h *WSHandler) Handle(c *gin.Context) {
	opts := &websocket.AcceptOptions{}
	if h.InsecureSkipVerify {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return // Accept already wrote the error response
	}

	client := chat.NewClient(conn)
	h.Hub.Register(client)
	go client.WriteLoop()
	go client.KeepAliveLoop()

	defer func() {
		h.Chat.Disconnect(client)
		h.Hub.Unregister(client)
	}()

	ctx := c.Request.Context()
	for {
		var ev chat.Inbound
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Printf("read from conn %s: %v", client.ID, err)
			}
			return
		}
		h.dispatch(client, ev)
	}
}

// dispatch isolates one frame: a panic inside a handler must not take the
// connection down or touch other connections.
func (h *WSHandler) dispatch(client *chat.Client, ev chat.Inbound) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic handling %s from conn %s: %v", ev.Type, client.ID, r)
		}
	}()
	h.Chat.Dispatch(client, ev)
}
