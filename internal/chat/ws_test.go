package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func dialTestSocket(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func recvFrame(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	var out OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	return out
}

func TestWebSocketSessionAndRoundTrip(t *testing.T) {
	llm := &stubLLM{chatReply: "We have openings Monday.", generate: []string{"BOOK_APPOINTMENT"}}
	conn := dialTestSocket(t, newTestChatHandler(llm))

	session := recvFrame(t, conn)
	assert.Equal(t, "session", session.Type)
	assert.NotEmpty(t, session.SessionID)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	assert.Equal(t, "pong", recvFrame(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{
		Type: "message",
		Text: "Can I book a cleaning?",
	}))
	assert.Equal(t, "typing", recvFrame(t, conn).Type)

	reply := recvFrame(t, conn)
	assert.Equal(t, "message", reply.Type)
	assert.Equal(t, "We have openings Monday.", reply.Text)
	assert.Equal(t, IntentBookAppointment, reply.Intent)
	assert.NotEmpty(t, reply.Timestamp)
}

func TestWebSocketRejectsInvalidMessage(t *testing.T) {
	llm := &stubLLM{chatReply: "hi"}
	conn := dialTestSocket(t, newTestChatHandler(llm))

	recvFrame(t, conn) // session frame

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{
		Type: "message",
		Text: "<script>alert(1)</script>",
	}))

	errFrame := recvFrame(t, conn)
	assert.Equal(t, "error", errFrame.Type)
	assert.Zero(t, llm.chatCalls)
}

func TestWebSocketCarriesHistoryAcrossTurns(t *testing.T) {
	llm := &stubLLM{chatReply: "noted"}
	conn := dialTestSocket(t, newTestChatHandler(llm))

	recvFrame(t, conn) // session frame

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "first message"}))
	recvFrame(t, conn) // typing
	recvFrame(t, conn) // reply

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "second message"}))
	recvFrame(t, conn) // typing
	recvFrame(t, conn) // reply

	require.Len(t, llm.lastHistory, 2)
	assert.Equal(t, RoleUser, llm.lastHistory[0].Role)
	assert.Equal(t, "first message", llm.lastHistory[0].Text)
	assert.Equal(t, RoleModel, llm.lastHistory[1].Role)
	assert.Equal(t, "noted", llm.lastHistory[1].Text)
}
