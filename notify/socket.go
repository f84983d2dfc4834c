package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

// SocketWriteChunkSize is the chunk size when writing payload to the Unix socket.
const SocketWriteChunkSize = 32 * 1024 // 32KB

// SocketTimeout bounds every dial, write and read on the notification socket.
var SocketTimeout = 3 * time.Second

// SocketSink forwards notifications to a desktop notifier listening on a Unix socket.
// Each message is a little-endian uint32 length followed by the JSON payload.
type SocketSink struct {
	Path string
}

// Broadcast sends the notification and logs delivery failures.
func (s *SocketSink) Broadcast(notification *types.Notification) {
	if err := s.Send(notification); err != nil {
		tool.DefaultLogger.Debugf("[UnixSocket] %v", err)
	}
}

// Send delivers one notification and waits for the optional reply.
func (s *SocketSink) Send(notification *types.Notification) error {
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", s.Path)
	}

	payload := []byte("{}")
	if notification != nil {
		var err error
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %v", err)
		}
	}
	if len(payload) > SocketWriteChunkSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), SocketWriteChunkSize)
	}

	conn, err := net.DialTimeout("unix", s.Path, SocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %v", s.Path, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(SocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set write deadline: %v", err)
	}
	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err := conn.Write(lengthBuf); err != nil {
		return fmt.Errorf("failed to write length to Unix socket: %v", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload to Unix socket: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(SocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set read deadline: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %v", err)
	}
	if n > 0 {
		var response map[string]any
		if err := sonic.Unmarshal(buf[:n], &response); err != nil {
			tool.DefaultLogger.Debugf("Unix socket response (raw): %s", string(buf[:n]))
		} else if errMsg, ok := response["error"].(string); ok && errMsg != "" {
			return fmt.Errorf("notifier returned error: %s", errMsg)
		}
	}

	if notification != nil {
		tool.DefaultLogger.Debugf("[UnixSocket] Notification sent: %s - %s", notification.Type, notification.Title)
	}
	return nil
}
