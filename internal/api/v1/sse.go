package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// streamEvent SSE 事件
type streamEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// sseStream SSE 写入器
type sseStream struct {
	c       *gin.Context
	flusher http.Flusher
}

// startSSE 设置 SSE 响应头；不支持流式响应时返回 false 并写入错误
func startSSE(c *gin.Context) (*sseStream, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return nil, false
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	return &sseStream{c: c, flusher: flusher}, true
}

// send 以 data: {json} 格式写出一个事件
func (s *sseStream) send(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(s.c.Writer, "data: %s\n\n", b)
	s.flusher.Flush()
}

func (s *sseStream) event(typ, message string, data interface{}) {
	s.send(streamEvent{Type: typ, Message: message, Data: data, Timestamp: time.Now()})
}
