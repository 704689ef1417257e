package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ginvault/internal/middleware"
	"ginvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	eventsWriteTimeout = 10 * time.Second
	eventsPingInterval = 60 * time.Second
	eventsPongWait     = 300 * time.Second
)

// EventSubscriber 订阅租户事件频道
type EventSubscriber interface {
	Subscribe(ctx context.Context, tenantID uint) *redis.PubSub
}

// EventsHandler 将租户的 Redis 事件频道转发到 WebSocket
type EventsHandler struct {
	upgrader   websocket.Upgrader
	subscriber EventSubscriber
	log        *logrus.Logger
}

// NewEventsHandler allowedOrigins 支持 "*"、精确匹配和 *.example.com
func NewEventsHandler(subscriber EventSubscriber, allowedOrigins []string) *EventsHandler {
	return &EventsHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 同源或非浏览器客户端
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || matchOrigin(origin, allowed) {
						return true
					}
				}
				logger.GetLogger().Warnf("WebSocket连接被拒绝，非法Origin: %s", origin)
				return false
			},
			ReadBufferSize:  1024 * 32,
			WriteBufferSize: 1024 * 32,
		},
		subscriber: subscriber,
		log:        logger.GetLogger(),
	}
}

// Stream 升级连接并持续推送事件，令牌通过 ?token= 传递
func (h *EventsHandler) Stream(c *gin.Context) {
	tenantID := middleware.TenantID(c)
	if tenantID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "缺少租户标识"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket升级失败")
		return
	}
	defer conn.Close()

	fields := logrus.Fields{"tenant_id": tenantID, "user_id": middleware.UserID(c)}
	h.log.WithFields(fields).Info("事件订阅已建立")
	h.relay(conn, tenantID)
	h.log.WithFields(fields).Info("事件订阅已关闭")
}

func (h *EventsHandler) relay(conn *websocket.Conn, tenantID uint) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.subscriber.Subscribe(ctx, tenantID)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.WithError(err).Error("订阅事件频道失败")
		return
	}

	go h.readPump(conn, cancel)

	ch := pubsub.Channel()
	pingTicker := time.NewTicker(eventsPingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// 载荷已是 JSON 编码的事件
			conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.log.WithError(err).Warn("推送事件失败")
				return
			}
		}
	}
}

// readPump 只处理 pong 和关闭帧
func (h *EventsHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Warn("WebSocket异常关闭")
			}
			return
		}
	}
}

// matchOrigin 精确匹配或通配符子域名匹配（*.example.com）
func matchOrigin(origin, allowed string) bool {
	if origin == allowed {
		return true
	}
	if !strings.HasPrefix(allowed, "*.") {
		return false
	}

	domain := allowed[2:]
	host := origin
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
