package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/pkg/middleware/requestid"
)

const (
	metaKey      = "response_meta"
	metaStartKey = "response_meta_start"
)

// ResponseMeta starts the per-request meta block returned alongside data.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit flags whether the payload was served from Redis.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// SetMeta adds a key to the meta block.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta, ok := c.Get(metaKey)
	if !ok {
		meta = map[string]interface{}{}
		c.Set(metaKey, meta)
	}
	if typed, ok := meta.(map[string]interface{}); ok {
		typed[key] = value
	}
}

// Meta snapshots the meta block with elapsed time and request id filled in.
// It returns nil when nothing was recorded and ResponseMeta is not installed.
func Meta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	out := map[string]interface{}{}
	if meta, ok := c.Get(metaKey); ok {
		if typed, ok := meta.(map[string]interface{}); ok {
			for k, v := range typed {
				out[k] = v
			}
		}
	}
	if start, ok := c.Get(metaStartKey); ok {
		if t, ok := start.(time.Time); ok {
			out["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
