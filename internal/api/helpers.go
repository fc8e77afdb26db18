package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"speshway/internal/api/middleware"
	"speshway/internal/cache"
)

func userIDFromContext(c *gin.Context) (uint, bool) {
	return middleware.UserIDFromContext(c)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// jsonArrayField validates an optional JSON-array form value. Multipart
// forms carry array fields as JSON-encoded strings.
func jsonArrayField(value string) (datatypes.JSON, bool) {
	if value == "" {
		return nil, true
	}
	raw := []byte(value)
	var parsed []any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, false
	}
	return datatypes.JSON(raw), true
}

// invalidateCache clears every cached variant under the path prefix.
// Failures are logged and swallowed; readers just see one stale TTL window less.
func invalidateCache(c *gin.Context, store cache.Store, path string) {
	if store == nil {
		return
	}
	if err := store.DeletePrefix(c.Request.Context(), middleware.CachePrefix(path)); err != nil {
		middleware.LoggerFromContext(c).Warn("cache invalidation failed",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}

// deleteObjectAsync destroys a remote asset off the request path.
// Failures are logged, never retried, and never block the primary mutation.
func deleteObjectAsync(logger *slog.Logger, store ObjectStorage, publicID string) {
	if publicID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.DeleteObject(ctx, publicID); err != nil {
			logger.Warn("delete remote asset failed",
				slog.String("public_id", publicID),
				slog.Any("error", err),
			)
		}
	}()
}
