package books

import (
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/middlewares"
	"github.com/openshelf/library-api/internal/audit"
	"github.com/openshelf/library-api/internal/store/catalog"
)

// recordMutation runs the two side effects every catalog write shares: an
// async audit entry and a version bump that invalidates cached listings.
func recordMutation(r *http.Request, rdb *redis.Client, action, targetType, targetID string, detail any) {
	actor, _ := middlewares.UserIDFrom(r.Context())
	audit.Record(audit.Event{
		ActorID:    actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
	})
	if err := catalog.BumpVersion(r.Context(), rdb); err != nil {
		log.Printf("[catalog] bump version failed: %v", err)
	}
}
