package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/internal/service/sideeffect"
	pasetotoken "github.com/evcare-vn/evcare_backend/pkg/paseto"
)

func userIDFromClaims(c fiber.Ctx) (primitive.ObjectID, bool) {
	claims, found := pasetotoken.ClaimsFromFiber(c)
	if !found {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// sideEffectView is the wire shape for a best-effort collaborator outcome.
// The core write committed either way; clients see which follow-ups stuck.
type sideEffectView struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func sideEffectViews(outcomes []sideeffect.Outcome) []sideEffectView {
	if len(outcomes) == 0 {
		return nil
	}
	views := make([]sideEffectView, 0, len(outcomes))
	for _, o := range outcomes {
		v := sideEffectView{Name: o.Name, OK: o.OK()}
		if o.Err != nil {
			v.Error = o.Err.Error()
		}
		views = append(views, v)
	}
	return views
}
