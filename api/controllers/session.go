package controllers

import (
	"net/http"

	"github.com/angelmondragon/suuq-marketplace/api/middleware"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
)

func requireSession(r *http.Request) (string, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id missing")
	}
	return sessionID, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
