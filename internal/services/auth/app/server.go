// Package app exposes the account HTTP endpoints: registration and login.
package app

import (
	"log"
	"net/http"
	"time"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
	"github.com/hanulsoft/jantable/internal/services/auth/storage"
	"github.com/hanulsoft/jantable/internal/services/auth/token"
	"github.com/hanulsoft/jantable/internal/services/auth/user"
	"github.com/hanulsoft/jantable/internal/services/shared/httpapi"
)

type credentialsPayload struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type signupResponse struct {
	ID string `json:"id"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Handler serves the account endpoints on /api/signup and /api/login.
func Handler(store storage.Store, issuer *token.Issuer, now func() time.Time) http.Handler {
	if now == nil {
		now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/signup", func(w http.ResponseWriter, r *http.Request) {
		var payload credentialsPayload
		if err := httpapi.DecodeBody(r, &payload); err != nil {
			httpapi.WriteError(w, err)
			return
		}

		account, err := user.New(payload.ID, payload.Password, now)
		if err != nil {
			httpapi.WriteError(w, err)
			return
		}
		if err := store.CreateUser(r.Context(), account); err != nil {
			httpapi.WriteError(w, err)
			return
		}
		log.Printf("auth: user registered id=%s", account.ID)
		httpapi.WriteJSON(w, http.StatusCreated, signupResponse{ID: account.ID})
	})

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var payload credentialsPayload
		if err := httpapi.DecodeBody(r, &payload); err != nil {
			httpapi.WriteError(w, err)
			return
		}
		if payload.ID == "" || payload.Password == "" {
			httpapi.WriteError(w, apperrors.New(apperrors.CodeMissingField, "id and password are required"))
			return
		}

		account, err := store.GetUser(r.Context(), payload.ID)
		if err != nil {
			httpapi.WriteError(w, err)
			return
		}
		if err := account.Authenticate(payload.Password); err != nil {
			httpapi.WriteError(w, err)
			return
		}

		credential, err := issuer.Mint(account.ID)
		if err != nil {
			httpapi.WriteError(w, apperrors.Wrap(apperrors.CodeInternal, "mint token", err))
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, loginResponse{Token: credential})
	})

	return mux
}
