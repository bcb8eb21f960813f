// internal/app/features/organizations/register.go
package organizations

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/rentity/internal/app/store"
	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/app/system/apikey"
	"github.com/dalemusser/rentity/internal/app/system/inputval"
	"github.com/dalemusser/rentity/internal/app/system/jsonbody"
	"github.com/dalemusser/rentity/internal/app/system/normalize"
	"github.com/dalemusser/rentity/internal/app/system/sanitize"
	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader carries the plaintext key in the registration response. It
// is the only time the key is ever returned.
const APIKeyHeader = "x-api-key"

type registerInput struct {
	FName        string `json:"fname" validate:"notblank"`
	LName        string `json:"lname" validate:"notblank"`
	Email        string `json:"email" validate:"notblank"`
	Organization string `json:"organization" validate:"notblank"`
	Password     string `json:"password"`
}

type accountResponse struct {
	Account models.Organization `json:"account"`
}

// HandleRegister creates an organization and its API key.
//
// Route: POST /organizations
//
//	201 + x-api-key header + {"account": {...}}
//	400 missing fields or malformed email
//	403 organization name already taken
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := jsonbody.Decode(w, r, h.MaxBody, &in); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	in.FName = sanitize.PlainText(in.FName)
	in.LName = sanitize.PlainText(in.LName)
	in.Email = normalize.Email(in.Email)
	in.Organization = normalize.ResourceName(in.Organization)

	if verrs := inputval.Struct(in); verrs != nil {
		h.Errors.Write(w, r, apierr.Validation(apierr.ReasonMissingFields,
			"missing required fields: "+strings.Join(verrs.Fields(), ", ")))
		return
	}
	if !inputval.IsValidEmail(in.Email) {
		h.Errors.Write(w, r, apierr.Validation(apierr.ReasonInvalidEmail, "improper email format; provide a valid email address"))
		return
	}

	ctx, cancel := timeouts.Detached(r, timeouts.Short())
	defer cancel()

	// Friendly pre-check; the unique index is what actually guarantees it.
	if _, err := h.Store.Orgs.GetByName(ctx, in.Organization); err == nil {
		h.Errors.Write(w, r, duplicateOrg())
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.Errors.Write(w, r, apierr.Storage("check organization name", err))
		return
	}

	key, err := apikey.Generate()
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("generate api key", err))
		return
	}
	sealed, err := h.Cipher.Encrypt(key)
	if err != nil {
		h.Errors.Write(w, r, apierr.Cipher("encrypt api key", err))
		return
	}

	org := models.Organization{
		OrganizationID: uuid.NewString(),
		Organization:   in.Organization,
		FName:          in.FName,
		LName:          in.LName,
		Email:          in.Email,
		APIKey:         sealed,
		KeyExpiration:  h.Now().Add(h.KeyLifetime).UnixMilli(),
		Verified:       true,
		LoggedIn:       true,
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
		if err != nil {
			h.Errors.Write(w, r, apierr.Validation(apierr.ReasonInvalidBody, "password cannot be used"))
			return
		}
		org.PasswordHash = string(hash)
	}

	created, err := h.Store.Orgs.Create(ctx, org)
	if errors.Is(err, store.ErrDuplicate) {
		h.Errors.Write(w, r, duplicateOrg())
		return
	}
	if err != nil {
		h.Errors.Write(w, r, apierr.Storage("create organization", err))
		return
	}

	h.Log.Info("organization registered",
		zap.String("organization", created.Organization),
		zap.String("organization_id", created.OrganizationID))
	h.Audit.OrgRegistered(ctx, r, created.OrganizationID, created.Organization)

	w.Header().Set(APIKeyHeader, key)
	jsonbody.Write(w, http.StatusCreated, accountResponse{Account: created})
}

func duplicateOrg() error {
	return apierr.Duplicate(http.StatusForbidden, "the organization name already exists; choose another")
}
