package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

// RegisterRoutes registers the account and link operations. Signup and login share the
// auth rate limit budget; everything else is limited by method.
func RegisterRoutes(api huma.API, auth *AuthHandler, links *LinkHandler) {
	authScope := map[string]any{ratelimit.MetadataKey: ratelimit.ScopeAuth}

	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/signup",
		Summary:       "Create an account",
		Description:   "Registers an email and password and starts a session.",
		Tags:          []string{"Accounts"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
		Metadata:      authScope,
	}, auth.Signup)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Log in",
		Tags:        []string{"Accounts"},
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
		Metadata:    authScope,
	}, auth.Login)

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/logout",
		Summary:     "Log out",
		Tags:        []string{"Accounts"},
		Errors:      []int{http.StatusUnauthorized},
	}, auth.Logout)

	huma.Register(api, huma.Operation{
		OperationID: "current-user",
		Method:      http.MethodGet,
		Path:        "/user",
		Summary:     "Current account",
		Tags:        []string{"Accounts"},
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, auth.CurrentUser)

	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/links",
		Summary:       "Create a short link",
		Description:   "Shortens a URL under the caller's account, with an optional custom code and expiry.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusServiceUnavailable},
	}, links.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID:   "create-link-legacy",
		Method:        http.MethodPost,
		Path:          "/add",
		Summary:       "Create a short link (legacy path)",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Deprecated:    true,
	}, links.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List the caller's links",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusUnauthorized},
	}, links.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "delete-link",
		Method:      http.MethodDelete,
		Path:        "/links/{code}",
		Summary:     "Delete a short link",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, links.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "delete-link-legacy",
		Method:      http.MethodPost,
		Path:        "/delete",
		Summary:     "Delete a short link (legacy path)",
		Tags:        []string{"Links"},
		Deprecated:  true,
	}, links.LegacyDeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Follow a short link",
		Description: "Redirects to the destination URL. Expired links answer 410.",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound, http.StatusGone},
	}, links.Redirect)
}
