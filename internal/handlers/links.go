package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler serves link management and the public redirect.
type LinkHandler struct {
	links   *shortener.Registry
	baseURL string
	publish analytics.Publishers
	logger  *zap.Logger
}

// NewLinkHandler creates a LinkHandler. Short URLs are built as baseURL + "/" + code.
func NewLinkHandler(
	links *shortener.Registry,
	baseURL string,
	publish analytics.Publishers,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		links:   links,
		baseURL: strings.TrimRight(baseURL, "/"),
		publish: publish,
		logger:  logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	ownerID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	link, err := h.links.CreateLink(ctx, shortener.CreateParams{
		OwnerID:    ownerID,
		URL:        req.Body.URL,
		CustomCode: req.Body.Code,
		ExpiresIn:  req.Body.ExpiresIn,
	})
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrValidation):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, shortener.ErrConflict):
			return nil, huma.Error409Conflict("short code already exists")
		case errors.Is(err, shortener.ErrExhausted):
			h.logger.Warn("short code space exhausted", zap.Error(err))

			return nil, huma.Error503ServiceUnavailable("could not allocate a short code, try again")
		default:
			h.logger.Error("failed to create link", zap.String("owner", ownerID), zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to create link")
		}
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		Code:      string(link.Code),
		OwnerID:   link.OwnerID,
		URL:       link.URL,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err := h.publish.LinkCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	shortURL := h.shortURL(link.Code)

	resp := &CreateLinkResponse{Location: shortURL}
	resp.Body.ShortCode = string(link.Code)
	resp.Body.ShortURL = shortURL
	resp.Body.OriginalURL = link.URL
	resp.Body.ExpiresAt = link.ExpiresAt

	return resp, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, _ *struct{}) (*ListLinksResponse, error) {
	ownerID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	links, err := h.links.ListByOwner(ctx, ownerID)
	if err != nil {
		h.logger.Error("failed to list links", zap.String("owner", ownerID), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to retrieve links")
	}

	resp := &ListLinksResponse{Body: make([]LinkItem, 0, len(links))}

	for _, link := range links {
		resp.Body = append(resp.Body, LinkItem{
			ShortCode: string(link.Code),
			URL:       link.URL,
			CreatedAt: link.CreatedAt,
			ExpiresAt: link.ExpiresAt,
			IsExpired: link.IsExpired,
		})
	}

	return resp, nil
}

func (h *LinkHandler) DeleteLink(ctx context.Context, req *CodeRequest) (*MessageResponse, error) {
	return h.deleteLink(ctx, req.Code)
}

// LegacyDeleteLink accepts the code in the body for POST /delete.
func (h *LinkHandler) LegacyDeleteLink(ctx context.Context, req *LegacyDeleteRequest) (*MessageResponse, error) {
	code := strings.TrimSpace(req.Body.Code)
	if code == "" {
		return nil, huma.Error400BadRequest("short code is required")
	}

	return h.deleteLink(ctx, code)
}

func (h *LinkHandler) deleteLink(ctx context.Context, code string) (*MessageResponse, error) {
	callerID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	// The caller's own record goes first, expired or not, even if the code now
	// belongs to someone else.
	deleted, err := h.links.Delete(ctx, callerID, shortener.Code(code))
	if err != nil {
		h.logger.Error("failed to delete link", zap.String("code", code), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to delete link")
	}

	if !deleted {
		return nil, h.missingLinkError(ctx, callerID, code)
	}

	event := &analytics.LinkDeletedEvent{Code: code, OwnerID: callerID, DeletedAt: time.Now()}
	if err := h.publish.LinkDeleted(ctx, event); err != nil {
		h.logger.Error("failed to publish delete event", zap.String("code", code), zap.Error(err))
	}

	return &MessageResponse{Body: MessageBody{Message: "link deleted"}}, nil
}

// missingLinkError explains why callerID had no record for code: 403 when another
// account holds it, 404 otherwise.
func (h *LinkHandler) missingLinkError(ctx context.Context, callerID, code string) error {
	ownerID, err := h.links.GetOwner(ctx, shortener.Code(code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return huma.Error404NotFound("short code not found")
		}

		h.logger.Error("failed to look up owner", zap.String("code", code), zap.Error(err))

		return huma.Error500InternalServerError("failed to delete link")
	}

	// Removed by a concurrent request.
	if ownerID == callerID {
		return huma.Error404NotFound("short code not found")
	}

	return huma.Error403Forbidden("you don't own this link")
}

func (h *LinkHandler) Redirect(ctx context.Context, req *CodeRequest) (*RedirectResponse, error) {
	// Paths like /favicon.ico are never short codes.
	if strings.Contains(req.Code, ".") {
		return nil, huma.Error404NotFound("not found")
	}

	link, err := h.links.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrNotFound):
			return nil, huma.Error404NotFound("short code not found")
		case errors.Is(err, shortener.ErrExpired):
			return nil, huma.Error410Gone("this link has expired")
		default:
			h.logger.Error("failed to resolve link", zap.String("code", req.Code), zap.Error(err))

			return nil, huma.Error500InternalServerError("an error occurred")
		}
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkAccessedEvent{
		Code:       req.Code,
		OwnerID:    link.OwnerID,
		AccessedAt: time.Now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err := h.publish.LinkAccessed(ctx, event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return &RedirectResponse{Status: http.StatusFound, Location: link.URL}, nil
}

func (h *LinkHandler) shortURL(code shortener.Code) string {
	return h.baseURL + "/" + string(code)
}
