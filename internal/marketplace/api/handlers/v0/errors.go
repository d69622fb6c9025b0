package v0

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agenthub-dev/agenthub/internal/marketplace/auth"
	"github.com/agenthub-dev/agenthub/internal/marketplace/database"
	"github.com/agenthub-dev/agenthub/internal/marketplace/github"
	"github.com/agenthub-dev/agenthub/internal/marketplace/service"
	"github.com/agenthub-dev/agenthub/internal/marketplace/validation"
)

// mapServiceError translates service and database errors into Huma HTTP errors.
func mapServiceError(err error) error {
	var metaErr *validation.MetadataError
	var fileErr *service.RequiredFileError

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return huma.Error401Unauthorized("authentication required", err)
	case errors.Is(err, github.ErrInvalidRepoURL):
		return huma.Error400BadRequest("invalid repository URL; expected https://github.com/{owner}/{repo}", err)
	case errors.Is(err, github.ErrRepositoryNotFound):
		return huma.Error404NotFound("repository not found or not accessible", err)
	case errors.Is(err, github.ErrRateLimited):
		return huma.Error429TooManyRequests("GitHub API rate limit exceeded; configure an access token or retry later", err)
	case errors.Is(err, validation.ErrMetadataUnparsable):
		return huma.Error400BadRequest("agent.yaml could not be parsed", err)
	case errors.As(err, &metaErr):
		return huma.Error422UnprocessableEntity(metaErr.Error())
	case errors.As(err, &fileErr):
		return huma.Error422UnprocessableEntity(fileErr.Error())
	case errors.Is(err, database.ErrAlreadyExists):
		return huma.Error409Conflict("an agent for this repository has already been published", err)
	case errors.Is(err, database.ErrSlugConflict):
		return huma.Error409Conflict("agent slug conflict", err)
	case errors.Is(err, database.ErrNotFound):
		return huma.Error404NotFound("agent not found", err)
	case errors.Is(err, database.ErrInvalidInput):
		return huma.Error400BadRequest("invalid input", err)
	default:
		return huma.Error500InternalServerError("internal server error", err)
	}
}
