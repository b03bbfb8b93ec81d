package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docbin/internal/http/middleware"
	"docbin/internal/model"
	"docbin/internal/service"
	"docbin/internal/sweeper"
)

// Sweeper triggers one synchronous retention sweep.
type Sweeper interface {
	RunNow(ctx context.Context) (*sweeper.Stats, error)
}

type cascadeOp func(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error)

// authorize resolves the actor and asks the authorizer. It writes the error response itself
// and returns ok=false when the request must stop.
func authorize(c *fiber.Ctx, authz Authorizer, action string, target model.EntityRef) (service.Actor, bool, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return actor, false, writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "actor is required")
	}
	if !authz.Allow(c.UserContext(), actor, action, target) {
		return actor, false, writeError(c, fiber.StatusForbidden, "FORBIDDEN", "action not permitted")
	}
	return actor, true, nil
}

// cascadeHandler runs one lifecycle operation. Partial cascade failures answer 207 with the result.
func cascadeHandler(kind model.EntityKind, action string, authz Authorizer, op cascadeOp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		actor, ok, err := authorize(c, authz, action, model.EntityRef{Kind: kind, ID: id})
		if !ok {
			return err
		}

		res, err := op(c.UserContext(), actor, id)
		var partial *service.PartialCascadeFailure
		if errors.As(err, &partial) && res != nil {
			return c.Status(fiber.StatusMultiStatus).JSON(res)
		}
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

func BinFolder(svc service.LifecycleService, authz Authorizer) fiber.Handler {
	return cascadeHandler(model.KindFolder, service.ActionBin, authz, svc.BinFolder)
}

func RestoreFolder(svc service.LifecycleService, authz Authorizer) fiber.Handler {
	return cascadeHandler(model.KindFolder, service.ActionRestore, authz, svc.RestoreFolder)
}

func PurgeFolder(svc service.LifecycleService, authz Authorizer) fiber.Handler {
	return cascadeHandler(model.KindFolder, service.ActionPurge, authz, svc.PurgeFolder)
}

func BinFile(svc service.LifecycleService, authz Authorizer) fiber.Handler {
	return cascadeHandler(model.KindFile, service.ActionBin, authz, svc.BinFile)
}

func RestoreFile(svc service.LifecycleService, authz Authorizer) fiber.Handler {
	return cascadeHandler(model.KindFile, service.ActionRestore, authz, svc.RestoreFile)
}

func PurgeFile(svc service.LifecycleService, authz Authorizer) fiber.Handler {
	return cascadeHandler(model.KindFile, service.ActionPurge, authz, svc.PurgeFile)
}

// GetFolder returns a folder with its lifecycle fields.
func GetFolder(svc service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		f, err := svc.GetFolder(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(f)
	}
}

// GetFile returns a file with its lifecycle fields.
func GetFile(svc service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		f, err := svc.GetFile(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(f)
	}
}

// ListBinned returns every binned folder and file.
func ListBinned(svc service.LifecycleService, authz Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := authorize(c, authz, actionList, model.EntityRef{}); !ok {
			return err
		}
		items, err := svc.ListBinned(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}

// RunSweep triggers one retention sweep and returns its counts.
func RunSweep(sw Sweeper, authz Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := authorize(c, authz, actionSweep, model.EntityRef{}); !ok {
			return err
		}
		stats, err := sw.RunNow(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{
			"purged":         stats.Total(),
			"folders_purged": stats.FoldersPurged,
			"files_purged":   stats.FilesPurged,
			"failed":         stats.Failed,
			"duration_ms":    stats.Duration().Milliseconds(),
		})
	}
}
