package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docbin/internal/lifecycle"
	"docbin/internal/logging"
	"docbin/internal/metrics"
	"docbin/internal/model"
	"docbin/internal/notify"
	"docbin/internal/repository"
	"docbin/internal/storage"
)

const (
	ActionBin     = "bin"
	ActionRestore = "restore"
	ActionPurge   = "purge"
)

var tracer = otel.Tracer("docbin/internal/service")

// LifecycleService exposes the bin, restore and purge use cases for folders and files.
//
// Cascading operations return the CascadeResult even when some entities failed; in that case
// the error is the *PartialCascadeFailure from CascadeResult.Err. Failures on the target itself
// (ErrNotFound, lifecycle.ErrInvalidState, *PathSecurityError) are returned with a nil result.
type LifecycleService interface {
	// BinFile moves an active file to the bin.
	BinFile(ctx context.Context, actor Actor, id string) (*CascadeResult, error)
	// BinFolder moves an active folder and everything below it to the bin.
	// Descendants that were already binned keep their original timestamps.
	BinFolder(ctx context.Context, actor Actor, id string) (*CascadeResult, error)

	// RestoreFile restores a file and any binned ancestor folders.
	RestoreFile(ctx context.Context, actor Actor, id string) (*CascadeResult, error)
	// RestoreFolder restores binned ancestors, the folder and its whole subtree.
	RestoreFolder(ctx context.Context, actor Actor, id string) (*CascadeResult, error)

	// PurgeFile permanently deletes a binned file. A file that no longer exists is a success.
	PurgeFile(ctx context.Context, actor Actor, id string) (*CascadeResult, error)
	// PurgeFolder permanently deletes a binned folder and its subtree, whatever the descendants' state.
	PurgeFolder(ctx context.Context, actor Actor, id string) (*CascadeResult, error)

	// ListBinned returns every binned folder and file, most recently binned first.
	ListBinned(ctx context.Context) ([]model.BinnedItem, error)

	GetFolder(ctx context.Context, id string) (*model.Folder, error)
	GetFile(ctx context.Context, id string) (*model.File, error)
}

// Options configures a LifecycleService. Zero values fall back to defaults.
type Options struct {
	Retention   time.Duration
	StorageRoot string
	Clock       func() time.Time
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	Notifier    notify.Notifier
}

type lifecycleService struct {
	repo      repository.TreeRepository
	rec       *reconciler
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
	metrics   *metrics.Metrics
	notifier  notify.Notifier
}

// NewLifecycleService constructs a LifecycleService over the tree store and its filesystem mirror.
func NewLifecycleService(repo repository.TreeRepository, mirror storage.Mirror, opts Options) LifecycleService {
	if opts.Retention <= 0 {
		opts.Retention = lifecycle.DefaultRetention
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	log := opts.Logger.With().Str("component", "lifecycle").Logger()

	return &lifecycleService{
		repo: repo,
		rec: &reconciler{
			repo:    repo,
			mirror:  mirror,
			root:    opts.StorageRoot,
			log:     log,
			metrics: opts.Metrics,
		},
		retention: opts.Retention,
		now:       opts.Clock,
		log:       log,
		metrics:   opts.Metrics,
		notifier:  opts.Notifier,
	}
}

func (s *lifecycleService) GetFolder(ctx context.Context, id string) (*model.Folder, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	f, err := s.repo.FindFolder(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *lifecycleService) GetFile(ctx context.Context, id string) (*model.File, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	f, err := s.repo.FindFile(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *lifecycleService) BinFile(ctx context.Context, actor Actor, id string) (res *CascadeResult, err error) {
	ctx, span := s.start(ctx, "BinFile", model.KindFile, id)
	defer func() { s.end(span, res, err) }()

	f, err := s.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Bin(f.Lifecycle, s.now(), s.retention)
	if err != nil {
		return nil, fmt.Errorf("bin file %s: %w", id, err)
	}
	if err := s.repo.UpdateFileLifecycle(ctx, id, next); err != nil {
		return nil, s.targetUpdateErr(err)
	}

	res = newResult(ActionBin, f.Ref())
	res.succeed(f.Ref())
	s.finish(ctx, actor, f.Name, res)
	return res, nil
}

func (s *lifecycleService) BinFolder(ctx context.Context, actor Actor, id string) (res *CascadeResult, err error) {
	ctx, span := s.start(ctx, "BinFolder", model.KindFolder, id)
	defer func() { s.end(span, res, err) }()

	f, err := s.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	next, err := lifecycle.Bin(f.Lifecycle, now, s.retention)
	if err != nil {
		return nil, fmt.Errorf("bin folder %s: %w", id, err)
	}
	if err := s.repo.UpdateFolderLifecycle(ctx, id, next); err != nil {
		return nil, s.targetUpdateErr(err)
	}

	res = newResult(ActionBin, f.Ref())
	res.succeed(f.Ref())
	s.cascadeDown(ctx, id, binning(now, s.retention), res)
	s.finish(ctx, actor, f.Name, res)
	return res, res.Err()
}

func (s *lifecycleService) RestoreFile(ctx context.Context, actor Actor, id string) (res *CascadeResult, err error) {
	ctx, span := s.start(ctx, "RestoreFile", model.KindFile, id)
	defer func() { s.end(span, res, err) }()

	f, err := s.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}

	res = newResult(ActionRestore, f.Ref())
	if err := s.restoreAncestors(ctx, f.FolderID, res); err != nil {
		return nil, err
	}
	s.applyFile(ctx, *f, restoring, res)
	s.finish(ctx, actor, f.Name, res)
	return res, res.Err()
}

func (s *lifecycleService) RestoreFolder(ctx context.Context, actor Actor, id string) (res *CascadeResult, err error) {
	ctx, span := s.start(ctx, "RestoreFolder", model.KindFolder, id)
	defer func() { s.end(span, res, err) }()

	f, err := s.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}

	res = newResult(ActionRestore, f.Ref())
	if err := s.restoreAncestors(ctx, f.ParentID, res); err != nil {
		return nil, err
	}
	s.applyFolder(ctx, *f, restoring, res)
	s.cascadeDown(ctx, id, restoring, res)
	s.finish(ctx, actor, f.Name, res)
	return res, res.Err()
}

func (s *lifecycleService) PurgeFile(ctx context.Context, actor Actor, id string) (res *CascadeResult, err error) {
	ctx, span := s.start(ctx, "PurgeFile", model.KindFile, id)
	defer func() { s.end(span, res, err) }()

	ref := model.EntityRef{Kind: model.KindFile, ID: id}
	f, err := s.GetFile(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return newResult(ActionPurge, ref), nil
	}
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanPurge(f.Lifecycle); err != nil {
		return nil, fmt.Errorf("purge file %s: %w", id, err)
	}
	// Once started, a purge runs to completion even if the caller gives up.
	ctx = context.WithoutCancel(ctx)
	if err := s.rec.purgeFile(ctx, f); err != nil {
		return nil, err
	}

	res = newResult(ActionPurge, ref)
	res.succeed(ref)
	s.finish(ctx, actor, f.Name, res)
	return res, nil
}

func (s *lifecycleService) PurgeFolder(ctx context.Context, actor Actor, id string) (res *CascadeResult, err error) {
	ctx, span := s.start(ctx, "PurgeFolder", model.KindFolder, id)
	defer func() { s.end(span, res, err) }()

	f, err := s.GetFolder(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return newResult(ActionPurge, folderRef(id)), nil
	}
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanPurge(f.Lifecycle); err != nil {
		return nil, fmt.Errorf("purge folder %s: %w", id, err)
	}

	st, err := s.collectSubtree(ctx, *f)
	if err != nil {
		return nil, fmt.Errorf("purge folder %s: %w", id, err)
	}
	if err := s.rec.resolveAll(st); err != nil {
		return nil, err
	}

	// The subtree is collected and resolved; from here the purge runs to completion
	// even if the caller gives up, so no folder is left half-deleted.
	ctx = context.WithoutCancel(ctx)
	res = newResult(ActionPurge, f.Ref())
	s.rec.purgeSubtree(ctx, st, res)
	s.finish(ctx, actor, f.Name, res)
	return res, res.Err()
}

func (s *lifecycleService) ListBinned(ctx context.Context) ([]model.BinnedItem, error) {
	ctx, span := tracer.Start(ctx, "LifecycleService.ListBinned")
	defer span.End()

	folders, err := s.repo.ListBinnedFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list binned folders: %w", err)
	}
	files, err := s.repo.ListBinnedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list binned files: %w", err)
	}

	items := make([]model.BinnedItem, 0, len(folders)+len(files))
	for _, f := range folders {
		items = append(items, model.BinnedFolder(f))
	}
	for _, f := range files {
		items = append(items, model.BinnedFile(f))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DeletedAt.After(items[j].DeletedAt)
	})
	return items, nil
}

// targetUpdateErr maps a failed update of the operation's target row.
func (s *lifecycleService) targetUpdateErr(err error) error {
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("update lifecycle: %w", err)
}

func (s *lifecycleService) start(ctx context.Context, op string, kind model.EntityKind, id string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "LifecycleService."+op, trace.WithAttributes(
		attribute.String("entity.kind", string(kind)),
		attribute.String("entity.id", id),
	))
}

func (s *lifecycleService) end(span trace.Span, res *CascadeResult, err error) {
	if res != nil {
		span.SetAttributes(
			attribute.Int("cascade.succeeded", len(res.Succeeded)),
			attribute.Int("cascade.unchanged", len(res.Unchanged)),
			attribute.Int("cascade.failed", len(res.Failed)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// finish records metrics and logs the cascade, then notifies when anything changed.
// Notification failures never fail the operation.
func (s *lifecycleService) finish(ctx context.Context, actor Actor, name string, res *CascadeResult) {
	for _, r := range res.Succeeded {
		s.metrics.Transition(string(r.Kind), res.Action, "ok")
	}
	for _, r := range res.Unchanged {
		s.metrics.Transition(string(r.Kind), res.Action, "unchanged")
	}
	for _, f := range res.Failed {
		s.metrics.Transition(string(f.Kind), res.Action, "failed")
	}

	evt := s.log.Info()
	if len(res.Failed) > 0 {
		evt = s.log.Warn()
	}
	if rid := logging.RequestIDFrom(ctx); rid != "" {
		evt = evt.Str("request_id", rid)
	}
	evt.Str("action", res.Action).
		Str("actor_id", actor.ID).
		Str("entity_kind", string(res.Target.Kind)).
		Str("entity_id", res.Target.ID).
		Int("succeeded", len(res.Succeeded)).
		Int("unchanged", len(res.Unchanged)).
		Int("failed", len(res.Failed)).
		Msg("cascade finished")

	if len(res.Succeeded) == 0 {
		return
	}
	action := notify.ActionDeleted
	if res.Action == ActionRestore {
		action = notify.ActionRestored
	}
	err := s.notifier.Notify(ctx, notify.Event{
		ActorID:    actor.ID,
		EntityName: name,
		EntityKind: string(res.Target.Kind),
		EntityID:   res.Target.ID,
		Action:     action,
		At:         s.now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("entity_id", res.Target.ID).Msg("notification failed")
	}
}
