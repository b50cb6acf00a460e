// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daryllundy/chatgpt-exporter/internal/api"
	"github.com/daryllundy/chatgpt-exporter/internal/archive"
	"github.com/daryllundy/chatgpt-exporter/internal/assets"
	"github.com/daryllundy/chatgpt-exporter/internal/checkpoint"
	"github.com/daryllundy/chatgpt-exporter/internal/history"
	"github.com/daryllundy/chatgpt-exporter/internal/model"
	"github.com/daryllundy/chatgpt-exporter/internal/normalize"
	"github.com/daryllundy/chatgpt-exporter/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrRunActive is returned when a second run is started while one
	// is in flight. Runs are rejected, never queued.
	ErrRunActive = errors.New("an export run is already active")

	// ErrNothingToExport is returned when scope resolution yields no
	// conversation ids.
	ErrNothingToExport = errors.New("no conversations to export")

	// ErrNoCheckpoint is returned when --resume is requested but no
	// resumable checkpoint exists.
	ErrNoCheckpoint = errors.New("no resumable checkpoint found")
)

// =============================================================================
// PHASES AND SCOPES
// =============================================================================

// Phase is the coordinator's state machine position.
type Phase string

const (
	PhaseInit        Phase = "init"
	PhaseDiscovering Phase = "discovering"
	PhaseExporting   Phase = "exporting"
	PhasePackaging   Phase = "packaging"
	PhaseDone        Phase = "done"
	PhaseError       Phase = "error"
	PhaseCancelled   Phase = "cancelled"
)

// Scope selects which conversations enter the batch.
type Scope string

const (
	// ScopeCurrent exports exactly one conversation by id.
	ScopeCurrent Scope = "current"
	// ScopeIDs exports an explicit id list.
	ScopeIDs Scope = "ids"
	// ScopeAll enumerates every conversation via discovery.
	ScopeAll Scope = "all"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Fetcher retrieves one raw conversation payload.
type Fetcher interface {
	FetchConversation(ctx context.Context, id string) ([]byte, error)
}

// Discoverer enumerates conversation metadata with transparent
// pagination. The api.Client implements this.
type Discoverer interface {
	ListAll(ctx context.Context, fn func(items []api.ConversationItem) error) error
}

// AssetResolver fetches image bytes by asset id. A nil asset with a
// nil error means the image is unobtainable and the renderers fall
// back to placeholders.
type AssetResolver interface {
	Resolve(ctx context.Context, assetID, mimeHint string) (*assets.Asset, error)
}

// SnapshotFunc supplies a DOM snapshot for one conversation. It is the
// fallback source when the primary payload fails or normalizes to zero
// messages; a nil func disables the fallback.
type SnapshotFunc func(ctx context.Context, id string) ([]byte, error)

// RunLog records runs and per-item outcomes durably. The history
// package implements this; a nil log disables recording.
type RunLog interface {
	BeginRun(ctx context.Context, run history.Run) error
	FinishRun(ctx context.Context, runID string, status history.RunStatus, exported, failed int, archivePath string) error
	RecordOutcome(ctx context.Context, o history.Outcome) error
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Config wires the coordinator's collaborators. Fetcher, Resolver and
// Checkpoints are required; the rest are optional.
type Config struct {
	Fetcher     Fetcher
	Discoverer  Discoverer
	Resolver    AssetResolver
	Checkpoints checkpoint.Store
	RunLog      RunLog
	DOMSnapshot SnapshotFunc
	Logf        func(format string, args ...any)
}

// Coordinator runs exports. At most one run is active at a time.
type Coordinator struct {
	cfg Config

	mu     sync.Mutex
	active bool
	phase  Phase
}

// New validates the wiring and returns a coordinator in the init
// phase.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("coordinator: fetcher is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("coordinator: asset resolver is required")
	}
	if cfg.Checkpoints == nil {
		return nil, errors.New("coordinator: checkpoint store is required")
	}
	return &Coordinator{cfg: cfg, phase: PhaseInit}, nil
}

// Phase reports the current state machine position.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Coordinator) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

func (c *Coordinator) logf(format string, args ...any) {
	if c.cfg.Logf != nil {
		c.cfg.Logf(format, args...)
	}
}

// =============================================================================
// OPTIONS AND RESULTS
// =============================================================================

// Options parameterize one run.
type Options struct {
	Scope     Scope
	IDs       []string
	Formats   []string
	Template  string
	OutputDir string
	Resume    bool
}

// Result summarizes a finished run.
type Result struct {
	RunID       string
	ArchivePath string
	Exported    int
	Failed      int
	Empty       int
	Failures    []archive.Failure
}

// item is one batch entry: the id plus whatever discovery knew about
// it.
type item struct {
	ID    string
	Title string
	Group string
}

// =============================================================================
// PLANNING
// =============================================================================

// Plan resolves the batch scope without fetching any conversation
// bodies. It backs dry runs and the list command.
func (c *Coordinator) Plan(ctx context.Context, opts Options) ([]api.ConversationItem, error) {
	items, err := c.resolveScope(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]api.ConversationItem, len(items))
	for i, it := range items {
		out[i] = api.ConversationItem{ID: it.ID, Title: it.Title, GizmoID: it.Group}
	}
	return out, nil
}

// resolveScope turns the scope selector into an ordered id list.
func (c *Coordinator) resolveScope(ctx context.Context, opts Options) ([]item, error) {
	switch opts.Scope {
	case ScopeCurrent:
		if len(opts.IDs) != 1 {
			return nil, errors.New("current scope requires exactly one conversation id")
		}
		return []item{{ID: opts.IDs[0]}}, nil

	case ScopeIDs:
		if len(opts.IDs) == 0 {
			return nil, ErrNothingToExport
		}
		items := make([]item, 0, len(opts.IDs))
		seen := make(map[string]bool)
		for _, id := range opts.IDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			items = append(items, item{ID: id})
		}
		return items, nil

	case ScopeAll:
		if c.cfg.Discoverer == nil {
			return nil, errors.New("all scope requires a discovery client")
		}
		var items []item
		err := c.cfg.Discoverer.ListAll(ctx, func(page []api.ConversationItem) error {
			for _, entry := range page {
				items = append(items, item{ID: entry.ID, Title: entry.Title, Group: entry.GizmoID})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("enumerate conversations: %w", err)
		}
		return items, nil

	default:
		return nil, fmt.Errorf("unknown scope %q", opts.Scope)
	}
}

// =============================================================================
// RUN
// =============================================================================

// Run executes one export. Only one run may be active at a time; a
// concurrent call returns ErrRunActive immediately.
func (c *Coordinator) Run(ctx context.Context, opts Options) (*Result, error) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil, ErrRunActive
	}
	c.active = true
	c.phase = PhaseInit
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
	}()

	result, err := c.run(ctx, opts)
	switch {
	case err == nil:
		c.setPhase(PhaseDone)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.setPhase(PhaseCancelled)
	default:
		c.setPhase(PhaseError)
	}
	return result, err
}

func (c *Coordinator) run(ctx context.Context, opts Options) (*Result, error) {
	state, items, err := c.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	if c.cfg.RunLog != nil {
		logErr := c.cfg.RunLog.BeginRun(ctx, history.Run{
			ID:        state.RunID,
			StartedAt: time.Now(),
			Scope:     string(opts.Scope),
			Formats:   strings.Join(state.Formats, ","),
		})
		if logErr != nil {
			c.logf("history: %v", logErr)
		}
	}

	result, runErr := c.export(ctx, opts, state, items)
	if c.cfg.RunLog != nil {
		status := history.RunDone
		switch {
		case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
			status = history.RunCancelled
		case runErr != nil:
			status = history.RunFailed
		}
		var exported, failed int
		var archivePath string
		if result != nil {
			exported, failed, archivePath = result.Exported, result.Failed, result.ArchivePath
		}
		if logErr := c.cfg.RunLog.FinishRun(context.WithoutCancel(ctx), state.RunID, status, exported, failed, archivePath); logErr != nil {
			c.logf("history: %v", logErr)
		}
	}
	return result, runErr
}

// prepare resolves or restores the id list and persists it before the
// first item is attempted.
func (c *Coordinator) prepare(ctx context.Context, opts Options) (*checkpoint.State, []item, error) {
	if opts.Resume {
		state, err := c.cfg.Checkpoints.Get()
		if err != nil {
			return nil, nil, fmt.Errorf("read checkpoint: %w", err)
		}
		if state == nil || !state.Resumable() {
			return nil, nil, ErrNoCheckpoint
		}
		// Resume reuses the persisted id list; discovery is not
		// repeated, so the total matches the interrupted run.
		c.logf("resuming run %s: %d of %d already completed",
			state.RunID, len(state.CompletedIDs), len(state.AllIDs))
		items := make([]item, len(state.AllIDs))
		for i, id := range state.AllIDs {
			items[i] = item{ID: id}
		}
		return state, items, nil
	}

	c.setPhase(PhaseDiscovering)
	items, err := c.resolveScope(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, ErrNothingToExport
	}

	state := &checkpoint.State{
		SchemaVersion: checkpoint.SchemaVersion,
		RunID:         uuid.NewString(),
		Scope:         string(opts.Scope),
		Formats:       opts.Formats,
		Status:        checkpoint.StatusStarted,
		AllIDs:        make([]string, len(items)),
	}
	for i, it := range items {
		state.AllIDs[i] = it.ID
	}
	if err := c.cfg.Checkpoints.Set(state); err != nil {
		return nil, nil, fmt.Errorf("persist checkpoint: %w", err)
	}
	return state, items, nil
}

// export walks the batch, packages the archive, and clears the
// checkpoint once the archive is on disk.
func (c *Coordinator) export(ctx context.Context, opts Options, state *checkpoint.State, items []item) (*Result, error) {
	c.setPhase(PhaseExporting)

	result := &Result{RunID: state.RunID}
	var records []archive.Record

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			// Checkpoint already reflects the last completed item;
			// leave it in place for resume.
			return result, err
		}

		completed := state.IsCompleted(it.ID)
		record, outcome, err := c.exportItem(ctx, it)
		if err != nil {
			return result, err
		}

		switch outcome.Status {
		case history.OutcomeExported:
			records = append(records, *record)
			result.Exported++
		case history.OutcomeEmpty:
			result.Empty++
			c.logf("skipping %s: no messages", it.ID)
		case history.OutcomeFailed:
			result.Failed++
			result.Failures = append(result.Failures, archive.Failure{
				ID: it.ID, Title: it.Title, Reason: outcome.Reason,
			})
			c.logf("failed %s: %s", it.ID, outcome.Reason)
		}

		// Failed items stay un-checkpointed so a resumed run retries
		// them. Items already completed before this run keep their
		// existing checkpoint entry.
		if outcome.Status != history.OutcomeFailed && !completed {
			state.MarkCompleted(it.ID)
			state.Status = checkpoint.StatusInProgress
			if err := c.cfg.Checkpoints.Set(state); err != nil {
				return result, fmt.Errorf("persist checkpoint: %w", err)
			}
		}

		if c.cfg.RunLog != nil {
			outcome.RunID = state.RunID
			if logErr := c.cfg.RunLog.RecordOutcome(ctx, outcome); logErr != nil {
				c.logf("history: %v", logErr)
			}
		}
	}

	c.setPhase(PhasePackaging)
	packager := archive.NewPackager(state.Formats, opts.Template)
	data, err := packager.Package(records, result.Failures, result.Empty)
	if err != nil {
		// Catastrophic: the checkpoint survives for a retry.
		return result, fmt.Errorf("package archive: %w", err)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}
	archivePath := filepath.Join(outDir, "chatgpt-export-"+state.RunID+".zip")
	if err := util.AtomicWriteFile(archivePath, data, 0o644); err != nil {
		return result, fmt.Errorf("write archive: %w", err)
	}
	result.ArchivePath = archivePath

	// The archive is handed off; only now is the checkpoint cleared.
	if err := c.cfg.Checkpoints.Remove(); err != nil {
		c.logf("clear checkpoint: %v", err)
	}
	return result, nil
}

// exportItem runs the per-item pipeline: fetch, normalize, fall back
// to the DOM snapshot when needed, validate once, resolve assets. The
// error return is reserved for context cancellation.
func (c *Coordinator) exportItem(ctx context.Context, it item) (*archive.Record, history.Outcome, error) {
	outcome := history.Outcome{ConversationID: it.ID, Title: it.Title}

	conv, reason, err := c.loadConversation(ctx, it)
	if err != nil {
		return nil, outcome, err
	}
	if reason != "" {
		outcome.Status = history.OutcomeFailed
		outcome.Reason = reason
		return nil, outcome, nil
	}

	if it.Group != "" {
		conv.CustomGroup = it.Group
	}
	validated := normalize.Validate(*conv)
	conv = &validated

	if conv.IsEmpty() {
		outcome.Status = history.OutcomeEmpty
		outcome.Title = conv.Title
		return nil, outcome, nil
	}

	resolved, err := c.resolveAssets(ctx, conv)
	if err != nil {
		return nil, outcome, err
	}

	outcome.Status = history.OutcomeExported
	outcome.Title = conv.Title
	return &archive.Record{Conversation: conv, Assets: resolved}, outcome, nil
}

// loadConversation fetches and normalizes the primary payload, then
// tries the DOM snapshot when the payload fails or yields nothing. A
// non-empty reason marks a per-item failure; the error return is for
// cancellation only.
func (c *Coordinator) loadConversation(ctx context.Context, it item) (*model.Conversation, string, error) {
	raw, fetchErr := c.cfg.Fetcher.FetchConversation(ctx, it.ID)
	if fetchErr != nil && ctx.Err() != nil {
		return nil, "", ctx.Err()
	}

	if fetchErr == nil {
		conv := normalize.Normalize(raw)
		if conv.ID == "" {
			conv.ID = it.ID
		}
		if len(conv.Messages) > 0 || c.cfg.DOMSnapshot == nil {
			return &conv, "", nil
		}
		// Zero messages from the primary payload: try the snapshot
		// before concluding the conversation is genuinely empty.
	}

	if c.cfg.DOMSnapshot == nil {
		return nil, fmt.Sprintf("fetch failed: %v", fetchErr), nil
	}

	snapshot, snapErr := c.cfg.DOMSnapshot(ctx, it.ID)
	if snapErr != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		if fetchErr != nil {
			return nil, fmt.Sprintf("fetch failed: %v; snapshot failed: %v", fetchErr, snapErr), nil
		}
		conv := normalize.Normalize(nil)
		conv.ID = it.ID
		return &conv, "", nil
	}

	conv := normalize.NormalizeDOM(it.ID, snapshot)
	return &conv, "", nil
}

// resolveAssets fetches every referenced image. Unobtainable assets
// are simply absent from the map and render as placeholders.
func (c *Coordinator) resolveAssets(ctx context.Context, conv *model.Conversation) (map[string]*assets.Asset, error) {
	hints := make(map[string]string)
	for _, msg := range conv.Messages {
		for _, part := range msg.Parts {
			if img, ok := part.(model.ImagePart); ok && img.AssetID != "" {
				if _, seen := hints[img.AssetID]; !seen {
					hints[img.AssetID] = img.MimeType
				}
			}
		}
	}

	resolved := make(map[string]*assets.Asset, len(hints))
	for _, assetID := range conv.AssetIDs() {
		asset, err := c.cfg.Resolver.Resolve(ctx, assetID, hints[assetID])
		if err != nil {
			return nil, err
		}
		if asset != nil {
			resolved[assetID] = asset
		}
	}
	return resolved, nil
}
