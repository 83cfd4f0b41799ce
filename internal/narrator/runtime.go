// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package narrator assembles the narration runtime from a configuration.
package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/zork-narrator/internal/audit"
	"github.com/jeranaias/zork-narrator/internal/cloud"
	"github.com/jeranaias/zork-narrator/internal/companion"
	"github.com/jeranaias/zork-narrator/internal/completion"
	"github.com/jeranaias/zork-narrator/internal/config"
	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/model"
	"github.com/jeranaias/zork-narrator/internal/ollama"
	"github.com/jeranaias/zork-narrator/internal/prompt"
	"github.com/jeranaias/zork-narrator/internal/session"
	"github.com/jeranaias/zork-narrator/internal/storage"
	"github.com/jeranaias/zork-narrator/internal/stream"
	"github.com/jeranaias/zork-narrator/internal/voice"
)

// archiveTimeout bounds writing one turn to the archive.
const archiveTimeout = 5 * time.Second

// ErrClosed is returned by Turn after Close.
var ErrClosed = errors.New("narrator runtime is closed")

// =============================================================================
// OPTIONS
// =============================================================================

type options struct {
	transport    completion.Transport
	surface      companion.Surface
	observers    []stream.Observer
	disableStore bool
	disableAudit bool
	disableVoice bool
}

// Option overrides part of the runtime assembly.
type Option func(*options)

// WithTransport replaces the provider transport.
func WithTransport(t completion.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithCompanionSurface replaces the companion's file surface. It only
// matters when the companion is enabled.
func WithCompanionSurface(s companion.Surface) Option {
	return func(o *options) { o.surface = s }
}

// WithObserver adds a finalize observer.
func WithObserver(obs stream.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithoutStore skips opening the turn archive.
func WithoutStore() Option {
	return func(o *options) { o.disableStore = true }
}

// WithoutAudit skips opening the audit log.
func WithoutAudit() Option {
	return func(o *options) { o.disableAudit = true }
}

// WithoutVoice skips the speech observer even when voice_command is set.
func WithoutVoice() Option {
	return func(o *options) { o.disableVoice = true }
}

// =============================================================================
// RUNTIME
// =============================================================================

// TurnResult is what one narration turn produced.
type TurnResult struct {
	// Number counts turns of this runtime from 1.
	Number int

	// Text is what the renderer was finalized with.
	Text string

	// Reply is the model reply, nil when the turn failed before one arrived.
	Reply *completion.Reply

	// Scene is the companion prompt prepared for this turn, if any.
	Scene    companion.Bundle
	HasScene bool

	Started  time.Time
	Duration time.Duration
}

// Runtime is one assembled narration session.
type Runtime struct {
	cfg     *config.Config
	schema  json.RawMessage
	builder prompt.Builder
	client  *completion.Client
	session *session.Session

	audit     *audit.Log
	store     *storage.Store
	companion *companion.Companion
	speaker   *voice.CommandSpeaker
	observers []stream.Observer

	// turnMu keeps turns of one session from overlapping.
	turnMu sync.Mutex
	turns  atomic.Int64

	closeOnce sync.Once
	closed    atomic.Bool
}

// New assembles a runtime from cfg. The audit log is required; the turn
// archive, companion and speech observer are best effort and are skipped
// with a warning when they cannot start.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	schema, err := cfg.LoadSchema()
	if err != nil {
		return nil, err
	}

	transport, err := o.resolveTransport(cfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		cfg:     cfg,
		schema:  schema,
		session: session.New(),
		builder: prompt.Builder{
			SystemPrompt: prompt.ResolveSystemPrompt(cfg.SystemPrompt, schema),
			UserTemplate: cfg.UserPromptTemplate,
			MaxLogLines:  cfg.MaxLogLines,
		},
		observers: o.observers,
	}

	var auditLog completion.AuditLog
	if !o.disableAudit {
		rt.audit, err = audit.Open(audit.DefaultPath(cfg.LogDirPath()))
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		rt.audit.SetOnFailure(func(err error) {
			logging.Errorf("NARRATOR: audit log write failed: %v", err)
		})
		auditLog = rt.audit
	}

	rt.client = completion.New(transport, auditLog, completion.Options{
		Model:      cfg.Model,
		Schema:     schema,
		SchemaName: completion.DefaultSchemaName,
		MaxTokens:  cfg.MaxTokens,
	})

	if !o.disableStore {
		if store, err := storage.Open(cfg.StoreFilePath()); err != nil {
			logging.Warnf("NARRATOR: turn archive disabled: %v", err)
		} else {
			rt.store = store
		}
	}

	if cfg.Companion.Enabled {
		surface := o.surface
		if surface == nil {
			surface = companion.NewFileSurface(cfg.PreviewFilePath())
		}
		rt.companion = companion.New(surface, companion.Config{
			Options: companion.Options{
				StylePreset:   cfg.Companion.StylePreset,
				NegativeExtra: cfg.Companion.NegativeExtra,
			},
		})
	}

	if cfg.VoiceCommand != "" && !o.disableVoice {
		if speaker, err := voice.NewCommandSpeaker(cfg.VoiceCommand); err != nil {
			logging.Warnf("NARRATOR: speech disabled: %v", err)
		} else {
			rt.speaker = speaker
			rt.observers = append(rt.observers, speaker)
		}
	}

	logging.Infof("NARRATOR: session %s provider=%s model=%q", rt.session.ID(), cfg.Provider, cfg.Model)
	return rt, nil
}

// NewTransport returns the transport cfg.Provider names.
func NewTransport(cfg *config.Config) (completion.Transport, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout(),
			DefaultModel: cfg.Model,
		}), nil
	case config.ProviderOpenAI:
		return cloud.NewClient(cfg.APIKey).
			WithBaseURL(cfg.BaseURL).
			WithTimeout(cfg.Timeout()).
			WithModel(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// ResolveTransport returns the transport an Option supplies, or the one
// cfg.Provider names. Commands that call the model outside a narration
// turn use it.
func ResolveTransport(cfg *config.Config, opts ...Option) (completion.Transport, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o.resolveTransport(cfg)
}

func (o *options) resolveTransport(cfg *config.Config) (completion.Transport, error) {
	if o.transport != nil {
		return o.transport, nil
	}
	return NewTransport(cfg)
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() *config.Config {
	return r.cfg
}

// Session returns the shared session state.
func (r *Runtime) Session() *session.Session {
	return r.session
}

// Store returns the turn archive, or nil when it is disabled.
func (r *Runtime) Store() *storage.Store {
	return r.store
}

// AuditPath returns the audit log path, or "" when auditing is disabled.
func (r *Runtime) AuditPath() string {
	if r.audit == nil {
		return ""
	}
	return r.audit.Path()
}

// Feed appends game lines to the session transcript.
func (r *Runtime) Feed(lines ...string) {
	r.session.Append(lines...)
}

// Window returns the transcript excerpt the next turn will use.
func (r *Runtime) Window() []string {
	return r.session.Window(r.cfg.MaxLogLines)
}

// Prompt builds the messages the next turn would send, without sending them.
func (r *Runtime) Prompt() ([]model.Message, error) {
	return r.builder.Build(r.Window())
}

// Busy reports whether a turn is running.
func (r *Runtime) Busy() bool {
	if r.turnMu.TryLock() {
		r.turnMu.Unlock()
		return false
	}
	return true
}

// Turn runs one narration turn over the current window and streams it into
// renderer. Concurrent calls wait for the running turn to finish.
//
// The returned result is non-nil whenever the renderer was started, even
// when err reports a transport failure or cancellation.
func (r *Runtime) Turn(ctx context.Context, renderer stream.Renderer) (*TurnResult, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	r.turnMu.Lock()
	defer r.turnMu.Unlock()
	if r.closed.Load() {
		return nil, ErrClosed
	}

	window := r.Window()
	result := &TurnResult{
		Number:  int(r.turns.Add(1)),
		Started: time.Now(),
	}

	src := &stream.NarrationSource{
		Client:              r.client,
		Builder:             r.builder,
		StreamOnlyNarration: r.cfg.StreamOnlyNarration,
		ChunkSize:           r.cfg.ChunkSize,
		OnReply:             func(reply *completion.Reply) { result.Reply = reply },
	}
	ctrl := stream.New(renderer, stream.Options{
		ShowSeparator: r.cfg.ShowSeparator,
		Observers:     r.observers,
	})

	text, err := ctrl.Run(ctx, stream.NewPaced(src, r.cfg.ChunkRate), window)
	result.Text = text
	result.Duration = time.Since(result.Started)

	if result.Reply != nil {
		r.session.StorePayload(result.Reply.Payload)
		if r.companion != nil {
			result.Scene, result.HasScene = r.companion.SceneReady(r.session)
		}
	}

	r.archive(result, window, err)

	if err != nil {
		logging.Warnf("NARRATOR: turn %d failed after %v: %v", result.Number, result.Duration, err)
		return result, err
	}
	logging.Debugf("NARRATOR: turn %d finished in %v (%d chars)", result.Number, result.Duration, len(text))
	return result, nil
}

func (r *Runtime) archive(result *TurnResult, window []string, turnErr error) {
	if r.store == nil {
		return
	}

	t := storage.Turn{
		SessionID: r.session.ID(),
		Number:    result.Number,
		Window:    window,
		Narration: result.Text,
		Started:   result.Started,
		Duration:  result.Duration,
	}
	if result.Reply != nil {
		t.Narration = result.Reply.Narration
		t.Payload = result.Reply.Payload
		t.Raw = result.Reply.Raw
	}
	if turnErr != nil {
		t.Err = turnErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := r.store.Record(ctx, t); err != nil {
		logging.Warnf("NARRATOR: failed to archive turn %d: %v", result.Number, err)
	}
}

// Close waits for a running turn and releases every resource. It is safe
// to call more than once; the first error is returned.
func (r *Runtime) Close() error {
	var errs []error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		r.turnMu.Lock()
		defer r.turnMu.Unlock()

		if r.speaker != nil {
			errs = append(errs, r.speaker.Close())
		}
		if r.companion != nil {
			errs = append(errs, r.companion.Close())
		}
		if r.store != nil {
			errs = append(errs, r.store.Close())
		}
		if r.audit != nil {
			errs = append(errs, r.audit.Close())
		}
	})
	return errors.Join(errs...)
}
