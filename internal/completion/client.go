// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion performs the single model request of a narration turn.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jeranaias/zork-narrator/internal/logging"
	"github.com/jeranaias/zork-narrator/internal/model"
	"github.com/jeranaias/zork-narrator/internal/recovery"
)

// DefaultSchemaName names the response format sent with every request.
const DefaultSchemaName = "zork_ai_reply"

// =============================================================================
// TRANSPORT
// =============================================================================

// Request is one schema-constrained completion request.
type Request struct {
	Model    string
	Messages []model.Message

	// Schema is the JSON schema the reply must follow, sent in strict mode.
	Schema     json.RawMessage
	SchemaName string

	// MaxTokens caps generated length. Zero or less omits the cap.
	MaxTokens int
}

// Transport sends a request to a model server and returns the raw reply
// text. Implementations return *Error for failures.
type Transport interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f TransportFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// AuditLog is the subset of the audit log the client writes to.
type AuditLog interface {
	LogRequest(messages []model.Message) error
	LogResponse(payload model.Payload) error
}

// =============================================================================
// CLIENT
// =============================================================================

// Options configures a Client.
type Options struct {
	Model      string
	Schema     json.RawMessage
	SchemaName string
	MaxTokens  int
}

// Reply is the outcome of one completion turn.
type Reply struct {
	// Messages are the prompt messages that were sent.
	Messages []model.Message

	// Payload is the recovered structured reply.
	Payload model.Payload

	// Narration is Payload's narration string.
	Narration string

	// Raw is the reply text exactly as the transport returned it.
	Raw string

	// Rung is the recovery step that produced Payload.
	Rung recovery.Rung

	Duration time.Duration
}

// Client issues one request per turn and records it in the audit log.
// It never retries; callers decide what to do with a failed turn.
type Client struct {
	transport Transport
	audit     AuditLog
	opts      Options
}

// New creates a client. A nil audit log disables auditing.
func New(transport Transport, audit AuditLog, opts Options) *Client {
	if opts.SchemaName == "" {
		opts.SchemaName = DefaultSchemaName
	}
	return &Client{transport: transport, audit: audit, opts: opts}
}

// Model returns the configured model id.
func (c *Client) Model() string {
	return c.opts.Model
}

// Complete sends messages and recovers the reply. The request entry is
// written to the audit log before the transport is called and the response
// entry after the reply is recovered.
//
// A transport failure returns the transport's *Error and leaves the turn's
// response entry unwritten. A failure writing the response entry returns the
// recovered reply together with a KindAudit error.
func (c *Client) Complete(ctx context.Context, messages []model.Message) (*Reply, error) {
	messages = model.CloneMessages(messages)

	if c.audit != nil {
		if err := c.audit.LogRequest(messages); err != nil {
			return nil, NewError(KindAudit, "failed to record request", err)
		}
	}

	started := time.Now()
	raw, err := c.transport.Complete(ctx, Request{
		Model:      c.opts.Model,
		Messages:   messages,
		Schema:     c.opts.Schema,
		SchemaName: c.opts.SchemaName,
		MaxTokens:  c.opts.MaxTokens,
	})
	if err != nil {
		var cerr *Error
		if !errors.As(err, &cerr) {
			err = NewError(KindTransport, "completion request failed", err)
		}
		logging.Warnf("COMPLETION: model %q failed: %v", c.opts.Model, err)
		return nil, err
	}
	duration := time.Since(started)

	payload, rung := recovery.RecoverWithRung(raw)
	if rung != recovery.RungDirect {
		logging.Debugf("COMPLETION: reply recovered at rung %s (%d bytes)", rung, len(raw))
	}

	reply := &Reply{
		Messages:  messages,
		Payload:   payload,
		Narration: payload.Narration(),
		Raw:       raw,
		Rung:      rung,
		Duration:  duration,
	}

	if c.audit != nil {
		if err := c.audit.LogResponse(payload); err != nil {
			return reply, NewError(KindAudit, "failed to record response", err)
		}
	}

	logging.Debugf("COMPLETION: model=%s duration=%v narration=%d chars", c.opts.Model, duration, len(reply.Narration))
	return reply, nil
}
