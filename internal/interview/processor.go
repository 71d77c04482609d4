package interview

import (
	"context"
	"log/slog"
	"strings"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
	"github.com/scopetalk/scopetalk/internal/transcript"
)

// Engine is the opaque text-generation service. Output carries no
// guarantee of well-formedness; callers bound the call with ctx.
type Engine interface {
	Generate(ctx context.Context, system string, history []domain.Turn, message string) (string, error)
}

// HistoryReader supplies the turns already merged into durable storage.
type HistoryReader interface {
	ReadAll(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// Processor orchestrates one chat turn: append the user turn, derive the
// stage, call the engine once, parse defensively, append the bot turn.
// It holds no transcript state of its own; every call re-reads the stores
// of record. New turns land in the live store only; the durable store is
// read so an uploaded-and-cleared session keeps its full history in view
// and never re-enters a completed stage.
type Processor struct {
	live    transcript.Store
	durable HistoryReader
	engine  Engine
}

// NewProcessor creates a turn processor over the live transcript store,
// the durable transcript history, and the generation engine.
func NewProcessor(live transcript.Store, durable HistoryReader, engine Engine) *Processor {
	return &Processor{
		live:    live,
		durable: durable,
		engine:  engine,
	}
}

// HandleTurn processes a single user utterance and returns the normalized
// reply.
//
// An empty utterance fails validation before any persistence or engine
// call. The user turn is persisted before the engine is invoked, so a
// lost utterance never burns a model call; an engine or late storage
// failure returns an explicit error the caller can distinguish from a
// normal reply. Exactly two turns are appended on success.
func (p *Processor) HandleTurn(ctx context.Context, sessionID, utterance string) (domain.StructuredReply, error) {
	sessionID = strings.TrimSpace(sessionID)
	utterance = strings.TrimSpace(utterance)
	if sessionID == "" {
		return domain.StructuredReply{}, apperr.New(apperr.CodeValidation, "missing_session_id")
	}
	if utterance == "" {
		return domain.StructuredReply{}, apperr.New(apperr.CodeValidation, "empty_utterance")
	}

	history, err := p.history(ctx, sessionID)
	if err != nil {
		return domain.StructuredReply{}, err
	}

	userTurn := domain.Turn{Role: domain.RoleUser, Message: utterance}
	if err := p.live.Append(ctx, sessionID, []domain.Turn{userTurn}); err != nil {
		return domain.StructuredReply{}, apperr.Wrap(apperr.CodeStorage, "append_user_turn", err)
	}

	stage := NextStage(append(history, userTurn))
	slog.Debug("resolved interview stage", "session_id", sessionID, "stage", stage.String(), "history_len", len(history))

	raw, err := p.engine.Generate(ctx, BuildSystemPrompt(stage), history, utterance)
	if err != nil {
		return domain.StructuredReply{}, apperr.Wrap(apperr.CodeUpstream, "generation_failed", err)
	}

	reply := ParseReply(raw)

	botTurn := domain.Turn{Role: domain.RoleBot, Message: RenderTranscriptMessage(reply)}
	if err := p.live.Append(ctx, sessionID, []domain.Turn{botTurn}); err != nil {
		return domain.StructuredReply{}, apperr.Wrap(apperr.CodeStorage, "append_bot_turn", err)
	}

	return reply, nil
}

// history returns the session's full conversation: durable turns first,
// then the live turns not yet merged. A transcript missing from either
// store is an empty contribution, not an error.
func (p *Processor) history(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	merged, err := p.durable.ReadAll(ctx, sessionID)
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, apperr.Wrap(apperr.CodeStorage, "read_durable_transcript", err)
	}
	pending, err := p.live.ReadAll(ctx, sessionID)
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, apperr.Wrap(apperr.CodeStorage, "read_live_transcript", err)
	}
	return append(merged, pending...), nil
}
