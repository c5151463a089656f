// Package router owns the session lifecycle and dispatches each turn to the
// agent the session currently points at.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	agentsx "github.com/bancoagil/atendimento/agent/agents"
	contractx "github.com/bancoagil/atendimento/agent/contract"
	statex "github.com/bancoagil/atendimento/agent/state"
)

// maxHandoffs bounds one turn's agent chain. The longest legitimate chain is
// triage -> credit -> interview, so three switches is already generous.
const maxHandoffs = 3

const (
	msgSessionClosed = "Esta conversa já foi encerrada. Inicie um novo atendimento para continuar."
	msgFarewell      = "Obrigado por falar com o Banco Ágil! Até a próxima."
	msgFallback      = "Desculpe, não consegui dar continuidade ao atendimento. Pode repetir, por favor?"
	msgTechnical     = "Desculpe, estamos com um problema técnico no momento. Por favor, tente novamente."

	roleUser      = "user"
	roleAssistant = "assistant"
)

// goodbyeWords end the session before any agent sees the message.
var goodbyeWords = []string{
	"obrigado", "tchau", "adeus", "até logo", "finalizar",
	"encerrar", "sair", "desligar", "terminar", "acabar", "bye",
}

var ErrUnknownSession = errors.New("unknown session")

type Service struct {
	store  statex.Store
	agents map[contractx.AgentType]agentsx.Agent

	now func() time.Time
}

// New wires the router over a session store and the full agent set. Every
// value of the agent enum must be covered.
func New(store statex.Store, agentList ...agentsx.Agent) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	byType := make(map[contractx.AgentType]agentsx.Agent, len(agentList))
	for _, a := range agentList {
		byType[a.Type()] = a
	}
	for _, t := range contractx.AgentTypes() {
		if _, ok := byType[t]; !ok {
			return nil, fmt.Errorf("no agent registered for %q", t)
		}
	}
	return &Service{store: store, agents: byType, now: time.Now}, nil
}

// CreateSession opens a fresh conversation and returns its id.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	st := statex.NewSessionState(uuid.NewString(), s.now())
	if err := s.store.Save(ctx, st); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	log.Info().Str("session_id", st.SessionID).Msg("router: session created")
	return st.SessionID, nil
}

// EndSession closes a conversation explicitly, e.g. when the UI exits.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	st.End()
	st.Touch(s.now())
	return s.store.Save(ctx, st)
}

// HandleTurn processes one user message and returns the assistant reply.
func (s *Service) HandleTurn(ctx context.Context, sessionID, text string) (string, error) {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		// Stored state that breaks the session invariants gets the fixed
		// fallback instead of an internal error, and is left untouched.
		if errors.Is(err, statex.ErrInvariantViolated) {
			log.Error().Err(err).Str("session_id", sessionID).Msg("router: refusing invalid session state")
			return msgFallback, nil
		}
		return "", err
	}

	// A closed session answers with a fixed notice and is never re-saved.
	if st.Ended {
		return msgSessionClosed, nil
	}

	// A session pointing at an agent the router does not know gets the
	// fixed fallback and stays untouched.
	if _, ok := s.agents[st.CurrentAgent]; !ok {
		log.Error().Str("agent", string(st.CurrentAgent)).Msg("router: no agent for session state")
		return msgFallback, nil
	}

	reply := s.route(ctx, text, st)

	st.AppendHistory(roleUser, text)
	st.AppendHistory(roleAssistant, reply)
	st.Touch(s.now())

	if err := st.Validate(); err != nil {
		return "", fmt.Errorf("session %s after turn: %w", sessionID, err)
	}
	if err := s.store.Save(ctx, st); err != nil {
		return "", fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return reply, nil
}

func (s *Service) route(ctx context.Context, text string, st *statex.SessionState) string {
	if isGoodbye(text) {
		st.End()
		return msgFarewell
	}

	for hop := 0; ; hop++ {
		agent, ok := s.agents[st.CurrentAgent]
		if !ok {
			log.Error().Str("agent", string(st.CurrentAgent)).Msg("router: no agent for session state")
			return msgFallback
		}

		reply, err := agent.Process(ctx, text, st)
		if err != nil {
			log.Error().Err(err).Str("agent", string(st.CurrentAgent)).Msg("router: agent turn failed")
			return msgTechnical
		}

		if reply.Handoff == nil {
			return reply.Text
		}
		if err := st.SwitchAgent(reply.Handoff.Target); err != nil {
			log.Error().Err(err).Str("target", string(reply.Handoff.Target)).Msg("router: handoff refused")
			return msgTechnical
		}
		if !reply.Handoff.Redeliver {
			return reply.Text
		}
		if hop >= maxHandoffs {
			log.Error().Str("agent", string(st.CurrentAgent)).Msg("router: handoff chain too long")
			return msgTechnical
		}
	}
}

func (s *Service) load(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return st, nil
}

func isGoodbye(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range goodbyeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
