// Package exchange quotes BRL exchange rates for a fixed set of currencies.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	agentsx "github.com/bancoagil/atendimento/agent/agents"
	contractx "github.com/bancoagil/atendimento/agent/contract"
	statex "github.com/bancoagil/atendimento/agent/state"
)

const (
	msgAskCurrency = "Qual moeda você gostaria de consultar? Trabalho com as cotações de " +
		"USD (dólar), EUR (euro), GBP (libra), JPY (iene) e ARS (peso argentino)."

	msgQuote = "Cotação atual: 1 %s = %.4f BRL.\n\nPosso consultar outra moeda para você?"

	msgTimeout     = "Desculpe, o serviço de cotações demorou para responder. Por favor, tente novamente em instantes."
	msgUnsupported = "Desculpe, não consigo cotar essa moeda. As disponíveis são USD, EUR, GBP, JPY e ARS."
	msgService     = "Desculpe, o serviço de cotações está indisponível no momento. Por favor, tente novamente mais tarde."
)

// currencyWords maps Portuguese currency names to ISO codes.
var currencyWords = map[string]string{
	"dólar":   "USD",
	"dolar":   "USD",
	"dólares": "USD",
	"dolares": "USD",
	"euro":    "EUR",
	"euros":   "EUR",
	"libra":   "GBP",
	"libras":  "GBP",
	"iene":    "JPY",
	"ienes":   "JPY",
	"yen":     "JPY",
	"peso":    "ARS",
	"pesos":   "ARS",
}

var supportedCodes = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"JPY": true,
	"ARS": true,
}

// creditPivotWords send the customer back to the credit agent mid-exchange.
var creditPivotWords = []string{"crédito", "credito", "limite", "score", "empréstimo", "emprestimo", "aumento"}

var codePattern = regexp.MustCompile(`\b[A-Za-z]{3}\b`)

type Agent struct {
	rates contractx.RateProvider
}

func New(rates contractx.RateProvider) (*Agent, error) {
	if rates == nil {
		return nil, errors.New("rate provider is required")
	}
	return &Agent{rates: rates}, nil
}

func (a *Agent) Type() contractx.AgentType {
	return contractx.AgentTypeExchange
}

func (a *Agent) Process(ctx context.Context, text string, st *statex.SessionState) (agentsx.Reply, error) {
	lower := strings.ToLower(text)

	for _, w := range creditPivotWords {
		if strings.Contains(lower, w) {
			return agentsx.HandoffTo(contractx.AgentTypeCredit), nil
		}
	}

	code, ok := currencyFrom(text)
	if !ok {
		return agentsx.Reply{Text: msgAskCurrency}, nil
	}

	rate, err := a.rate(ctx, code, st)
	if err != nil {
		log.Warn().Err(err).Str("currency", code).Msg("exchange: rate lookup failed")
		return agentsx.Reply{Text: apologyFor(err)}, nil
	}
	return agentsx.Reply{Text: fmt.Sprintf(msgQuote, code, rate)}, nil
}

// rate serves a quote from the session cache when present, so the same
// currency asked twice in one conversation reports the same number.
func (a *Agent) rate(ctx context.Context, code string, st *statex.SessionState) (float64, error) {
	if cached, ok := st.CachedRate(code); ok {
		return cached, nil
	}
	rate, err := a.rates.Latest(ctx, code)
	if err != nil {
		return 0, err
	}
	st.CacheRate(code, rate)
	return rate, nil
}

// currencyFrom resolves a currency either by ISO code or by name.
func currencyFrom(text string) (string, bool) {
	for _, match := range codePattern.FindAllString(text, -1) {
		code := strings.ToUpper(match)
		if supportedCodes[code] {
			return code, true
		}
	}
	lower := strings.ToLower(text)
	for word, code := range currencyWords {
		if strings.Contains(lower, word) {
			return code, true
		}
	}
	return "", false
}

func apologyFor(err error) string {
	switch {
	case errors.Is(err, contractx.ErrRateTimeout):
		return msgTimeout
	case errors.Is(err, contractx.ErrRateUnsupported):
		return msgUnsupported
	default:
		return msgService
	}
}
