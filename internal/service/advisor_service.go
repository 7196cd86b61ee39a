package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"argus/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultAdvisorModel   = "gpt-4o-mini"
	defaultAdvisorHistory = 20

	advisorMaxTickers   = 3
	advisorSignalWindow = 24 * time.Hour
	advisorSignalLimit  = 10

	advisorSystemPrompt = `You are the assistant inside a stock screening terminal. ` +
		`Users ask about symbols, moving averages, RSI, MACD and the signals the system detected. ` +
		`A market context block may follow with live quotes and recent signals; prefer it over your own memory of prices. ` +
		`Be concise and factual. You describe market data, you do not give personalized investment advice.`
)

type ConversationStore interface {
	AppendMessage(ctx context.Context, chatID int64, role, content string) error
	RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error)
	TrimHistory(ctx context.Context, chatID int64, keep int) error
}

type AdvisorQuotes interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type AdvisorSignals interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
}

// AdvisorService answers free-form questions over the chat surfaces, with
// live quotes and recent signals injected into the prompt.
type AdvisorService struct {
	tracer        trace.Tracer
	client        openai.Client
	model         string
	conversations ConversationStore
	quotes        AdvisorQuotes
	signals       AdvisorSignals
	maxHistory    int
	enabled       bool
}

func NewAdvisorService(
	tracer trace.Tracer,
	apiKey string,
	model string,
	conversations ConversationStore,
	quotes AdvisorQuotes,
	signals AdvisorSignals,
) *AdvisorService {
	if model == "" {
		model = defaultAdvisorModel
	}
	return &AdvisorService{
		tracer:        tracer,
		client:        openai.NewClient(option.WithAPIKey(apiKey)),
		model:         model,
		conversations: conversations,
		quotes:        quotes,
		signals:       signals,
		maxHistory:    defaultAdvisorHistory,
		enabled:       apiKey != "",
	}
}

func (s *AdvisorService) WithMaxHistory(n int) *AdvisorService {
	if n > 0 {
		s.maxHistory = n
	}
	return s
}

func (s *AdvisorService) Enabled() bool {
	return s.enabled
}

// Ask sends the message to the model with system prompt, market context and
// the chat's stored history, then persists both sides of the exchange.
func (s *AdvisorService) Ask(ctx context.Context, chatID int64, message string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor-service.ask")
	defer span.End()

	if !s.enabled {
		return "", fmt.Errorf("%w: advisor is not configured", domain.ErrUnavailable)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: empty message", domain.ErrInvalidRequest)
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(advisorSystemPrompt),
	}
	if market := s.marketContext(ctx, message); market != "" {
		messages = append(messages, openai.SystemMessage(market))
	}
	if s.conversations != nil {
		history, err := s.conversations.RecentMessages(ctx, chatID, s.maxHistory)
		if err != nil {
			log.Printf("advisor history for chat %d unavailable: %v", chatID, err)
		}
		for _, m := range history {
			switch m.Role {
			case "user":
				messages = append(messages, openai.UserMessage(m.Content))
			case "assistant":
				messages = append(messages, openai.AssistantMessage(m.Content))
			}
		}
	}
	messages = append(messages, openai.UserMessage(message))

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(s.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)

	s.persistExchange(ctx, chatID, message, reply)
	return reply, nil
}

// persistExchange stores both turns and trims the chat to the history
// window. Failures here never fail the reply the user already has.
func (s *AdvisorService) persistExchange(ctx context.Context, chatID int64, question, answer string) {
	if s.conversations == nil {
		return
	}
	if err := s.conversations.AppendMessage(ctx, chatID, "user", question); err != nil {
		log.Printf("advisor append user message for chat %d: %v", chatID, err)
		return
	}
	if err := s.conversations.AppendMessage(ctx, chatID, "assistant", answer); err != nil {
		log.Printf("advisor append assistant message for chat %d: %v", chatID, err)
		return
	}
	if err := s.conversations.TrimHistory(ctx, chatID, s.maxHistory); err != nil {
		log.Printf("advisor trim history for chat %d: %v", chatID, err)
	}
}

// marketContext assembles the data block: signals from the last day plus
// quotes for tickers mentioned in the message. Empty when nothing is
// available so the prompt stays short.
func (s *AdvisorService) marketContext(ctx context.Context, message string) string {
	var b strings.Builder

	if s.signals != nil {
		recent, err := s.signals.ListSignals(ctx, domain.SignalFilter{
			Since: time.Now().UTC().Add(-advisorSignalWindow),
			Limit: advisorSignalLimit,
		})
		if err != nil {
			log.Printf("advisor signal context unavailable: %v", err)
		}
		if len(recent) > 0 {
			b.WriteString("Signals from the last 24 hours:\n")
			for _, sig := range recent {
				fmt.Fprintf(&b, "- %s %s at $%.2f (%s)\n",
					sig.Symbol, sig.Type, sig.Price, sig.Timestamp.Format("2006-01-02"))
			}
		}
	}

	if s.quotes != nil {
		var lines []string
		for _, symbol := range extractTickers(message, advisorMaxTickers) {
			quote, err := s.quotes.GetQuote(ctx, symbol)
			if err != nil || quote == nil {
				// A word that merely looks like a ticker fails the
				// lookup and drops out here.
				continue
			}
			lines = append(lines, fmt.Sprintf("- %s: $%.2f (%+.2f%%)",
				quote.Symbol, quote.Price, quote.ChangePercent))
		}
		if len(lines) > 0 {
			b.WriteString("Current quotes:\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n")
		}
	}

	if b.Len() == 0 {
		return ""
	}
	return "Market context:\n" + b.String()
}

// Common all-caps words that would otherwise read as tickers.
var advisorTickerStopwords = map[string]bool{
	"A": true, "I": true, "AND": true, "THE": true, "FOR": true,
	"NOT": true, "YOU": true, "WHAT": true, "WHY": true, "HOW": true,
	"IS": true, "IT": true, "TO": true, "OK": true, "VS": true,
	"ETF": true, "CEO": true, "IPO": true, "USD": true, "USA": true,
	"AI": true, "PE": true, "EPS": true, "RSI": true, "MACD": true,
	"MA": true, "BUY": true, "SELL": true, "HOLD": true, "TODAY": true,
}

func extractTickers(message string, max int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, token := range strings.Fields(message) {
		token = strings.Trim(token, ".,!?;:()[]\"'$")
		if len(token) == 0 || len(token) > 5 || advisorTickerStopwords[token] {
			continue
		}
		upper := true
		for _, r := range token {
			if (r < 'A' || r > 'Z') && r != '-' {
				upper = false
				break
			}
		}
		if !upper || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
		if len(out) == max {
			break
		}
	}
	return out
}
