package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"argus/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type QuoteQuerier interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type SignalLister interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
	GetSignalImage(ctx context.Context, signalID int64) (*domain.SignalImageData, error)
}

type ScreenerRunner interface {
	Run(ctx context.Context, req domain.ScreenerRequest) (*domain.ScreenerResponse, error)
}

type Advisor interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

const helpText = `Commands:
/quote AAPL - latest quote
/signals [SYMBOL] [--type rsi_oversold] - recent signals
/screener - stocks vs their 20-week average
/alerts on|off|status - proactive signal alerts for this chat
/ask <question> - market advisor

Plain messages also go to the advisor.`

const screenerReplyLimit = 10

func StartTelegramBot(stockService QuoteQuerier, signalService SignalLister, screenerService ScreenerRunner, advisorService Advisor) *AlertDispatcher {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	alerts := NewAlertDispatcher(b, signalService)

	b.Handle("/start", func(c tele.Context) error {
		return c.Send("Argus stock screener bot.\n\n" + helpText)
	})

	b.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText)
	})

	b.Handle("/quote", func(c tele.Context) error {
		if stockService == nil {
			return c.Send("Quote service unavailable")
		}
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /quote AAPL")
		}
		symbol := strings.ToUpper(args[0])
		quote, err := stockService.GetQuote(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching quote for %s: %v", symbol, err))
		}
		return c.Send(formatQuote(quote))
	})

	b.Handle("/signals", func(c tele.Context) error {
		if signalService == nil {
			return c.Send("Signal service unavailable")
		}

		filter, err := parseSignalArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /signals AAPL | /signals --type rsi_oversold | /signals AAPL --type rsi_oversold")
		}

		signals, err := signalService.ListSignals(context.Background(), filter)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching signals: %v", err))
		}
		if len(signals) == 0 {
			return c.Send("No matching signals right now.")
		}

		if err := c.Send("Latest signals:"); err != nil {
			return err
		}
		for _, s := range signals {
			if err := sendSignalWithOptionalImage(c, signalService, s); err != nil {
				return err
			}
		}
		return nil
	})

	b.Handle("/screener", func(c tele.Context) error {
		if screenerService == nil {
			return c.Send("Screener service unavailable")
		}

		req := domain.DefaultScreenerRequest()
		req.Limit = screenerReplyLimit
		resp, err := screenerService.Run(context.Background(), req)
		if err != nil {
			return c.Send(fmt.Sprintf("Error running screener: %v", err))
		}
		return c.Send(formatScreenerReply(resp))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID) {
				return c.Send("Proactive alerts enabled for this chat.")
			}
			return c.Send("Proactive alerts are already enabled for this chat.")
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Proactive alerts disabled for this chat.")
			}
			return c.Send("Proactive alerts are already disabled for this chat.")
		default:
			if alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})

	b.Handle("/ask", func(c tele.Context) error {
		if advisorService == nil {
			return c.Send("Advisor not configured. Set OPENAI_API_KEY to enable.")
		}
		question := strings.TrimSpace(c.Message().Payload)
		if question == "" {
			return c.Send("Usage: /ask <question>\nExample: /ask What do you think about AAPL?")
		}
		return handleAdvisorQuery(c, advisorService, question)
	})

	b.Handle(tele.OnText, func(c tele.Context) error {
		if advisorService == nil {
			return nil
		}
		text := strings.TrimSpace(c.Text())
		if text == "" {
			return nil
		}
		return handleAdvisorQuery(c, advisorService, text)
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}

func handleAdvisorQuery(c tele.Context, adv Advisor, question string) error {
	_ = c.Notify(tele.Typing)

	reply, err := adv.Ask(context.Background(), c.Chat().ID, question)
	if err != nil {
		log.Printf("advisor error for chat %d: %v", c.Chat().ID, err)
		return c.Send("Sorry, I'm having trouble right now. Try /quote or /signals for raw data.")
	}

	if len(reply) > 4000 {
		reply = reply[:4000] + "\n\n[truncated]"
	}

	return c.Send(reply)
}

func parseSignalArgs(args []string) (domain.SignalFilter, error) {
	filter := domain.SignalFilter{Limit: 5}

	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])
		if arg == "" {
			continue
		}

		if strings.HasPrefix(arg, "--type=") {
			st := domain.SignalType(strings.ToLower(strings.TrimPrefix(arg, "--type=")))
			if !st.IsValid() {
				return domain.SignalFilter{}, errors.New("unknown signal type")
			}
			filter.Types = append(filter.Types, st)
			continue
		}

		if arg == "--type" {
			if i+1 >= len(args) {
				return domain.SignalFilter{}, errors.New("missing type value")
			}
			i++
			st := domain.SignalType(strings.ToLower(args[i]))
			if !st.IsValid() {
				return domain.SignalFilter{}, errors.New("unknown signal type")
			}
			filter.Types = append(filter.Types, st)
			continue
		}

		if strings.HasPrefix(arg, "--") {
			return domain.SignalFilter{}, errors.New("unknown option")
		}
		filter.Symbols = append(filter.Symbols, strings.ToUpper(arg))
	}

	return filter, nil
}

func formatQuote(q *domain.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nPrice: $%.2f\nChange: %+.2f (%+.2f%%)\nVolume: %.0f", q.Symbol, q.Price, q.Change, q.ChangePercent, q.Volume)
	if q.Low52W != nil && q.High52W != nil {
		fmt.Fprintf(&b, "\n52w Range: $%.2f - $%.2f", *q.Low52W, *q.High52W)
	}
	return b.String()
}

func formatScreenerReply(resp *domain.ScreenerResponse) string {
	if resp == nil || len(resp.Results) == 0 {
		return "No stocks matched the screen."
	}
	lines := make([]string, 0, len(resp.Results)+1)
	lines = append(lines, fmt.Sprintf("Stocks vs MA%s (%d matched):", resp.MAFilter, resp.Total))
	for _, e := range resp.Results {
		lines = append(lines, fmt.Sprintf("%s $%.2f  %+.2f%% vs MA (%s)", e.Symbol, e.Price, e.DistancePercent, e.Position))
	}
	return strings.Join(lines, "\n")
}

func formatSignal(s domain.Signal) string {
	return fmt.Sprintf(
		"#%d %s %s at $%.2f on %s",
		s.ID,
		s.Symbol,
		s.Type,
		s.Price,
		s.Timestamp.UTC().Format(time.RFC822),
	)
}

func sendSignalWithOptionalImage(c tele.Context, signalService SignalLister, s domain.Signal) error {
	caption := formatSignal(s)
	if signalService == nil || s.ID <= 0 {
		return c.Send(caption)
	}

	imageData, err := signalService.GetSignalImage(context.Background(), s.ID)
	if err != nil || imageData == nil || len(imageData.Bytes) == 0 {
		return c.Send(caption)
	}

	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(imageData.Bytes)),
		Caption: caption,
	}
	return c.Send(photo)
}
