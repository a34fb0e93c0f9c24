package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/domain"
)

type wsEnvelope struct {
	DataType string          `json:"dataType"`
	Data     json.RawMessage `json:"data"`
}

type depthPayload struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

type tradePayload struct {
	Price      string `json:"p"`
	Quantity   string `json:"q"`
	BuyerMaker bool   `json:"m"`
	Time       int64  `json:"T"`
}

// depthSubscription and tradeSubscription build the BingX dataType
// subscribe frames for a symbol.
func depthSubscription(symbol string, level int) string {
	return fmt.Sprintf(`{"id":"depth-%s","reqType":"sub","dataType":"%s@depth%d@100ms"}`, symbol, symbol, level)
}

func tradeSubscription(symbol string) string {
	return fmt.Sprintf(`{"id":"trade-%s","reqType":"sub","dataType":"%s@trade"}`, symbol, symbol)
}

// depthHandler decodes depth frames into the book state.
func depthHandler(state *BookState) Handler {
	return func(msg []byte) {
		var env wsEnvelope
		if err := json.Unmarshal(msg, &env); err != nil || len(env.Data) == 0 {
			return
		}
		var d depthPayload
		if err := json.Unmarshal(env.Data, &d); err != nil {
			log.Warn().Err(err).Msg("depth payload dropped")
			return
		}
		bids, err := parseLevels(d.Bids)
		if err != nil {
			log.Warn().Err(err).Msg("depth bids dropped")
			return
		}
		asks, err := parseLevels(d.Asks)
		if err != nil {
			log.Warn().Err(err).Msg("depth asks dropped")
			return
		}
		if len(bids) == 0 && len(asks) == 0 {
			return
		}
		state.Update(domain.NewOrderBook(bids, asks, time.Now().UnixMilli()))
	}
}

// tradeHandler decodes trade frames into the buffer. BuyerMaker means the
// aggressor sold.
func tradeHandler(buf *TradesBuffer) Handler {
	return func(msg []byte) {
		var env wsEnvelope
		if err := json.Unmarshal(msg, &env); err != nil || len(env.Data) == 0 {
			return
		}
		var prints []tradePayload
		if err := json.Unmarshal(env.Data, &prints); err != nil {
			// single-object frames appear on some channels
			var one tradePayload
			if err2 := json.Unmarshal(env.Data, &one); err2 != nil {
				log.Warn().Err(err).Msg("trade payload dropped")
				return
			}
			prints = []tradePayload{one}
		}
		out := make([]domain.Trade, 0, len(prints))
		for _, p := range prints {
			t, err := p.toTrade()
			if err != nil {
				log.Warn().Err(err).Msg("trade print dropped")
				continue
			}
			out = append(out, t)
		}
		if len(out) > 0 {
			buf.Append(out...)
		}
	}
}

func (p tradePayload) toTrade() (domain.Trade, error) {
	price, err := strconv.ParseFloat(p.Price, 64)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse trade price %q: %w", p.Price, err)
	}
	qty, err := strconv.ParseFloat(p.Quantity, 64)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse trade quantity %q: %w", p.Quantity, err)
	}
	side := domain.SideBuy
	if p.BuyerMaker {
		side = domain.SideSell
	}
	return domain.Trade{Price: price, Volume: qty, Side: side, Timestamp: p.Time}, nil
}

func parseLevels(raw [][]string) ([]domain.BookLevel, error) {
	out := make([]domain.BookLevel, 0, len(raw))
	for _, lv := range raw {
		if len(lv) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(lv[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse level price %q: %w", lv[0], err)
		}
		size, err := strconv.ParseFloat(lv[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse level size %q: %w", lv[1], err)
		}
		out = append(out, domain.BookLevel{Price: price, Size: size})
	}
	return out, nil
}
