package tradier

import (
	"encoding/json"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
)

// flexList unmarshals Tradier's single-object-or-array fields.
// The API collapses one-element lists into a bare object.
type flexList[T any] []T

func (f *flexList[T]) UnmarshalJSON(data []byte) error {
	var list []T
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single T
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = []T{single}
	return nil
}

// historyDay is one bar from /markets/history
type historyDay struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// chainOption is one contract from /markets/options/chains
type chainOption struct {
	Symbol       string        `json:"symbol"`
	OptionType   string        `json:"option_type"`
	Strike       float64       `json:"strike"`
	Bid          float64       `json:"bid"`
	Ask          float64       `json:"ask"`
	Last         float64       `json:"last"`
	Volume       int           `json:"volume"`
	OpenInterest int           `json:"open_interest"`
	Greeks       *optionGreeks `json:"greeks"`
}

// optionGreeks is the nested greeks object Tradier attaches per contract
type optionGreeks struct {
	Delta  *float64 `json:"delta"`
	Gamma  *float64 `json:"gamma"`
	Theta  *float64 `json:"theta"`
	Vega   *float64 `json:"vega"`
	MidIV  *float64 `json:"mid_iv"`
	SmvVol *float64 `json:"smv_vol"`
}

func (o chainOption) toContract(exp time.Time, daysToExp int) contracts.ChainOption {
	out := contracts.ChainOption{
		ContractSymbol: o.Symbol,
		OptionType:     contracts.OptionCall,
		Strike:         o.Strike,
		Expiration:     exp,
		DaysToExpiry:   daysToExp,
		Bid:            o.Bid,
		Ask:            o.Ask,
		Last:           o.Last,
		Volume:         o.Volume,
		OpenInterest:   o.OpenInterest,
	}
	if g := o.Greeks; g != nil {
		out.Greeks = contracts.Greeks{
			Delta: g.Delta,
			Gamma: g.Gamma,
			Theta: g.Theta,
			Vega:  g.Vega,
		}
		if g.MidIV != nil && *g.MidIV > 0 {
			out.IV = g.MidIV
		}
	}
	return out
}

// quote is one entry from /markets/quotes
type quote struct {
	Symbol       string        `json:"symbol"`
	Last         *float64      `json:"last"`
	Bid          *float64      `json:"bid"`
	Ask          *float64      `json:"ask"`
	Volume       int           `json:"volume"`
	OpenInterest int           `json:"open_interest"`
	Greeks       *optionGreeks `json:"greeks"`
}

// calendarItem is one symbol's block from /markets/fundamentals/calendars
type calendarItem struct {
	Results []struct {
		Tables struct {
			CorporateCalendars []struct {
				Event         string `json:"event"`
				BeginDateTime string `json:"begin_date_time"`
			} `json:"corporate_calendars"`
		} `json:"tables"`
	} `json:"results"`
}
