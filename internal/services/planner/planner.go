// Package planner turns free-text trader questions into rule-based strategy advice.
package planner

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"TradePilot/internal/domain/models"
	"TradePilot/pkg/util"

	"github.com/Rhymond/go-money"
	"gonum.org/v1/gonum/stat"
)

// Rand is the random source used for template selection and the sentiment jitter.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Option configures a Planner.
type Option func(*Planner)

// WithRand pins the random source, typically rand.New(rand.NewSource(seed)) in tests.
func WithRand(r Rand) Option {
	return func(p *Planner) {
		if r != nil {
			p.rnd = r
		}
	}
}

// Planner is a fixed decision table plus template text.
// It holds no state besides its random source, which is guarded by mu.
type Planner struct {
	mu  sync.Mutex
	rnd Rand
}

func New(opts ...Option) *Planner {
	p := &Planner{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate classifies query and returns advice. inst is the instrument in focus, nil when
// none is selected; known lists tracked and watchlisted symbols for mention detection.
// The first matching rule wins: urgency, unselected mention, general question, strategy.
func (p *Planner) Generate(query string, inst *models.Instrument, known []string) models.Advice {
	goal := strings.ToLower(query)
	upper := strings.ToUpper(query)

	if containsAny(goal, urgencyTriggers) {
		return models.Advice{
			Kind:       models.AdviceDeescalation,
			General:    true,
			Paragraphs: append([]string(nil), deescalation...),
			FollowUp:   deescalationFollowUp,
		}
	}

	if inst == nil {
		if sym, ok := mentioned(upper, known); ok {
			return models.Advice{
				Kind:    models.AdviceMention,
				General: true,
				Symbol:  sym,
				Paragraphs: []string{
					p.pick(openings),
					fmt.Sprintf(mentionSelect, sym),
					fmt.Sprintf(mentionSector, sym),
				},
				FollowUp: p.pick(followUps),
			}
		}
	}

	if inst == nil || containsAny(goal, generalPhrases) {
		return models.Advice{
			Kind:    models.AdviceGeneral,
			General: true,
			Paragraphs: []string{
				p.pick(openings),
				generalBuyList,
				generalScanTips,
				p.pick(uncertainty),
			},
			FollowUp: p.pick(followUps),
		}
	}

	return p.strategy(goal, *inst)
}

func (p *Planner) strategy(goal string, inst models.Instrument) models.Advice {
	price := inst.LivePrice()
	change := inst.ChangePct
	horizon := classifyHorizon(goal)
	sell := containsAny(goal, sellKeywords)

	adv := models.Advice{
		Kind:         models.AdviceStrategy,
		Symbol:       inst.Symbol,
		Horizon:      horizon,
		SellStrategy: sell,
		Risk:         models.RiskMedium,
	}

	switch {
	case sell:
		target := price * 1.05
		adv.Action = models.StrategyBookProfitExit
		adv.Risk = models.RiskLow
		adv.Zone = band(target, target*1.02)
		adv.Reasoning = fmt.Sprintf(reasonBookProfit, horizon, inst.Symbol)
	case change >= 0 && horizon == models.HorizonLongTerm:
		adv.Action = models.StrategyAccumulate
		adv.Zone = band(price*0.98, price)
		adv.Reasoning = fmt.Sprintf(reasonAccumulate, inst.Symbol)
	case change < -2 && horizon != models.HorizonIntraday:
		adv.Action = models.StrategyBuyOnDip
		adv.Risk = models.RiskModerate
		adv.Zone = band(price*0.97, price*0.99)
		adv.Reasoning = fmt.Sprintf(reasonBuyOnDip, inst.Symbol)
	case horizon == models.HorizonIntraday:
		adv.Action = models.StrategyBearishScalp
		if change > 0 {
			adv.Action = models.StrategyBullishScalp
		}
		adv.Risk = models.RiskHigh
		adv.Zone = &models.Zone{
			Low:  price * 0.995,
			High: price * 1.005,
			Text: inr(price) + " +/- 0.5%",
		}
		adv.Reasoning = fmt.Sprintf(reasonScalp, inst.Symbol)
	default:
		adv.Action = models.StrategyHold
		adv.Zone = band(price*0.98, price)
		adv.Reasoning = fmt.Sprintf(reasonHold, inst.Symbol)
	}

	adv.FollowUp = p.pick(followUps)
	return adv
}

// GenerateMarketAdvice scans instruments for momentum. Symbols are reported in
// alphabetical order, at most two per side.
func (p *Planner) GenerateMarketAdvice(instruments []models.Instrument) models.MarketAdvice {
	if len(instruments) == 0 {
		return models.MarketAdvice{Bullish: []string{}, Bearish: []string{}, Lines: []string{marketSilent}}
	}

	sorted := append([]models.Instrument(nil), instruments...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	bullish, bearish := []string{}, []string{}
	changes := make([]float64, 0, len(sorted))
	for _, in := range sorted {
		changes = append(changes, in.ChangePct)
		switch {
		case in.ChangePct > 1:
			bullish = append(bullish, in.Symbol)
		case in.ChangePct < -1:
			bearish = append(bearish, in.Symbol)
		}
	}

	sentiment := models.SentimentCautious
	if len(bullish) > len(bearish) {
		sentiment = models.SentimentBullish
	}

	lines := []string{fmt.Sprintf(marketHeadline, sentiment)}
	if len(bullish) > 0 {
		lines = append(lines, fmt.Sprintf(marketMomentum, strings.Join(firstN(bullish, 2), ", ")))
	}
	if len(bearish) > 0 {
		lines = append(lines, fmt.Sprintf(marketDipWatch, strings.Join(firstN(bearish, 2), ", ")))
	}
	lines = append(lines, marketClosing)

	return models.MarketAdvice{
		Sentiment:        sentiment,
		Bullish:          bullish,
		Bearish:          bearish,
		AverageChangePct: util.Round2(stat.Mean(changes, nil)),
		Lines:            lines,
	}
}

// Sentiment is the bull/bear gauge for one instrument: 50 offset by five times the daily
// change plus up to two points of jitter, clamped to [5, 95].
func (p *Planner) Sentiment(inst models.Instrument) models.Sentiment {
	p.mu.Lock()
	jitter := (p.rnd.Float64() - 0.5) * 4
	p.mu.Unlock()

	bull := util.Clamp(50+inst.ChangePct*5+jitter, 5, 95)
	label := "BEARISH"
	if bull > 50 {
		label = "BULLISH"
	}
	return models.Sentiment{
		Symbol:    inst.Symbol,
		BullScore: bull,
		BearScore: 100 - bull,
		Label:     label,
	}
}

func (p *Planner) pick(list []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return list[p.rnd.Intn(len(list))]
}

// classifyHorizon defaults to swing; long-term keywords win over intraday ones.
func classifyHorizon(goal string) models.Horizon {
	horizon := models.HorizonSwing
	if containsAny(goal, intradayWords) {
		horizon = models.HorizonIntraday
	}
	if containsAny(goal, longTermWords) {
		horizon = models.HorizonLongTerm
	}
	return horizon
}

// mentioned finds the first symbol whose root (the part before the exchange suffix)
// appears in the upper-cased query.
func mentioned(upper string, symbols []string) (string, bool) {
	for _, s := range symbols {
		root := strings.ToUpper(strings.SplitN(s, ".", 2)[0])
		if root != "" && strings.Contains(upper, root) {
			return s, true
		}
	}
	return "", false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func band(low, high float64) *models.Zone {
	return &models.Zone{Low: low, High: high, Text: inr(low) + " - " + inr(high)}
}

func inr(v float64) string {
	return money.New(int64(math.Round(v*100)), money.INR).Display()
}
