// Package tagger classifies ledger records: manual keyword-to-tag updates
// and replay of the historical source-to-tag rule list.
package tagger

import (
	"context"
	"errors"
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/cjp-luany/mw-moneycount/internal/config"
	"github.com/cjp-luany/mw-moneycount/internal/ledger"
)

// ErrUnknownTagWord means the keyword is not in the manual rule set.
var ErrUnknownTagWord = errors.New("unknown tag word")

// suggestionDistance caps how far a typo may be from a known keyword before
// we stop guessing what was meant.
const suggestionDistance = 3

// Engine applies tag rules against a month of the ledger.
type Engine struct {
	store *ledger.Store
	rules *config.TagRules
	log   zerolog.Logger
}

func New(store *ledger.Store, rules *config.TagRules, log zerolog.Logger) *Engine {
	return &Engine{store: store, rules: rules, log: log}
}

// ApplyManualRule resolves word through the manual rule set and tags every
// record of month matching filter. Unknown words fail with ErrUnknownTagWord,
// carrying the nearest known keyword when one is plausibly meant.
func (e *Engine) ApplyManualRule(ctx context.Context, month, word string, filter ledger.Filter) (int64, error) {
	tag, ok := e.rules.Resolve(word)
	if !ok {
		if near := e.nearestWord(word); near != "" {
			return 0, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownTagWord, word, near)
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownTagWord, word)
	}
	n, err := e.store.BulkUpdateTag(ctx, month, tag, filter)
	if err != nil {
		return 0, err
	}
	e.log.Info().Str("word", word).Str("tag", tag).Int64("records", n).Msg("manual tag rule applied")
	return n, nil
}

func (e *Engine) nearestWord(word string) string {
	best, bestDist := "", suggestionDistance+1
	for _, known := range e.rules.Words() {
		if d := levenshtein.ComputeDistance(word, known); d < bestDist {
			best, bestDist = known, d
		}
	}
	return best
}

// RuleOutcome reports one auto rule's replay result.
type RuleOutcome struct {
	Pattern string
	TagWord string
	Updated int64
	Err     error
}

// ReplayAutoRules runs the stored source-to-tag rules in order, each through
// the manual-rule path with the rule's pattern as substring filter. Rules run
// unconditionally, so when several match the same record the last one wins.
// A failing rule is reported in its outcome and does not stop the rest.
func (e *Engine) ReplayAutoRules(ctx context.Context, month string, rules []config.AutoRule) []RuleOutcome {
	outcomes := make([]RuleOutcome, 0, len(rules))
	for _, rule := range rules {
		n, err := e.ApplyManualRule(ctx, month, rule.TagWord, ledger.Filter{Key: rule.Pattern})
		if err != nil {
			e.log.Warn().Str("pattern", rule.Pattern).Str("word", rule.TagWord).
				Err(err).Msg("auto tag rule failed")
		}
		outcomes = append(outcomes, RuleOutcome{
			Pattern: rule.Pattern,
			TagWord: rule.TagWord,
			Updated: n,
			Err:     err,
		})
	}
	return outcomes
}
