package fees

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
)

var (
	// ErrNoRule indicates no rule covers the kind and channel.
	ErrNoRule = errors.New("no fee rule")
	// ErrUnknownChannel indicates a channel that is not offered for the kind.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrInvalidRule indicates a malformed rule in the schedule.
	ErrInvalidRule = errors.New("invalid fee rule")
)

// Rule types.
const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// Wildcard matches any channel of a kind.
const Wildcard = "*"

// Rule prices one (kind, channel) pair. Value is basis points for percentage
// rules and cents for fixed rules. Min and Max bound the computed fee.
type Rule struct {
	Kind    ledger.Kind `yaml:"kind"`
	Channel string      `yaml:"channel"`
	Type    string      `yaml:"type"`
	Value   int64       `yaml:"value"`
	Min     *int64      `yaml:"min,omitempty"`
	Max     *int64      `yaml:"max,omitempty"`
}

// Channels offered per kind.
var Channels = map[ledger.Kind][]string{
	ledger.KindPayment:    {"card", "bank", "paypal", "crypto"},
	ledger.KindWithdrawal: {"bank", "mobile", "crypto", "domiciliary"},
}

// DefaultRules charges 2% on every payment channel and withdrawal method.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: ledger.KindPayment, Channel: Wildcard, Type: TypePercentage, Value: 200},
		{Kind: ledger.KindWithdrawal, Channel: Wildcard, Type: TypePercentage, Value: 200},
	}
}

type ruleKey struct {
	kind    ledger.Kind
	channel string
}

// Schedule resolves fees for transactions. It is immutable after construction.
type Schedule struct {
	rules map[ruleKey]Rule
}

// NewSchedule validates rules and indexes them. A later rule for the same
// (kind, channel) replaces an earlier one.
func NewSchedule(rules []Rule) (*Schedule, error) {
	s := &Schedule{rules: make(map[ruleKey]Rule, len(rules))}
	for i, r := range rules {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if r.Channel == "" {
			r.Channel = Wildcard
		}
		s.rules[ruleKey{r.Kind, r.Channel}] = r
	}
	return s, nil
}

// Default returns the schedule built from DefaultRules.
func Default() *Schedule {
	s, err := NewSchedule(DefaultRules())
	if err != nil {
		panic(err)
	}
	return s
}

type scheduleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML schedule of the form `rules: [{kind, channel, type,
// value, min, max}]`.
func LoadFile(path string) (*Schedule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f scheduleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fee schedule: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("%w: %s defines no rules", ErrInvalidRule, path)
	}
	return NewSchedule(f.Rules)
}

// Resolve returns the rule for kind and channel, falling back to the kind's
// wildcard rule.
func (s *Schedule) Resolve(kind ledger.Kind, channel string) (Rule, error) {
	if known, ok := Channels[kind]; ok && channel != "" && !slices.Contains(known, channel) {
		return Rule{}, fmt.Errorf("%w: %s for %s", ErrUnknownChannel, channel, kind)
	}
	if r, ok := s.rules[ruleKey{kind, channel}]; ok {
		return r, nil
	}
	if r, ok := s.rules[ruleKey{kind, Wildcard}]; ok {
		return r, nil
	}
	return Rule{}, fmt.Errorf("%w: %s/%s", ErrNoRule, kind, channel)
}

// Fee computes the fee in cents for amount.
func (s *Schedule) Fee(kind ledger.Kind, channel string, amount int64) (int64, error) {
	r, err := s.Resolve(kind, channel)
	if err != nil {
		return 0, err
	}
	return r.Apply(amount), nil
}

// Rules returns every rule in the schedule.
func (s *Schedule) Rules() []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	return out
}

// Apply computes the fee for amount. Percentage fees round half up to the
// nearest cent.
func (r Rule) Apply(amount int64) int64 {
	var fee int64
	switch r.Type {
	case TypeFixed:
		fee = r.Value
	default:
		// amount*bps/10000 split to avoid overflowing int64 on large amounts.
		whole, rem := amount/10_000, amount%10_000
		fee = whole*r.Value + (rem*r.Value+5_000)/10_000
	}
	if r.Min != nil && fee < *r.Min {
		fee = *r.Min
	}
	if r.Max != nil && fee > *r.Max {
		fee = *r.Max
	}
	return fee
}

func (r Rule) validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, r.Kind)
	}
	switch r.Type {
	case TypePercentage:
		if r.Value < 0 || r.Value > 10_000 {
			return fmt.Errorf("%w: percentage must be 0..10000 bps", ErrInvalidRule)
		}
	case TypeFixed:
		if r.Value < 0 || r.Value > math.MaxInt32 {
			return fmt.Errorf("%w: fixed fee out of range", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, r.Type)
	}
	if r.Min != nil && *r.Min < 0 {
		return fmt.Errorf("%w: min must not be negative", ErrInvalidRule)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%w: min exceeds max", ErrInvalidRule)
	}
	if r.Channel != "" && r.Channel != Wildcard {
		if known, ok := Channels[r.Kind]; ok && !slices.Contains(known, r.Channel) {
			return fmt.Errorf("%w: %s", ErrUnknownChannel, r.Channel)
		}
	}
	return nil
}
