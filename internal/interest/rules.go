package interest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/cron"
)

var ErrConfigParse = errors.New("invalid interest rule file")

var hundred = decimal.NewFromInt(100)

// UnitRef identifies one rule file. Name is the slash-separated path
// relative to the rules root and doubles as the unit's display name.
type UnitRef struct {
	Name string
	Path string
}

// Rule grants InterestRate percent of Amount in CoinType per fire.
type Rule struct {
	Amount       decimal.Decimal
	CoinType     bank.CoinType
	InterestRate decimal.Decimal
}

// Key identifies a rule for deduplication within one unit.
func (r Rule) Key() string {
	return r.CoinType.String() + "-" + r.Amount.String()
}

// Interest is the amount credited per fire: Amount * InterestRate / 100,
// truncated to the stored scale.
func (r Rule) Interest() decimal.Decimal {
	return r.Amount.Mul(r.InterestRate).Div(hundred).Truncate(bank.AmountScale)
}

// RuleSet is the parsed content of one unit.
type RuleSet struct {
	Unit     UnitRef
	Schedule cron.Schedule
	Rules    []Rule
}

type unitDoc struct {
	Interest yaml.Node `yaml:"interest"`
	Schedule string    `yaml:"schedule"`
}

type ruleDoc struct {
	Amount       *yamlDecimal `yaml:"amount"`
	CoinType     string       `yaml:"coin_type"`
	InterestRate *yamlDecimal `yaml:"interest_rate"`
}

// yamlDecimal decodes numeric scalars without a float round trip.
type yamlDecimal struct {
	decimal.Decimal
}

func (d *yamlDecimal) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", n.Line)
	}

	v, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", n.Line, n.Value)
	}

	d.Decimal = v

	return nil
}

func decodeUnit(ref UnitRef, raw []byte) (RuleSet, error) {
	var doc unitDoc

	err := yaml.Unmarshal(raw, &doc)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, ref.Name, err)
	}

	if strings.TrimSpace(doc.Schedule) == "" {
		return RuleSet{}, fmt.Errorf("%w: %s: schedule is required", ErrConfigParse, ref.Name)
	}

	sched, err := cron.Parse(doc.Schedule)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%s: %w", ref.Name, err)
	}

	rules, err := decodeRules(&doc.Interest)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, ref.Name, err)
	}

	return RuleSet{Unit: ref, Schedule: sched, Rules: rules}, nil
}

// decodeRules walks the interest mapping in document order. A later entry
// with the same key replaces the earlier one in place.
func decodeRules(n *yaml.Node) ([]Rule, error) {
	switch {
	case n.Kind == 0:
		return nil, nil
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil, nil
	case n.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("line %d: interest must be a mapping", n.Line)
	}

	var (
		rules []Rule
		index = make(map[string]int)
	)

	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value

		rule, err := decodeRule(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}

		key := rule.Key()
		if at, ok := index[key]; ok {
			rules[at] = rule
			continue
		}

		index[key] = len(rules)
		rules = append(rules, rule)
	}

	return rules, nil
}

func decodeRule(n *yaml.Node) (Rule, error) {
	var rd ruleDoc

	err := n.Decode(&rd)
	if err != nil {
		return Rule{}, err
	}

	if rd.Amount == nil {
		return Rule{}, errors.New("amount is required")
	}

	if rd.Amount.IsNegative() {
		return Rule{}, fmt.Errorf("amount %s is negative", rd.Amount)
	}

	if rd.InterestRate == nil {
		return Rule{}, errors.New("interest_rate is required")
	}

	coin, err := bank.ParseCoinType(rd.CoinType)
	if err != nil {
		return Rule{}, err
	}

	return Rule{
		Amount:       rd.Amount.Decimal,
		CoinType:     coin,
		InterestRate: rd.InterestRate.Decimal,
	}, nil
}
