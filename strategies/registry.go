package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raykavin/vwapbands/pkg/logger"
	"github.com/raykavin/vwapbands/pkg/strategy"
)

// Options override the defaults of a registered strategy. Zero values keep the defaults.
type Options struct {
	Timeframe string
	FeeRate   float64
}

func (o Options) timeframe(fallback string) string {
	if o.Timeframe == "" {
		return fallback
	}
	return o.Timeframe
}

type factory func(options Options, log logger.Logger) (strategy.Strategy, error)

var registry = map[string]factory{
	"meanie-pants-vwap": func(options Options, log logger.Logger) (strategy.Strategy, error) {
		config := DefaultMeaniePantsVWAPConfig()
		config.Timeframe = options.timeframe(config.Timeframe)
		config.FeeRate = options.FeeRate
		s, err := NewMeaniePantsVWAP(config, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	"villian": func(options Options, log logger.Logger) (strategy.Strategy, error) {
		config := DefaultVillianConfig()
		config.Timeframe = options.timeframe(config.Timeframe)
		config.FeeRate = options.FeeRate
		return NewVillian(config, log), nil
	},
	"villian-moving-averages": func(options Options, log logger.Logger) (strategy.Strategy, error) {
		config := DefaultVillianMovingAveragesConfig()
		config.Timeframe = options.timeframe(config.Timeframe)
		config.FeeRate = options.FeeRate
		s, err := NewVillianMovingAverages(config, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	"first-strategy": func(options Options, log logger.Logger) (strategy.Strategy, error) {
		config := DefaultFirstStrategyConfig()
		config.Timeframe = options.timeframe(config.Timeframe)
		config.FeeRate = options.FeeRate
		return NewFirstStrategy(config, log), nil
	},
	"turtles": func(options Options, log logger.Logger) (strategy.Strategy, error) {
		config := DefaultTurtlesConfig()
		config.Timeframe = options.timeframe(config.Timeframe)
		config.FeeRate = options.FeeRate
		return NewTurtles(config, log), nil
	},
}

// Names lists the registered strategies
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds a registered strategy from its default configuration
func ByName(name string, options Options, log logger.Logger) (strategy.Strategy, error) {
	build, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return build(options, log)
}
