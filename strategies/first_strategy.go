package strategies

import (
	"context"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/logger"
)

// FirstStrategy trades the moving average stack only on a breakout candle
// whose body exceeds one ATR in the direction of the stack
type FirstStrategy struct {
	*Villian
}

func DefaultFirstStrategyConfig() VillianConfig {
	config := DefaultVillianConfig()
	config.ADXThreshold = 0
	return config
}

func NewFirstStrategy(config VillianConfig, log logger.Logger) *FirstStrategy {
	v := &Villian{config: config, log: log}
	v.filter = func(df *core.Dataframe, side core.SideType) bool {
		atr := lastValue(df, "atr")
		if side == core.SideTypeBuy {
			return df.Close.Last(0) > df.Open.Last(0)+atr
		}
		return df.Close.Last(0) < df.Open.Last(0)-atr
	}
	return &FirstStrategy{Villian: v}
}

func (f *FirstStrategy) OnCandle(ctx context.Context, df *core.Dataframe, broker core.Broker) {
	runStack(ctx, df, broker, &f.trade, f.config, f.filter, f.log)
}
