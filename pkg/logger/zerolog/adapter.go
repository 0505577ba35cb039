package zerolog

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/raykavin/vwapbands/pkg/logger"
)

var _ logger.Logger = (*ZerologAdapter)(nil)

// ZerologAdapter exposes a zerolog.Logger through logger.Logger
type ZerologAdapter struct {
	log zerolog.Logger
}

func NewAdapter(log zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: log}
}

// Nop returns an adapter that discards everything, handy in tests
func Nop() *ZerologAdapter {
	return NewAdapter(zerolog.Nop())
}

func (z *ZerologAdapter) GetLevel() logger.Level {
	return toLevel(z.log.GetLevel())
}

// SetLevel changes the level of this adapter only, derived loggers created
// before the call keep their own level
func (z *ZerologAdapter) SetLevel(level logger.Level) {
	z.log = z.log.Level(toZerologLevel(level))
}

func (z *ZerologAdapter) WithError(err error) logger.Logger {
	return &ZerologAdapter{log: z.log.With().Stack().Err(err).Logger()}
}

func (z *ZerologAdapter) WithField(key string, value any) logger.Logger {
	return &ZerologAdapter{log: z.log.With().Interface(key, value).Logger()}
}

func (z *ZerologAdapter) WithFields(fields map[string]any) logger.Logger {
	return &ZerologAdapter{log: z.log.With().Fields(fields).Logger()}
}

func (z *ZerologAdapter) Print(args ...any) { z.log.Print(args...) }
func (z *ZerologAdapter) Trace(args ...any) { z.log.Trace().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Debug(args ...any) { z.log.Debug().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Info(args ...any)  { z.log.Info().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Warn(args ...any)  { z.log.Warn().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Error(args ...any) { z.log.Error().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Fatal(args ...any) { z.log.Fatal().Msg(fmt.Sprint(args...)) }
func (z *ZerologAdapter) Panic(args ...any) { z.log.Panic().Msg(fmt.Sprint(args...)) }

func (z *ZerologAdapter) Printf(format string, args ...any) { z.log.Printf(format, args...) }
func (z *ZerologAdapter) Tracef(format string, args ...any) { z.log.Trace().Msgf(format, args...) }
func (z *ZerologAdapter) Debugf(format string, args ...any) { z.log.Debug().Msgf(format, args...) }
func (z *ZerologAdapter) Infof(format string, args ...any)  { z.log.Info().Msgf(format, args...) }
func (z *ZerologAdapter) Warnf(format string, args ...any)  { z.log.Warn().Msgf(format, args...) }
func (z *ZerologAdapter) Errorf(format string, args ...any) { z.log.Error().Msgf(format, args...) }
func (z *ZerologAdapter) Fatalf(format string, args ...any) { z.log.Fatal().Msgf(format, args...) }
func (z *ZerologAdapter) Panicf(format string, args ...any) { z.log.Panic().Msgf(format, args...) }

var levels = []struct {
	zerolog zerolog.Level
	logger  logger.Level
}{
	{zerolog.Disabled, logger.Disabled},
	{zerolog.NoLevel, logger.NoLevel},
	{zerolog.TraceLevel, logger.TraceLevel},
	{zerolog.DebugLevel, logger.DebugLevel},
	{zerolog.InfoLevel, logger.InfoLevel},
	{zerolog.WarnLevel, logger.WarnLevel},
	{zerolog.ErrorLevel, logger.ErrorLevel},
	{zerolog.FatalLevel, logger.FatalLevel},
	{zerolog.PanicLevel, logger.PanicLevel},
}

func toLevel(level zerolog.Level) logger.Level {
	for _, l := range levels {
		if l.zerolog == level {
			return l.logger
		}
	}
	return logger.NoLevel
}

func toZerologLevel(level logger.Level) zerolog.Level {
	for _, l := range levels {
		if l.logger == level {
			return l.zerolog
		}
	}
	return zerolog.NoLevel
}
