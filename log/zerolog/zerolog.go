package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/ringo"
)

type Logger struct{ L zerolog.Logger }

var _ ringo.Logger = Logger{}

func (z Logger) Debug(msg string, f ringo.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f ringo.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f ringo.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f ringo.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }
