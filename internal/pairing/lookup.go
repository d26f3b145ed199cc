package pairing

import (
	"context"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/logging"
)

// #region lookup
// Lookup resolves a type code against the engine's catalog. Codes are matched
// as given. A lookup answered by the nearest-match fallback is logged, counted
// and written to the diagnosis log; a failed log write does not fail the
// lookup.
func (s *Service) Lookup(ctx context.Context, code axis.Code) (Lookup, error) {
	if err := ctx.Err(); err != nil {
		return Lookup{}, err
	}
	res := s.engine.Resolver().Resolve(code)
	out := Lookup{Resolution: res, Valid: s.engine.Axes().Valid(code)}
	if res.Exact {
		return out, nil
	}

	s.metrics.ObserveFallback()
	s.logger.Warn("catalog lookup resolved by nearest match",
		zap.String("query", string(code)),
		zap.String("category", string(res.Record.Code)),
		zap.Int("matches", res.Matches),
		zap.Bool("valid", out.Valid))
	if err := logging.LogDiagnosis(s.store.DB(), logging.LookupEntry(code, res)); err != nil {
		s.logger.Error("diagnosis log write failed", zap.String("query", string(code)), zap.Error(err))
	}
	return out, nil
}

// #endregion lookup
