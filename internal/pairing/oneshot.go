package pairing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
)

// oneShotCacheSize bounds the session-less diagnosis cache.
const oneShotCacheSize = 1024

// #region one-shot
// Diagnose runs a session-less diagnosis. The engine is deterministic, so
// results are cached by input content and only fresh results are counted.
// Callers get their own copy; mutating it leaves the cache untouched.
func (s *Service) Diagnose(ctx context.Context, in engine.Input) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}
	key, err := inputKey(in)
	if err != nil {
		return engine.Result{}, fmt.Errorf("diagnose: %w", err)
	}
	if res, ok := s.cache.Get(key); ok {
		return res.Clone(), nil
	}
	res, err := s.engine.Diagnose(in)
	if err != nil {
		return engine.Result{}, err
	}
	s.cache.Add(key, res.Clone())
	s.metrics.ObserveDiagnosis(string(res.TypeCode), res.ExactMatch, res.Overridden, res.Incomplete, res.SynchronyPercent)
	if !res.ExactMatch {
		s.logger.Warn("type code resolved by nearest match",
			zap.String("type_code", string(res.TypeCode)),
			zap.String("category", string(res.Category.Code)))
	}
	return res, nil
}

// CachedResults reports how many one-shot results are cached.
func (s *Service) CachedResults() int { return s.cache.Len() }

func inputKey(in engine.Input) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// #endregion one-shot
