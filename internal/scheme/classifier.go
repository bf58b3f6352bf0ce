// Package scheme classifies funds by scheme type using a master lookup.
package scheme

import (
	"log/slog"
	"strings"

	"switchrecon/internal/fuzzy"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/normalize"
)

// Classifier resolves fund names to scheme types, exact key first and
// token-set similarity second. It only reads its lookup and is safe for
// concurrent use.
type Classifier struct {
	lookup    *Lookup
	keys      []string
	threshold float64
	logger    *slog.Logger
}

// NewClassifier creates a classifier over lookup; lookup may be nil
func NewClassifier(lookup *Lookup, threshold float64, logger *slog.Logger) *Classifier {
	c := &Classifier{
		lookup:    lookup,
		threshold: threshold,
		logger:    infrastructure.WithComponent(logger, "scheme_classifier"),
	}
	if lookup != nil {
		c.keys = lookup.Keys()
	}
	return c
}

// Classify returns the scheme type of fundName, or "" when the name is
// missing, the lookup is empty or no key scores at least the threshold.
func (c *Classifier) Classify(fundName string) string {
	if strings.TrimSpace(fundName) == "" || c.lookup.Len() == 0 {
		return ""
	}

	key := normalize.FundKey(fundName)
	if t, ok := c.lookup.Get(key); ok && t != "" {
		return t
	}

	m, ok := fuzzy.ExtractOne(key, c.keys, fuzzy.TokenSetRatio, c.threshold)
	if !ok {
		c.logger.Debug("no scheme match",
			slog.String("fund", fundName),
			slog.String("key", key))
		return ""
	}

	t, _ := c.lookup.Get(m.Choice)
	c.logger.Debug("fuzzy scheme match",
		slog.String("fund", fundName),
		slog.String("key", key),
		slog.String("match", m.Choice),
		slog.Float64("score", m.Score))
	return t
}
