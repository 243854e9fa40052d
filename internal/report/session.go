package report

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/verte-zerg/fuelstat/internal/cache"
	"github.com/verte-zerg/fuelstat/internal/filter"
	"github.com/verte-zerg/fuelstat/internal/insight"
	"github.com/verte-zerg/fuelstat/internal/model"
	"github.com/verte-zerg/fuelstat/internal/stats"
)

// Session holds the loaded records, the active filter and the view cache.
// It is driven from a single goroutine.
type Session struct {
	all         []model.Record
	spec        model.FilterSpec
	fingerprint uint64
	filtered    filter.Result
	cache       *cache.Cache[View, any]
	opts        insight.Options
	log         logrus.FieldLogger
}

// NewSession starts a session with the default filter. The cache is owned by the caller
// and is invalidated by the session whenever the filter changes.
func NewSession(records []model.Record, c *cache.Cache[View, any], opts insight.Options, log logrus.FieldLogger) *Session {
	if c == nil {
		c = cache.New[View, any]()
	}
	if log == nil {
		log = logrus.New()
	}
	s := &Session{
		all:   records,
		cache: c,
		opts:  opts.WithDefaults(),
		log:   log,
	}
	s.spec = model.DefaultFilter()
	s.fingerprint = Fingerprint(s.spec)
	s.filtered = filter.Apply(s.all, s.spec)
	return s
}

// SetFilter applies spec. When it selects a different subset than the current filter,
// the records are re-filtered and the cache is cleared before SetFilter returns.
// It reports whether the filter changed.
func (s *Session) SetFilter(spec model.FilterSpec) bool {
	spec = spec.Normalized()
	fp := Fingerprint(spec)
	if fp == s.fingerprint && spec.Equal(s.spec) {
		return false
	}
	s.spec = spec
	s.fingerprint = fp
	s.filtered = filter.Apply(s.all, spec)
	s.cache.Invalidate()
	s.log.WithFields(logrus.Fields{
		"period":   spec.Period,
		"products": spec.Products,
		"region":   spec.Region,
		"matched":  s.filtered.Len(),
	}).Debug("filter changed, view cache cleared")
	return true
}

// Filter returns the active filter.
func (s *Session) Filter() model.FilterSpec {
	return s.spec
}

// Records returns the full record set.
func (s *Session) Records() []model.Record {
	return s.all
}

// Filtered returns the active subset.
func (s *Session) Filtered() filter.Result {
	return s.filtered
}

// Cache exposes the view cache.
func (s *Session) Cache() *cache.Cache[View, any] {
	return s.cache
}

// Catalog lists the categorical values of the full record set.
func (s *Session) Catalog() Catalog {
	return BuildCatalog(s.all)
}

// Build returns the cached result for v, computing it on first access since the last filter change.
func (s *Session) Build(v View) any {
	return s.cache.GetOrCompute(v, func() any {
		s.log.WithField("view", string(v)).Debug("computing view")
		return Build(v, s.all, s.filtered.Records, s.opts)
	})
}

// Overview returns the overview result.
func (s *Session) Overview() stats.Overview {
	return s.Build(ViewOverview).(stats.Overview)
}

// Distribution returns the distribution result.
func (s *Session) Distribution() Distribution {
	return s.Build(ViewDistribution).(Distribution)
}

// Temporal returns the trend analysis.
func (s *Session) Temporal() stats.Trend {
	return s.Build(ViewTemporal).(stats.Trend)
}

// Regional returns the regional analysis.
func (s *Session) Regional() stats.RegionalAnalysis {
	return s.Build(ViewRegional).(stats.RegionalAnalysis)
}

// Correlation returns the correlation result.
func (s *Session) Correlation() Correlation {
	return s.Build(ViewCorrelation).(Correlation)
}

// Insights returns the synthesized insights.
func (s *Session) Insights() []insight.Insight {
	return s.Build(ViewInsights).([]insight.Insight)
}

// Fingerprint hashes a filter spec, with products treated as a set.
func Fingerprint(spec model.FilterSpec) uint64 {
	spec = spec.Normalized()
	var buf []byte
	buf = appendField(buf, spec.Period)
	buf = appendField(buf, spec.Region)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(spec.Products)))
	for _, p := range spec.Products {
		buf = appendField(buf, p)
	}
	return xxh3.Hash(buf)
}

func appendField(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
