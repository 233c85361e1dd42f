// Package score implements the multi-factor weighted confidence calculation
// consumed by the matching service. Scoring is a pure computation and must
// never fail a match attempt: any internal panic is caught and a fixed
// fallback score is returned instead.
package score

import (
	"strings"

	"github.com/agext/levenshtein"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/tokens"
)

// Weights holds the per-factor weights for the final combination. Callers
// may pass unnormalized ratios; Score normalizes by the total before use.
type Weights struct {
	Process   float64 `json:"process" yaml:"process" mapstructure:"process"`
	Material  float64 `json:"material" yaml:"material" mapstructure:"material"`
	Equipment float64 `json:"equipment" yaml:"equipment" mapstructure:"equipment"`
	Scale     float64 `json:"scale" yaml:"scale" mapstructure:"scale"`
	Other     float64 `json:"other" yaml:"other" mapstructure:"other"`
}

// DefaultWeights returns the standard factor weights.
func DefaultWeights() Weights {
	return Weights{
		Process:   0.40,
		Material:  0.25,
		Equipment: 0.20,
		Scale:     0.10,
		Other:     0.05,
	}
}

// Total sums the factor weights.
func (w Weights) Total() float64 {
	return w.Process + w.Material + w.Equipment + w.Scale + w.Other
}

// normalized scales the weights to sum to 1.0. A zero total falls back to
// the defaults.
func (w Weights) normalized() Weights {
	total := w.Total()
	if total == 0 {
		return DefaultWeights()
	}
	return Weights{
		Process:   w.Process / total,
		Material:  w.Material / total,
		Equipment: w.Equipment / total,
		Scale:     w.Scale / total,
		Other:     w.Other / total,
	}
}

// Config holds the tunable scoring thresholds. The defaults preserve the
// established numeric behavior; treat them as knobs, not physics.
type Config struct {
	EditDistanceLimit  int     `yaml:"edit_distance_limit" mapstructure:"edit_distance_limit"`
	NearMatchCredit    float64 `yaml:"near_match_credit" mapstructure:"near_match_credit"`
	UnknownScaleCredit float64 `yaml:"unknown_scale_credit" mapstructure:"unknown_scale_credit"`
	FallbackScore      float64 `yaml:"fallback_score" mapstructure:"fallback_score"`
}

// DefaultConfig returns the standard scoring thresholds.
func DefaultConfig() Config {
	return Config{
		EditDistanceLimit:  2,
		NearMatchCredit:    0.8,
		UnknownScaleCredit: 0.5,
		FallbackScore:      0.5,
	}
}

// Breakdown holds the individual factor sub-scores and the final weighted
// score, all in [0,1].
type Breakdown struct {
	Process   float64 `json:"process"`
	Material  float64 `json:"material"`
	Equipment float64 `json:"equipment"`
	Scale     float64 `json:"scale"`
	Other     float64 `json:"other"`
	Final     float64 `json:"final"`
}

// Engine computes aggregate confidence scores.
type Engine struct {
	cfg Config
}

// NewEngine creates a scoring engine. Zero-valued config fields fall back
// to defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.EditDistanceLimit == 0 {
		cfg.EditDistanceLimit = def.EditDistanceLimit
	}
	if cfg.NearMatchCredit == 0 {
		cfg.NearMatchCredit = def.NearMatchCredit
	}
	if cfg.UnknownScaleCredit == 0 {
		cfg.UnknownScaleCredit = def.UnknownScaleCredit
	}
	if cfg.FallbackScore == 0 {
		cfg.FallbackScore = def.FallbackScore
	}
	return &Engine{cfg: cfg}
}

// Score computes the weighted aggregate confidence for a requirement set
// against a capability pool. layers optionally records which pipeline layer
// matched each requirement (keyed by requirement name) and feeds the "other"
// factor. An empty requirement set scores 0.0 by convention.
func (e *Engine) Score(reqs []model.Requirement, caps []model.Capability, layers map[string]model.MatchType, w Weights) float64 {
	return e.ScoreBreakdown(reqs, caps, layers, w).Final
}

// ScoreBreakdown is Score with the per-factor sub-scores exposed. Any
// internal panic yields the fallback score instead of propagating.
func (e *Engine) ScoreBreakdown(reqs []model.Requirement, caps []model.Capability, layers map[string]model.MatchType, w Weights) (b Breakdown) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("score: internal failure, using fallback",
				zap.Any("panic", r),
			)
			b = Breakdown{Final: e.cfg.FallbackScore}
		}
	}()
	return e.breakdown(reqs, caps, layers, w)
}

func (e *Engine) breakdown(reqs []model.Requirement, caps []model.Capability, layers map[string]model.MatchType, w Weights) Breakdown {
	if len(reqs) == 0 {
		return Breakdown{}
	}

	nw := w.normalized()
	b := Breakdown{
		Process:   e.scoreProcess(reqs, caps),
		Material:  e.scoreMaterial(reqs, caps),
		Equipment: e.scoreEquipment(reqs, caps),
		Scale:     e.scoreScale(reqs, caps),
		Other:     e.scoreLayers(reqs, layers),
	}

	b.Final = model.RoundScore(
		nw.Process*b.Process +
			nw.Material*b.Material +
			nw.Equipment*b.Equipment +
			nw.Scale*b.Scale +
			nw.Other*b.Other,
	)
	return b
}

// scoreProcess credits each requirement whose process name has an exact
// (1.0) or near match among the capability names. Near matches mirror the
// heuristic layer's rules: substring containment in either direction, or
// edit distance within the limit, both at partial credit.
func (e *Engine) scoreProcess(reqs []model.Requirement, caps []model.Capability) float64 {
	total := 0.0
	for _, req := range reqs {
		rn := tokens.Normalize(req.ProcessName)
		if rn == "" {
			rn = tokens.Normalize(req.Name)
		}
		best := 0.0
		for _, c := range caps {
			cn := tokens.Normalize(c.Name)
			switch {
			case cn == rn && cn != "":
				best = 1.0
			case best < e.cfg.NearMatchCredit && nearProcessMatch(rn, cn, e.cfg.EditDistanceLimit):
				best = e.cfg.NearMatchCredit
			}
			if best == 1.0 {
				break
			}
		}
		total += best
	}
	return total / float64(len(reqs))
}

func nearProcessMatch(rn, cn string, editLimit int) bool {
	if rn == "" || cn == "" {
		return false
	}
	if strings.Contains(rn, cn) || strings.Contains(cn, rn) {
		return true
	}
	return withinEditDistance(rn, cn, editLimit)
}

// scoreMaterial computes containment of required materials in the pooled
// capability material set. Requirements with no declared materials are
// vacuously satisfied.
func (e *Engine) scoreMaterial(reqs []model.Requirement, caps []model.Capability) float64 {
	pool := capabilityTokens(caps, "materials", "material")

	total := 0.0
	for _, req := range reqs {
		mats := tokens.NormalizeAll(req.Materials)
		if len(mats) == 0 {
			total += 1.0
			continue
		}
		found := 0
		for _, m := range mats {
			if tokenInPool(m, pool) {
				found++
			}
		}
		total += float64(found) / float64(len(mats))
	}
	return total / float64(len(reqs))
}

// scoreEquipment applies the same containment logic over tool and equipment
// tokens.
func (e *Engine) scoreEquipment(reqs []model.Requirement, caps []model.Capability) float64 {
	pool := capabilityTokens(caps, "tools", "equipment")

	total := 0.0
	for _, req := range reqs {
		reqTools := tokens.NormalizeAll(req.RequiredTools)
		if len(reqTools) == 0 {
			total += 1.0
			continue
		}
		found := 0
		for _, t := range reqTools {
			if tokenInPool(t, pool) {
				found++
			}
		}
		total += float64(found) / float64(len(reqTools))
	}
	return total / float64(len(reqs))
}

// scoreScale compares a single declared scale/quantity value per
// requirement. Full credit when any capability's scale covers it,
// proportional credit when short, partial credit when no capability
// declares a numeric scale, full credit when the requirement declares none.
func (e *Engine) scoreScale(reqs []model.Requirement, caps []model.Capability) float64 {
	capScale, capHasScale := maxCapabilityScale(caps)

	total := 0.0
	for _, req := range reqs {
		reqScale, ok := paramFloat(req.Parameters, "scale", "quantity", "batch_size")
		if !ok || reqScale <= 0 {
			total += 1.0
			continue
		}
		if !capHasScale {
			total += e.cfg.UnknownScaleCredit
			continue
		}
		if capScale >= reqScale {
			total += 1.0
		} else {
			total += capScale / reqScale
		}
	}
	return total / float64(len(reqs))
}

// layerCredit maps each pipeline layer to its evidence weight.
var layerCredit = map[model.MatchType]float64{
	model.MatchDirect:    1.0,
	model.MatchHeuristic: 0.8,
	model.MatchNLP:       0.6,
	model.MatchLLM:       0.7,
}

// scoreLayers derives the "other" factor from which pipeline layers
// contributed matches, averaged across matched requirements. No layer
// information at all yields a neutral 0.5.
func (e *Engine) scoreLayers(reqs []model.Requirement, layers map[string]model.MatchType) float64 {
	if len(layers) == 0 {
		return 0.5
	}
	total, n := 0.0, 0
	for _, req := range reqs {
		mt, ok := layers[req.Name]
		if !ok {
			continue
		}
		credit, known := layerCredit[mt]
		if !known {
			credit = 0.5
		}
		total += credit
		n++
	}
	if n == 0 {
		return 0.5
	}
	return total / float64(n)
}

func withinEditDistance(a, b string, limit int) bool {
	if a == "" || b == "" {
		return false
	}
	return levenshtein.Distance(a, b, nil) <= limit
}

// capabilityTokens pools normalized string tokens from the named parameter
// keys across all capabilities, including the capability names themselves.
func capabilityTokens(caps []model.Capability, keys ...string) []string {
	var pool []string
	for _, c := range caps {
		pool = append(pool, tokens.Normalize(c.Name))
		for _, key := range keys {
			if raw, ok := c.Parameters[key]; ok {
				if list, err := cast.ToStringSliceE(raw); err == nil {
					pool = append(pool, tokens.NormalizeAll(list)...)
				} else if s, err := cast.ToStringE(raw); err == nil {
					pool = append(pool, tokens.Normalize(s))
				}
			}
		}
	}
	return pool
}

func tokenInPool(tok string, pool []string) bool {
	return tokens.AnyOverlap([]string{tok}, pool)
}

// maxCapabilityScale returns the largest numeric scale/capacity any
// capability declares, and whether one was found.
func maxCapabilityScale(caps []model.Capability) (float64, bool) {
	best, found := 0.0, false
	for _, c := range caps {
		if v, ok := paramFloat(c.Parameters, "scale", "capacity", "quantity"); ok {
			found = true
			if v > best {
				best = v
			}
		}
	}
	return best, found
}

// paramFloat extracts the first numeric value under any of the given keys.
func paramFloat(params map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := params[key]
		if !ok {
			continue
		}
		if v, err := cast.ToFloat64E(raw); err == nil {
			return v, true
		}
	}
	return 0, false
}
