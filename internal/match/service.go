// Package match implements the matching service: the layered pipeline that
// pairs normalized requirements with facility capabilities and emits ranked
// supply trees. Matching is a pure computation over in-memory data; only
// the AI-assisted layer may touch the network, always under a timeout.
package match

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/supplygraph/matching-engine/internal/domain"
	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/score"
)

// Document is a raw domain-specific document handed to the engine: a
// requirement-side document (e.g. an OKH build recipe) or a facility's
// capability document (e.g. an OKW listing).
type Document struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"` // input type used for domain resolution
	Content map[string]any `json:"content"`
}

// Options tunes the matching pipeline.
type Options struct {
	// Concurrency bounds parallel candidate evaluation.
	Concurrency int
	// LLMTimeout bounds each AI-assisted interpretation call.
	LLMTimeout time.Duration
	// LLMThreshold is the minimum interpreter confidence that counts as a
	// qualifying match. The layer's scoring credit is fixed by the score
	// engine regardless of the raw confidence.
	LLMThreshold float64
	// EditDistanceLimit bounds the heuristic layer's edit distance rule.
	EditDistanceLimit int
}

// DefaultOptions returns the standard pipeline tuning.
func DefaultOptions() Options {
	return Options{
		Concurrency:       4,
		LLMTimeout:        20 * time.Second,
		LLMThreshold:      0.5,
		EditDistanceLimit: 2,
	}
}

// Service orchestrates the multi-layer matching pipeline.
type Service struct {
	registry *domain.Registry
	scorer   *score.Engine
	interp   Interpreter // nil disables the AI-assisted layer
	opts     Options
}

// NewService creates a matching service. interp may be nil, in which case
// the AI-assisted layer is skipped.
func NewService(registry *domain.Registry, scorer *score.Engine, interp Interpreter, opts Options) *Service {
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = def.LLMTimeout
	}
	if opts.LLMThreshold <= 0 {
		opts.LLMThreshold = def.LLMThreshold
	}
	if opts.EditDistanceLimit <= 0 {
		opts.EditDistanceLimit = def.EditDistanceLimit
	}
	return &Service{
		registry: registry,
		scorer:   scorer,
		interp:   interp,
		opts:     opts,
	}
}

// FindMatches evaluates every candidate facility against the requirement
// document and returns the viable supply trees in descending confidence
// order, ties broken by candidate arrival order. Candidates whose documents
// fail extraction are skipped and logged; candidates contributing no match
// and no substitution are omitted. weights may be nil for defaults.
func (s *Service) FindMatches(ctx context.Context, requirement Document, facilities []Document, weights *score.Weights) ([]model.SupplyTree, error) {
	domainName, err := s.registry.Resolve(requirement.Type)
	if err != nil {
		return nil, err
	}

	extractor, err := s.registry.GetExtractor(domainName)
	if err != nil {
		return nil, err
	}
	matcher, err := s.registry.GetMatcher(domainName)
	if err != nil {
		return nil, err
	}
	meta, err := s.registry.GetMetadata(domainName)
	if err != nil {
		return nil, err
	}

	reqs, err := extractor.ExtractRequirements(ctx, requirement.Content)
	if err != nil {
		return nil, &domain.ExtractionError{Domain: domainName, Doc: docRef(requirement), Err: err}
	}
	if len(reqs) == 0 {
		zap.L().Info("match: requirement document yields no requirements",
			zap.String("domain", domainName),
			zap.String("doc", docRef(requirement)),
		)
		return []model.SupplyTree{}, nil
	}

	w := score.DefaultWeights()
	if weights != nil {
		w = *weights
	}

	results := make([]*model.SupplyTree, len(facilities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, fac := range facilities {
		g.Go(func() error {
			results[i] = s.evaluate(gctx, domainName, extractor, matcher, meta, requirement, fac, reqs, w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "match: candidate evaluation")
	}
	if ctx.Err() != nil {
		// Cancellation discards partial per-candidate results.
		return nil, ctx.Err()
	}

	trees := make([]model.SupplyTree, 0, len(results))
	for _, t := range results {
		if t != nil {
			trees = append(trees, *t)
		}
	}
	sort.SliceStable(trees, func(i, j int) bool {
		return trees[i].ConfidenceScore > trees[j].ConfidenceScore
	})
	return trees, nil
}

// evaluate runs the layered pipeline for a single candidate facility.
// Returns nil when the candidate is skipped or contributes nothing.
func (s *Service) evaluate(ctx context.Context, domainName string, extractor domain.Extractor, matcher domain.Matcher, meta domain.Metadata, requirement, facility Document, reqs []model.Requirement, w score.Weights) *model.SupplyTree {
	log := zap.L().With(
		zap.String("domain", domainName),
		zap.String("facility", docRef(facility)),
	)

	caps, err := extractor.ExtractCapabilities(ctx, facility.Content)
	if err != nil {
		extErr := &domain.ExtractionError{Domain: domainName, Doc: docRef(facility), Err: err}
		log.Warn("match: skipping candidate, extraction failed", zap.Error(extErr))
		return nil
	}
	if len(caps) == 0 {
		return nil
	}

	matched := make(map[string]model.Capability)
	layers := make(map[string]model.MatchType)

	// Direct layer: the domain matcher's exact matching rules.
	if mr, err := matcher.Match(ctx, reqs, caps); err != nil {
		log.Warn("match: domain matcher failed, continuing with later layers", zap.Error(err))
	} else if mr != nil {
		for name, c := range mr.MatchedCapabilities {
			matched[name] = c
			if mt, ok := mr.Layers[name]; ok {
				layers[name] = mt
			} else {
				layers[name] = model.MatchDirect
			}
		}
	}

	// Heuristic and semantic layers, in precedence order, for requirements
	// the direct layer left unmatched.
	for _, req := range reqs {
		if _, ok := matched[req.Name]; ok {
			continue
		}
		if hit := matchHeuristic(req, caps, s.opts.EditDistanceLimit); hit != nil {
			matched[req.Name] = hit.capability
			layers[req.Name] = hit.layer
			continue
		}
		if hit := matchSemantic(req, caps, meta.Synonyms); hit != nil {
			matched[req.Name] = hit.capability
			layers[req.Name] = hit.layer
		}
	}

	// AI-assisted layer, last, only for still-unmatched requirements.
	if s.interp != nil {
		for _, req := range reqs {
			if _, ok := matched[req.Name]; ok {
				continue
			}
			if hit := s.interpretMatch(ctx, req, caps, log); hit != nil {
				matched[req.Name] = hit.capability
				layers[req.Name] = hit.layer
			}
		}
	}

	// Substitution check for requirements no layer matched.
	var subs []model.Substitution
	var missing []model.Requirement
	for _, req := range reqs {
		if _, ok := matched[req.Name]; ok {
			continue
		}
		sub, err := matcher.FindSubstitute(ctx, req, caps)
		if err != nil {
			log.Warn("match: substitution check failed",
				zap.String("requirement", req.Name),
				zap.Error(err),
			)
		}
		if sub != nil {
			subs = append(subs, *sub)
		} else {
			missing = append(missing, req)
		}
	}

	if len(matched) == 0 && len(subs) == 0 {
		return nil
	}

	breakdown := s.scorer.ScoreBreakdown(reqs, caps, layers, w)

	tree := model.NewSupplyTree(facilityName(facility), docRef(requirement), docRef(facility), breakdown.Final)
	tree.MatchType = dominantLayer(layers)
	tree.MaterialsRequired = requiredMaterials(reqs)
	tree.CapabilitiesUsed = capabilitiesUsed(reqs, matched, subs)
	tree.Substitutions = subs
	tree.Metadata = map[string]any{
		"domain":          domainName,
		"score_breakdown": breakdown,
		"matched":         len(matched),
		"substituted":     len(subs),
		"missing":         len(missing),
	}

	log.Debug("match: candidate evaluated",
		zap.Float64("confidence", tree.ConfidenceScore),
		zap.String("match_type", string(tree.MatchType)),
		zap.Int("matched", len(matched)),
		zap.Int("substituted", len(subs)),
		zap.Int("missing", len(missing)),
	)
	return tree
}

// interpretMatch asks the AI-assisted layer for a qualifying capability.
// Timeouts and failures mean no match from this layer.
func (s *Service) interpretMatch(ctx context.Context, req model.Requirement, caps []model.Capability, log *zap.Logger) *layerHit {
	for _, c := range caps {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
		conf, err := s.interp.Interpret(callCtx, req, c)
		cancel()
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warn("match: llm interpretation failed",
					zap.String("requirement", req.Name),
					zap.String("capability", c.Name),
					zap.Error(err),
				)
			}
			continue
		}
		if conf < s.opts.LLMThreshold {
			continue
		}
		return &layerHit{capability: c, layer: model.MatchLLM}
	}
	return nil
}

// Validate runs the domain validator over a produced supply tree. In strict
// mode, warnings are promoted to errors and the score is penalized when any
// warnings were found before promotion. Validation and scoring are
// independent passes over the same result.
func (s *Service) Validate(ctx context.Context, tree *model.SupplyTree, level model.QualityLevel, strict bool) (*model.ValidationResult, error) {
	domainName, _ := tree.Metadata["domain"].(string)
	if domainName == "" {
		return nil, eris.Errorf("match: supply tree %s carries no domain metadata", tree.ID)
	}

	validator, err := s.registry.GetValidator(domainName)
	if err != nil {
		return nil, err
	}

	res, err := validator.Validate(ctx, tree, level)
	if err != nil {
		return nil, eris.Wrap(err, "match: validate supply tree")
	}

	if strict && len(res.Warnings) > 0 {
		res.Errors = append(res.Errors, res.Warnings...)
		res.Warnings = nil
		res.Score = model.RoundScore(res.Score * 0.9)
		res.Valid = len(res.Errors) == 0
	}
	return res, nil
}

func dominantLayer(layers map[string]model.MatchType) model.MatchType {
	best := model.MatchUnknown
	for _, mt := range layers {
		if mt.Precedence() > best.Precedence() {
			best = mt
		}
	}
	return best
}

func requiredMaterials(reqs []model.Requirement) []string {
	seen := make(map[string]bool)
	var out []string
	for _, req := range reqs {
		for _, m := range req.Materials {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// capabilitiesUsed lists, in requirement order, the names of capabilities
// actually consulted for matches and substitutions.
func capabilitiesUsed(reqs []model.Requirement, matched map[string]model.Capability, subs []model.Substitution) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, req := range reqs {
		if c, ok := matched[req.Name]; ok {
			add(c.Name)
		}
	}
	for _, sub := range subs {
		add(sub.Substitute.Name)
	}
	return out
}

func facilityName(doc Document) string {
	if name := cast.ToString(doc.Content["name"]); name != "" {
		return name
	}
	return doc.ID
}

func docRef(doc Document) string {
	if doc.ID != "" {
		return doc.ID
	}
	return cast.ToString(doc.Content["name"])
}
