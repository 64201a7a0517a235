package similarity

import "github.com/agenthands/cognivault/internal/config"

// Policy holds every similarity threshold in one place.
type Policy struct {
	EdgeThreshold     float64
	TopK              int
	UploadTopK        int
	BranchSuppression float64
}

func DefaultPolicy() Policy {
	return Policy{
		EdgeThreshold:     0.75,
		TopK:              10,
		UploadTopK:        5,
		BranchSuppression: 0.6,
	}
}

func PolicyFromConfig(cfg config.SimilarityConfig) Policy {
	p := DefaultPolicy()
	p.EdgeThreshold = cfg.EdgeThreshold
	p.BranchSuppression = cfg.BranchSuppression
	if cfg.TopK > 0 {
		p.TopK = cfg.TopK
	}
	if cfg.UploadTopK > 0 {
		p.UploadTopK = cfg.UploadTopK
	}
	return p
}

// Links reports whether score is high enough for a SIMILAR_TO edge. The
// threshold itself links.
func (p Policy) Links(score float64) bool {
	return score >= p.EdgeThreshold
}

// Suppresses reports whether content this similar to earlier material is
// too familiar to count as a new branch.
func (p Policy) Suppresses(similarity float64) bool {
	return similarity >= p.BranchSuppression
}

// CanonicalPair orders two ids so an undirected edge has one stored direction.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
