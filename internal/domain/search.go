package domain

// IndexMatch is a single candidate hit from one of the two indexes. Score
// carries the lexical rank for text matches and the cosine similarity for
// vector matches.
type IndexMatch struct {
	TaskID int64
	Score  float64
}

// SearchResult is an ephemeral task projection returned by the hybrid
// ranker. Scores are populated only for ranked results; fallback results
// carry Ranked=false and zero scores.
type SearchResult struct {
	Task             Task
	ProjectName      string // empty = no project
	AssignedUsername string // empty = unassigned
	ContentText      string // text embedded at index time, if indexed

	Ranked        bool
	Similarity    float64 // 1 - cosine distance, [0,1] for normalized vectors
	TextRank      float64 // lexical ranking score, >= 0
	CombinedScore float64
}
