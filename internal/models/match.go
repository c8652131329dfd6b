package models

// SpliceMatch is the relation between an observed chain and a known transcript.
type SpliceMatch string

// Splice match statuses.
const (
	MatchFSM   SpliceMatch = "FSM"
	MatchISM   SpliceMatch = "ISM"
	MatchNovel SpliceMatch = "novel"
)

// Rank orders statuses; lower is better.
func (s SpliceMatch) Rank() int {
	switch s {
	case MatchFSM:
		return 0
	case MatchISM:
		return 1
	default:
		return 2
	}
}

// Novelty marks one way an observed transcript deviates from its best known model.
type Novelty string

// Novelty flags.
const (
	NovelStart      Novelty = "novel_5p_end"
	NovelEnd        Novelty = "novel_3p_end"
	NoveltyISM      Novelty = "ISM_transcript"
	NoveltyPrefix   Novelty = "prefix_ISM"
	NoveltySuffix   Novelty = "suffix_ISM"
	NoveltyNIC      Novelty = "NIC_transcript"
	NoveltyNNC      Novelty = "NNC_transcript"
	NoveltyGenomic  Novelty = "intergenic_novel"
	NoveltyMonoExon Novelty = "monoexonic"
)

// Match is a classification result against a known transcript model.
type Match struct {
	GeneID       int64       `json:"gene_id"`
	TranscriptID int64       `json:"transcript_id"`
	Status       SpliceMatch `json:"status"`
	Novelty      []Novelty   `json:"novelty"`
}

// Known reports whether the match is an exact full splice match with known ends.
func (m *Match) Known() bool {
	return m.Status == MatchFSM && len(m.Novelty) == 0
}
