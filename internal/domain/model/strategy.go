package model

import (
	"strings"
	"unicode/utf8"
)

type StrategyKind string

const (
	StrategySingleShot       StrategyKind = "SINGLE_SHOT"
	StrategyBoundedMapReduce StrategyKind = "BOUNDED_MAP_REDUCE"
	StrategyFixedMapReduce   StrategyKind = "FIXED_MAP_REDUCE"
)

// OverlapRatio is the share of a chunk repeated at the head of the next one.
const OverlapRatio = 0.1

// Strategy is decided once per job and never changes afterwards.
type Strategy struct {
	Kind      StrategyKind
	ChunkSize int
}

func (s Strategy) IsMapReduce() bool {
	return s.Kind != StrategySingleShot
}

// DecideStrategy picks how to summarize n characters given the optimal chunk
// size and the fan-out cap.
func DecideStrategy(n, optimalChunk, maxChunks int) Strategy {
	if maxChunks < 1 {
		maxChunks = 1
	}
	if optimalChunk <= 0 || n <= optimalChunk {
		return Strategy{Kind: StrategySingleShot, ChunkSize: n}
	}
	if ceilDiv(n, optimalChunk) <= maxChunks {
		return Strategy{Kind: StrategyBoundedMapReduce, ChunkSize: optimalChunk}
	}
	return Strategy{Kind: StrategyFixedMapReduce, ChunkSize: ceilDiv(n, maxChunks)}
}

// Overlap returns floor(OverlapRatio * size).
func Overlap(size int) int {
	return size / 10
}

// CountChars counts code points, the unit every size here is measured in.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// SplitText cuts text every size characters and prefixes every chunk after
// the first with the last Overlap(size) characters before its cut. That
// yields ceil(n/size) chunks and every character lands in at least one.
func SplitText(text string, size int) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if size <= 0 || size >= n {
		return []string{text}
	}
	overlap := Overlap(size)
	count := ceilDiv(n, size)
	chunks := make([]string, 0, count)
	for i := 0; i < count; i++ {
		start := i*size - overlap
		if start < 0 {
			start = 0
		}
		end := (i + 1) * size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Rejoin reverses SplitText by dropping the known overlap from every chunk
// after the first.
func Rejoin(chunks []string, size int) string {
	overlap := Overlap(size)
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		r := []rune(c)
		if overlap > len(r) {
			continue
		}
		b.WriteString(string(r[overlap:]))
	}
	return b.String()
}

// MergeOverlap appends next to prev without repeating the longest suffix of
// prev that is also a prefix of next. Ties cannot occur: the longest match
// wins, and an empty match means plain concatenation.
func MergeOverlap(prev, next string) string {
	return prev + next[OverlapLen(prev, next):]
}

// OverlapLen is the byte length of the longest suffix of prev that is a
// prefix of next, aligned on rune boundaries.
func OverlapLen(prev, next string) int {
	limit := len(prev)
	if len(next) < limit {
		limit = len(next)
	}
	for k := limit; k > 0; k-- {
		if k < len(next) && !utf8.RuneStart(next[k]) {
			continue
		}
		if strings.HasSuffix(prev, next[:k]) {
			return k
		}
	}
	return 0
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
