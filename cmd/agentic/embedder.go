package main

import (
	"context"
	"hash/fnv"
	"strings"
)

// hashEmbedder is a deterministic bag-of-words embedder. It is a stand-in
// for a real embedding model: good enough to catch near-identical drafts,
// not a semantic encoder.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 384)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%uint32(len(vec))]++
	}
	return vec, nil
}
