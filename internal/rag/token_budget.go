package rag

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts model tokens in a text.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts with the model's BPE encoding. The encoding is
// loaded on first use; if it cannot be loaded (offline, unknown model) it
// falls back to a four-characters-per-token estimate.
type TiktokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

func NewTiktokenCounter(model string) *TiktokenCounter {
	return &TiktokenCounter{model: model}
}

func (c *TiktokenCounter) load() {
	enc, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err == nil {
		c.enc = enc
	}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(c.load)
	if c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens is a rough count used when no encoding is available.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

type estimateCounter struct{}

func (estimateCounter) Count(text string) int { return EstimateTokens(text) }

// EstimateCounter is a TokenCounter that never touches the network.
var EstimateCounter TokenCounter = estimateCounter{}

// BatchByTokens groups consecutive indices of texts so that each batch stays
// within budget tokens. A single text over budget gets a batch of its own.
func BatchByTokens(texts []string, budget int, counter TokenCounter) [][]int {
	if len(texts) == 0 {
		return nil
	}
	if counter == nil {
		counter = EstimateCounter
	}
	var (
		batches [][]int
		cur     []int
		used    int
	)
	for i, t := range texts {
		n := counter.Count(t)
		if len(cur) > 0 && budget > 0 && used+n > budget {
			batches = append(batches, cur)
			cur, used = nil, 0
		}
		cur = append(cur, i)
		used += n
	}
	return append(batches, cur)
}
