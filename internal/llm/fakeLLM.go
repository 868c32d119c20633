package llm

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// FakeClient returns deterministic payloads per operation for offline runs
// and tests. Classification always approves, summaries echo the first line,
// and embeddings are hashed bag-of-words vectors so overlapping texts score
// as similar.
type FakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	// Text overrides the GenerateText response per operation when set.
	Text map[string]string
	// Err forces an error per operation when set.
	Err map[string]error
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		calls: map[string]int{},
		Text:  map[string]string{},
		Err:   map[string]error{},
	}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// Calls reports how many times op was invoked.
func (f *FakeClient) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeClient) record(op string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err := f.Err[op]; err != nil {
		return "", false, err
	}
	txt, ok := f.Text[op]
	return txt, ok, nil
}

func (f *FakeClient) GenerateText(ctx context.Context, model, prompt string, media ...Media) (string, error) {
	op := OperationFrom(ctx)
	txt, ok, err := f.record(op)
	if err != nil {
		return "", err
	}
	if ok {
		return txt, nil
	}
	switch op {
	case "classify":
		return "true", nil
	case "summarize":
		line := lastSection(prompt)
		title := line
		if r := []rune(title); len(r) > 60 {
			title = string(r[:60])
		}
		b, _ := json.Marshal(map[string]string{
			"title":   title,
			"type":    "General Scam",
			"content": line,
		})
		return string(b), nil
	default:
		return "Stay alert: never share one-time passwords, and verify unexpected requests through official channels.", nil
	}
}

func (f *FakeClient) Embed(ctx context.Context, model, text string, dims int) ([]float32, error) {
	if _, _, err := f.record("embed"); err != nil {
		return nil, err
	}
	if dims <= 0 {
		dims = 768
	}
	vec := make([]float32, dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?:;\"'()")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[int(h.Sum32()%uint32(dims))]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}

// lastSection returns the trailing non-empty line of a prompt, which is
// where the gateway places the user-provided text.
func lastSection(prompt string) string {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
