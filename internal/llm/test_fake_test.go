package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"fraudwatch/internal/gateway/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeEmbeddingsScoreOverlappingTextAsSimilar(t *testing.T) {
	f := NewFakeClient()
	ctx := context.Background()

	a, err := f.Embed(ctx, "m", "Fake bank SMS asking for OTP", 64)
	require.NoError(t, err)
	b, err := f.Embed(ctx, "m", "fake bank sms asking for otp code", 64)
	require.NoError(t, err)
	c, err := f.Embed(ctx, "m", "lottery prize wire transfer", 64)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Greater(t, entity.CosineSimilarity(a, b), 0.8)
	assert.Less(t, entity.CosineSimilarity(a, c), 0.8)
	assert.Equal(t, 3, f.Calls("embed"))
}

func TestFakeSummarizeReturnsJSON(t *testing.T) {
	f := NewFakeClient()
	ctx := WithOperation(context.Background(), "summarize")
	out, err := f.GenerateText(ctx, "m", "instructions\n\nIncident description:\nCourier parcel fee link")
	require.NoError(t, err)

	var s entity.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "Courier parcel fee link", s.Title)
	assert.Equal(t, "General Scam", s.Type)
}

func TestFakeOverridesAndErrors(t *testing.T) {
	f := NewFakeClient()
	f.Text["classify"] = "false"
	f.Err["chat"] = errors.New("down")

	out, err := f.GenerateText(WithOperation(context.Background(), "classify"), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "false", out)

	_, err = f.GenerateText(WithOperation(context.Background(), "chat"), "m", "p")
	assert.Error(t, err)
}
