// internal/events/events_test.go
package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKnownEvents(t *testing.T) {
	ev, err := Decode("player_joined", json.RawMessage(`{"id":"p1","name":"Ana","avatarId":3}`))
	require.NoError(t, err)
	joined, ok := ev.(PlayerJoined)
	require.True(t, ok, "expected PlayerJoined, got %T", ev)
	assert.Equal(t, "p1", joined.ID)
	assert.Equal(t, "Ana", joined.Name)
	assert.Equal(t, 3, joined.AvatarID)

	ev, err = Decode("reveal", json.RawMessage(`{"guesses":[{"playerId":"p2","guessedPlayerId":"p1","isCorrect":true,"timestamp":1000}],"scores":[{"playerId":"p2","points":18}]}`))
	require.NoError(t, err)
	reveal := ev.(Reveal)
	require.Len(t, reveal.Guesses, 1)
	require.Len(t, reveal.Scores, 1)
	assert.Equal(t, 18, reveal.Scores[0].Points)

	ev, err = Decode("game_ended", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, TypeGameEnded, ev.EventType())
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := Decode("chat_message", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := Decode("player_joined", json.RawMessage(`{"id":`))
	assert.Error(t, err)
}
