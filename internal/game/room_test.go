package game

import (
	"testing"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomJoinAndRebind(t *testing.T) {
	r := NewRoom("", models.DefaultRoomSettings())
	assert.NotEmpty(t, r.ID)

	added, err := r.Join("u1", "Ann", "s1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Join("u1", "Ann", "s2")
	require.NoError(t, err)
	assert.False(t, added, "same user rebinds its session")
	assert.Equal(t, 1, r.JoinedCount())
	assert.Equal(t, "s2", r.joined[0].SessionID)

	r.Leave("u1", "s1")
	assert.Equal(t, 1, r.JoinedCount(), "a stale session cannot remove the rebound seat")

	r.Leave("u1", "s2")
	assert.Zero(t, r.JoinedCount())
}

func TestRoomJoinAfterStart(t *testing.T) {
	r := NewRoom("r", models.DefaultRoomSettings())
	_, err := r.Join("u1", "Ann", "s1")
	require.NoError(t, err)
	r.started = true

	_, err = r.Join("u2", "Bob", "s2")
	assert.ErrorIs(t, err, ErrMatchAlreadyStarted)

	_, err = r.Join("u1", "Ann", "s3")
	assert.NoError(t, err, "reconnects are allowed")

	r.Leave("u1", "s3")
	assert.Equal(t, 1, r.JoinedCount(), "started seats stay")
	assert.Empty(t, r.joined[0].SessionID)
}

func TestRoomUpdateSettings(t *testing.T) {
	r := NewRoom("r", models.DefaultRoomSettings())
	s, err := r.UpdateSettings(map[string]interface{}{"maxPlayers": float64(3), "isPracticeMode": true})
	require.NoError(t, err)
	assert.Equal(t, 3, s.MaxPlayers)
	assert.True(t, r.Settings.IsPracticeMode)

	_, err = r.UpdateSettings(map[string]interface{}{"minPlayers": float64(5)})
	assert.Error(t, err)
	assert.Equal(t, 2, r.Settings.MinPlayers, "rejected update leaves settings unchanged")

	r.started = true
	_, err = r.UpdateSettings(map[string]interface{}{"maxPlayers": float64(4)})
	assert.ErrorIs(t, err, ErrMatchAlreadyStarted)
}

func TestRoomStore(t *testing.T) {
	s := NewRoomStore()
	a := NewRoom("a", models.DefaultRoomSettings())
	b := NewRoom("b", models.DefaultRoomSettings())
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	s.AddRoom(b)
	s.AddRoom(a)

	got, ok := s.GetRoom("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	list := s.ListRooms()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	s.DeleteRoom("a")
	s.DeleteRoom("a")
	_, ok = s.GetRoom("a")
	assert.False(t, ok)
	assert.True(t, a.closed)

	_, err := a.Join("u", "U", "s")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
