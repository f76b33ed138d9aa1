package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloras/starboard/internal/database/types"
	"github.com/veloras/starboard/internal/setup/config"
	"go.uber.org/zap"
)

var errNotFound = &rest.Error{Response: &http.Response{StatusCode: http.StatusNotFound}}

// fakeFetcher counts remote calls and serves canned entities.
type fakeFetcher struct {
	users    map[snowflake.ID]*discord.User
	members  map[snowflake.ID]*discord.Member
	messages map[snowflake.ID]*discord.Message
	calls    int
	err      error
}

func (f *fakeFetcher) GetUser(userID snowflake.ID, _ ...rest.RequestOpt) (*discord.User, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	if user, ok := f.users[userID]; ok {
		return user, nil
	}

	return nil, errNotFound
}

func (f *fakeFetcher) GetMember(_, userID snowflake.ID, _ ...rest.RequestOpt) (*discord.Member, error) {
	f.calls++

	if member, ok := f.members[userID]; ok {
		return member, nil
	}

	return nil, errNotFound
}

func (f *fakeFetcher) GetWebhook(snowflake.ID, ...rest.RequestOpt) (discord.Webhook, error) {
	f.calls++
	return nil, errNotFound
}

func (f *fakeFetcher) GetMessage(_, messageID snowflake.ID, _ ...rest.RequestOpt) (*discord.Message, error) {
	f.calls++

	if msg, ok := f.messages[messageID]; ok {
		return msg, nil
	}

	return nil, errNotFound
}

func (f *fakeFetcher) GetChannel(snowflake.ID, ...rest.RequestOpt) (discord.Channel, error) {
	f.calls++
	return nil, errNotFound
}

type fakeGraph struct{}

func (fakeGraph) Channel(snowflake.ID) (discord.GuildChannel, bool) {
	return nil, false
}

type fakeSource struct {
	starboards []*types.Starboard
	calls      int
}

func (f *fakeSource) GetStarboardsByGuild(context.Context, uint64) ([]*types.Starboard, error) {
	f.calls++
	return f.starboards, nil
}

func testConfig() *config.Cache {
	return &config.Cache{
		UserCacheSize:        8,
		UserNullCacheSize:    8,
		MemberCacheSize:      8,
		WebhookCacheSize:     8,
		MessageCacheSize:     8,
		MessageNullCacheSize: 8,
		ChannelCacheSize:     8,
		ChannelNullCacheSize: 8,
		VoteEmojiCacheSize:   8,
	}
}

func newTestCache(fetcher *fakeFetcher, source *fakeSource) *Cache {
	return New(testConfig(), fetcher, fakeGraph{}, source, zap.NewNop())
}

func TestGofUser(t *testing.T) {
	t.Run("round trip hits remote once", func(t *testing.T) {
		fetcher := &fakeFetcher{users: map[snowflake.ID]*discord.User{
			1: {ID: 1, Username: "someone"},
		}}
		c := newTestCache(fetcher, &fakeSource{})

		user, err := c.GofUser(t.Context(), 1)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "someone", user.Username)

		_, err = c.GofUser(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("not found is cached as absent", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		c := newTestCache(fetcher, &fakeSource{})

		user, err := c.GofUser(t.Context(), 42)
		require.NoError(t, err)
		assert.Nil(t, user)

		user, err = c.GofUser(t.Context(), 42)
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.Equal(t, 1, fetcher.calls, "absent marker must short-circuit the second fetch")
	})

	t.Run("transient failures are not cached", func(t *testing.T) {
		fetcher := &fakeFetcher{err: errors.New("i/o timeout")}
		c := newTestCache(fetcher, &fakeSource{})

		_, err := c.GofUser(t.Context(), 7)
		require.Error(t, err)

		_, err = c.GofUser(t.Context(), 7)
		require.Error(t, err)
		assert.Equal(t, 2, fetcher.calls, "failures other than not-found must not poison the cache")
	})
}

func TestGofMember(t *testing.T) {
	t.Run("absent membership cached inline", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		c := newTestCache(fetcher, &fakeSource{})

		member, err := c.GofMember(t.Context(), 10, 20)
		require.NoError(t, err)
		assert.Nil(t, member)

		_, err = c.GofMember(t.Context(), 10, 20)
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("set member replaces absent marker", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		c := newTestCache(fetcher, &fakeSource{})

		_, err := c.GofMember(t.Context(), 10, 20)
		require.NoError(t, err)

		c.SetMember(discord.Member{GuildID: 10, User: discord.User{ID: 20}})

		member, err := c.GofMember(t.Context(), 10, 20)
		require.NoError(t, err)
		require.NotNil(t, member)
		assert.Equal(t, snowflake.ID(20), member.User.ID)
		assert.Equal(t, 1, fetcher.calls)
	})
}

func TestGofMessage(t *testing.T) {
	t.Run("delete writes negative marker", func(t *testing.T) {
		fetcher := &fakeFetcher{messages: map[snowflake.ID]*discord.Message{
			5: {ID: 5, Content: "hello"},
		}}
		c := newTestCache(fetcher, &fakeSource{})

		msg, err := c.GofMessage(t.Context(), 1, 5)
		require.NoError(t, err)
		require.NotNil(t, msg)

		c.DeleteMessage(5)

		msg, err = c.GofMessage(t.Context(), 1, 5)
		require.NoError(t, err)
		assert.Nil(t, msg, "deleted message must resolve as absent without a remote call")
		assert.Equal(t, 1, fetcher.calls)
	})
}

func TestGofWebhook(t *testing.T) {
	t.Run("absence is never cached", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		c := newTestCache(fetcher, &fakeSource{})

		webhook, err := c.GofWebhook(t.Context(), 7)
		require.NoError(t, err)
		assert.Nil(t, webhook)

		_, err = c.GofWebhook(t.Context(), 7)
		require.NoError(t, err)
		assert.Equal(t, 2, fetcher.calls, "a stale webhook id is cleared from its row, not negative-cached")
	})

	t.Run("set then get skips the fetcher", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		c := newTestCache(fetcher, &fakeSource{})

		c.SetWebhook(&Webhook{ID: 7, ChannelID: 20, Token: "tok"})

		webhook, err := c.GofWebhook(t.Context(), 7)
		require.NoError(t, err)
		require.NotNil(t, webhook)
		assert.Equal(t, "tok", webhook.Token)
		assert.Equal(t, 0, fetcher.calls)
	})
}

func TestGuildVoteEmojis(t *testing.T) {
	source := &fakeSource{starboards: []*types.Starboard{
		{ID: 1, UpvoteEmojis: []string{"⭐", "🌟"}},
		{ID: 2, UpvoteEmojis: []string{"⭐", "🔥"}},
	}}
	c := newTestCache(&fakeFetcher{}, source)

	emojis, err := c.GuildVoteEmojis(t.Context(), 99)
	require.NoError(t, err)
	assert.Len(t, emojis, 3)

	_, err = c.GuildVoteEmojis(t.Context(), 99)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	// Editing a starboard's emoji list invalidates the derived set
	c.InvalidateVoteEmojis(99)

	_, err = c.GuildVoteEmojis(t.Context(), 99)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestClearSafe(t *testing.T) {
	fetcher := &fakeFetcher{users: map[snowflake.ID]*discord.User{1: {ID: 1}}}
	c := newTestCache(fetcher, &fakeSource{})

	_, err := c.GofUser(t.Context(), 1)
	require.NoError(t, err)

	c.ClearSafe()

	_, err = c.GofUser(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls, "cleared cache must re-fetch")
}
