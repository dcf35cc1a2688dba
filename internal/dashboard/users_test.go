package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersView_LoadsOnce(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	v := NewUsersView("h1", api, discardLogger())
	assert.True(t, v.Page().Loading)

	v.Load(context.Background())
	v.Load(context.Background())

	page := v.Page()
	assert.False(t, page.Loading)
	assert.Empty(t, page.Error)
	assert.Len(t, page.Users, 4)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, api.userCalls)
}

func TestUsersView_LoadFailure(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.usersErr = errUpstream
	v := NewUsersView("h1", api, discardLogger())
	v.Load(context.Background())

	page := v.Page()
	assert.False(t, page.Loading)
	assert.Equal(t, MsgUsersLoadFailed, page.Error)
	assert.Empty(t, page.Users)
	assert.Equal(t, MsgNoUsers, page.Empty)
}

func TestUsersView_Search(t *testing.T) {
	t.Parallel()

	v := NewUsersView("h1", newFakeAPI(), discardLogger())
	v.Load(context.Background())

	v.SetSearch("howell")
	page := v.Page()
	assert.Equal(t, []int{2}, userIDs(page.Users))
	assert.Equal(t, 4, page.Total)

	v.SetSearch("nobody")
	page = v.Page()
	assert.Empty(t, page.Users)
	assert.Equal(t, MsgNoUsersMatch, page.Empty)
}

func TestUsersView_SelectAndClose(t *testing.T) {
	t.Parallel()

	v := NewUsersView("h1", newFakeAPI(), discardLogger())
	v.Load(context.Background())

	require.True(t, v.Select("3"))
	selected := v.Page().Selected
	require.NotNil(t, selected)
	assert.Equal(t, "Clementine Bauch", selected.Name)

	assert.False(t, v.Select("99"))
	assert.False(t, v.Select("abc"))
	assert.Equal(t, 3, v.Page().Selected.ID, "unknown ids keep the selection")

	v.CloseDetail()
	assert.Nil(t, v.Page().Selected)
}

func TestUsersView_SelectionSurvivesSearch(t *testing.T) {
	t.Parallel()

	v := NewUsersView("h1", newFakeAPI(), discardLogger())
	v.Load(context.Background())
	require.True(t, v.Select("1"))

	v.SetSearch("howell")
	page := v.Page()
	require.NotNil(t, page.Selected)
	assert.Equal(t, 1, page.Selected.ID)
}
