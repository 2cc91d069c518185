package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGroup_CreatorIsMemberAndAdmin(t *testing.T) {
	g := NewGroup("team", "", "creator")

	require.True(t, g.IsMember("creator"))
	require.True(t, g.IsAdmin("creator"))
	require.Equal(t, "creator", g.CreatedBy)
}

func TestGroup_AddMember_Idempotent(t *testing.T) {
	g := NewGroup("team", "", "creator")

	require.True(t, g.AddMember("b"))
	require.False(t, g.AddMember("b"))
	require.Len(t, g.Members, 2)
	require.False(t, g.IsAdmin("b"))
}

func TestGroup_RemoveMember_DropsAdminToo(t *testing.T) {
	g := NewGroup("team", "", "creator")
	g.AddMember("b")
	g.Admins = append(g.Admins, "b")

	require.True(t, g.RemoveMember("b"))
	require.False(t, g.IsMember("b"))
	require.False(t, g.IsAdmin("b"))

	require.False(t, g.RemoveMember("b"))
}
