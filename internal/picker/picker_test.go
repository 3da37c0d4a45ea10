package picker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treykane/auth-helper/internal/model"
)

func candidates() []model.MatchResult {
	return []model.MatchResult{
		{Record: model.HostRecord{ProjectName: "web", ServerID: "7", ServerName: "web7"}},
		{Record: model.HostRecord{ProjectName: "web", ServerID: "8", ServerName: "web8"}},
		{Record: model.HostRecord{ProjectName: "db", ServerID: "21", ServerName: "db1"}},
	}
}

func line(r model.MatchResult) string {
	return r.Record.ServerID + " " + r.Record.ServerName
}

func keys(m Model, ks ...tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range ks {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPickerSelectsWithJK(t *testing.T) {
	m, cmd := keys(New(candidates(), line), runes("j"), runes("j"), runes("j"), runes("k"), tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	got, ok := m.Choice()
	require.True(t, ok)
	assert.Equal(t, "8", got.Record.ServerID)
}

func TestPickerQuit(t *testing.T) {
	m, cmd := keys(New(candidates(), line), runes("q"))
	require.NotNil(t, cmd)
	_, ok := m.Choice()
	assert.False(t, ok)
}

func TestPickerFilter(t *testing.T) {
	m, _ := keys(New(candidates(), line), runes("/"))
	assert.True(t, m.filterMode)

	m, _ = keys(m, runes("d"), runes("b"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.filterMode)
	assert.Equal(t, []int{2}, m.filtered)
	assert.Contains(t, m.View(), "21 db1")
	assert.NotContains(t, m.View(), "web7")

	m, _ = keys(m, tea.KeyMsg{Type: tea.KeyEnter})
	got, ok := m.Choice()
	require.True(t, ok)
	assert.Equal(t, "db1", got.Record.ServerName)
}

func TestPickerEnterWithNoMatches(t *testing.T) {
	m, _ := keys(New(candidates(), line), runes("/"), runes("zzz"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.filtered)
	assert.Contains(t, m.View(), "no hosts match filter")

	m, cmd := keys(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	_, ok := m.Choice()
	assert.False(t, ok)
}

func TestPickerIgnoresNonKeyMessages(t *testing.T) {
	m := New(candidates(), line)
	next, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, next.(Model).sel)
}
