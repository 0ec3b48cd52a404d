package fill_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/fixturesync/internal/dom/domtest"
	"github.com/vmunix/fixturesync/internal/fill"
	"github.com/vmunix/fixturesync/internal/locate"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

const form = `
	<input id="title" name="title">
	<div id="notes" contenteditable="true" role="textbox">old</div>
	<input id="opp" name="opponentName">
	<input id="ghost" name="ghost" hidden>
	<select id="vis"><option value="public">Everyone</option><option value="private">Only participants</option></select>
	<input type="checkbox" id="admins" name="autoInviteAdminAndStaff" checked>
	<input type="checkbox" id="players" name="autoInviteUsers">
	<fieldset class="side">
		<div class="opt"><input type="radio" name="side" id="home" checked><label>Home</label></div>
		<div class="opt"><input type="radio" name="side" id="away"><label>Away</label></div>
	</fieldset>`

func noWait() fill.Timing { return fill.Timing{Tries: 3} }

func kinds(recs []domtest.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Kind + ":" + r.Detail
	}
	return out
}

func TestText_CommitsThroughNativeSetter(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)

	ok := f.Text(context.Background(), page.Query("#title"), "Match vs Rovers")
	require.True(t, ok)
	assert.Equal(t, "Match vs Rovers", page.ValueOf("#title"))
	assert.True(t, page.Marked("#title"))

	var got []string
	for _, r := range page.Records() {
		if r.Target == "#title" && r.Kind != "mark" {
			got = append(got, r.Kind+":"+r.Detail)
		}
	}
	assert.Equal(t, []string{
		"focus:", "value:", "input:", "value:Match vs Rovers", "input:", "change:", "blur:",
	}, got)
}

func TestText_RetriesWhenValueIsClobbered(t *testing.T) {
	page := domtest.MustParse(t, form)
	page.OnEvent("#title", "change", func(_ *domtest.Page, el *domtest.Element) {
		_ = el.SetNativeValue("reset by app")
	})
	f := fill.New(fixture.ModeFull, noWait(), nil)

	ok := f.Text(context.Background(), page.Query("#title"), "Title")
	assert.False(t, ok)
	changes := 0
	for _, r := range page.RecordsOf("change") {
		if r.Target == "#title" {
			changes++
		}
	}
	assert.Equal(t, 3, changes)
}

func TestRichText(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)

	require.True(t, f.RichText(context.Background(), page.Query("#notes"), "Bring boots"))
	assert.Equal(t, "Bring boots", page.Query("#notes").Text())
	assert.Contains(t, kinds(page.RecordsOf("insertText", "input", "change")), "insertText:Bring boots")
}

func TestTyped_EchoesEachCharacter(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)

	require.True(t, f.Typed(context.Background(), page.Query("#opp"), "Ab"))
	assert.Equal(t, "Ab", page.ValueOf("#opp"))

	var got []string
	for _, r := range page.Records() {
		if r.Target == "[name=opponentName]" || r.Target == "#opp" {
			if r.Kind != "mark" {
				got = append(got, r.Kind+":"+r.Detail)
			}
		}
	}
	assert.Equal(t, []string{
		"focus:", "input:", "value:", "input:",
		"keydown:A", "value:A", "input:A", "keyup:A",
		"keydown:b", "value:Ab", "input:b", "keyup:b",
		"keydown:Enter", "change:", "blur:",
	}, got)
}

func TestTyped_SkipsControlsWithoutBox(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)

	assert.False(t, f.Typed(context.Background(), page.Query("#ghost"), "x"))
	assert.Empty(t, page.RecordsOf("input", "value"))
}

func TestSelect_ResolvesSynonyms(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)

	assert.Equal(t, "public", page.ValueOf("#vis"))
	require.True(t, f.Select(context.Background(), page.Query("#vis"), "invite only"))
	assert.Equal(t, "private", page.ValueOf("#vis"))
	assert.Equal(t, []string{"value:private", "input:", "change:"}, kinds(page.RecordsOf("value", "input", "change")))

	assert.False(t, f.Select(context.Background(), page.Query("#vis"), "qqqq"))
}

func TestRadio_ChecksChosenSide(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)

	opt, ok := locate.PickSide(locate.HomeAwayOptions(page), fixture.SideAway)
	require.True(t, ok)
	require.True(t, f.Radio(context.Background(), opt))

	assert.True(t, page.CheckedOf("#away"))
	assert.False(t, page.CheckedOf("#home"))
	assert.NotEqual(t, -1, page.IndexOf("#away", "click"))
	assert.NotEqual(t, -1, page.IndexOf("#away", "change"))
}

func TestCheckbox_ClicksOnlyWhenStateDiffers(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)
	ctx := context.Background()

	require.True(t, f.Checkbox(ctx, page.Query("#admins"), nil, true))
	assert.Equal(t, -1, page.IndexOf("#admins", "click"))

	require.True(t, f.Checkbox(ctx, page.Query("#players"), nil, true))
	assert.True(t, page.CheckedOf("#players"))
	assert.NotEqual(t, -1, page.IndexOf("#players", "change"))

	assert.False(t, f.Checkbox(ctx, nil, nil, true))
}

func TestFill_DispatchesByControlKind(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeFull, noWait(), nil)
	ctx := context.Background()

	assert.True(t, f.Fill(ctx, page.Query("#vis"), "private"))
	assert.Equal(t, "private", page.ValueOf("#vis"))

	assert.True(t, f.Fill(ctx, page.Query("#notes"), "rich"))
	assert.Equal(t, "rich", page.Query("#notes").Text())

	assert.True(t, f.Fill(ctx, page.Query("#admins"), "false"))
	assert.False(t, page.CheckedOf("#admins"))

	assert.False(t, f.Fill(ctx, nil, "x"))
}

func TestHighlightMode_MarksWithoutMutating(t *testing.T) {
	page := domtest.MustParse(t, form)
	f := fill.New(fixture.ModeHighlight, noWait(), nil)
	ctx := context.Background()

	assert.True(t, f.Text(ctx, page.Query("#title"), "x"))
	assert.True(t, f.RichText(ctx, page.Query("#notes"), "x"))
	assert.True(t, f.Typed(ctx, page.Query("#opp"), "x"))
	assert.True(t, f.Select(ctx, page.Query("#vis"), "private"))
	assert.True(t, f.Checkbox(ctx, page.Query("#players"), nil, true))
	opt, _ := locate.PickSide(locate.HomeAwayOptions(page), fixture.SideAway)
	assert.True(t, f.Radio(ctx, opt))

	assert.Empty(t, page.RecordsOf("input", "change", "value", "checked", "click", "insertText", "keydown"))
	for _, sel := range []string{"#title", "#notes", "#opp", "#vis", "#players"} {
		assert.True(t, page.Marked(sel), sel)
	}
	assert.Equal(t, "", page.ValueOf("#title"))
	assert.Equal(t, "public", page.ValueOf("#vis"))
	assert.True(t, page.CheckedOf("#home"))
	assert.False(t, page.CheckedOf("#players"))
}
