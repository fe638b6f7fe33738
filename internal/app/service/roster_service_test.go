package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jose-valero/dreamy-assistant-bot/internal/roster"
)

func newRosterRig(t *testing.T, teamMax int) (*RosterService, *roster.Store, *fakeDiscord) {
	t.Helper()
	st := roster.NewStore(roster.DefaultMaxPerGuild)
	d := newFakeDiscord()
	svc := NewRosterService(st, d, RosterLimits{TeamMaxMembers: teamMax, RunMaxMembers: 4, FullCooldown: time.Minute}, quietLog())
	return svc, st, d
}

func TestCreateTeamPostsAndReacts(t *testing.T) {
	svc, st, d := newRosterRig(t, 8)
	ctx := context.Background()

	msg, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", []string{"a", "L", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "Team created") {
		t.Fatalf("reply: %q", msg)
	}
	rec, err := st.Get("g1", "L")
	if err != nil {
		t.Fatal(err)
	}
	if rec.MessageID == "" || len(rec.Members) != 1 {
		t.Fatalf("record: %+v", rec)
	}
	if len(d.reactions) != 1 || !strings.HasPrefix(d.reactions[0], rec.MessageID+"=") {
		t.Fatalf("own reaction: %v", d.reactions)
	}

	msg, err = svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil)
	if err != nil || !strings.Contains(msg, "already leads") {
		t.Fatalf("duplicate create: %q %v", msg, err)
	}
}

func TestCreateTeamRejectsBadEmoji(t *testing.T) {
	svc, st, _ := newRosterRig(t, 8)
	msg, err := svc.CreateTeam(context.Background(), "g1", "c1", "L", "not an emoji", nil)
	if err != nil || !strings.Contains(msg, "emoji") {
		t.Fatalf("got %q %v", msg, err)
	}
	if n, _ := st.Count(); n != 0 {
		t.Fatalf("rosters = %d", n)
	}
}

func TestCreateRollsBackWhenPostFails(t *testing.T) {
	svc, st, d := newRosterRig(t, 8)
	d.sendErr = notFound()
	if _, err := svc.CreateRun(context.Background(), "g1", "c1", "G", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := st.Get("g1", "G"); err == nil {
		t.Fatal("record survived failed post")
	}
}

func TestAddRemoveRepost(t *testing.T) {
	svc, st, d := newRosterRig(t, 3)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	first, _ := st.Get("g1", "L")

	msg, err := svc.AddMembers(ctx, "g1", roster.KindTeam, "L", []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "<@a> <@b>") || !strings.Contains(msg, "<@c>") {
		t.Fatalf("report: %q", msg)
	}
	rec, _ := st.Get("g1", "L")
	if rec.MessageID == first.MessageID {
		t.Fatal("status message not reposted")
	}
	if len(d.deletes) != 1 || d.deletes[0] != first.MessageID {
		t.Fatalf("deletes: %v", d.deletes)
	}

	msg, _ = svc.RemoveMembers(ctx, "g1", roster.KindTeam, "L", []string{"zz"})
	if !strings.Contains(msg, "Nothing changed") {
		t.Fatalf("remove missing: %q", msg)
	}
	if len(d.deletes) != 1 {
		t.Fatal("no-op remove reposted")
	}
}

func TestRepostToleratesGoneMessage(t *testing.T) {
	svc, _, d := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	d.deleteErr = notFound()
	if _, err := svc.AddMembers(ctx, "g1", roster.KindTeam, "L", []string{"a"}); err != nil {
		t.Fatalf("add with deleted message: %v", err)
	}
}

func TestReactionsFillAndLock(t *testing.T) {
	svc, st, d := newRosterRig(t, 3)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	rec, _ := st.Get("g1", "L")
	now := time.Now()

	if out := svc.OnReactionAdd(ctx, "g1", rec.MessageID, "a", "🔥", now); out != roster.OutcomeJoined {
		t.Fatalf("a: %v", out)
	}
	if out := svc.OnReactionAdd(ctx, "g1", rec.MessageID, "b", "🔥", now.Add(time.Second)); out != roster.OutcomeJoinedAndLocked {
		t.Fatalf("b: %v", out)
	}
	if d.countContaining("now locked") != 1 {
		t.Fatal("lock not announced")
	}
	if out := svc.OnReactionAdd(ctx, "g1", rec.MessageID, "c", "🔥", now.Add(2*time.Second)); out != roster.OutcomeIgnored {
		t.Fatalf("c on locked: %v", out)
	}
	if !strings.Contains(d.edits[rec.MessageID], "Team Full") {
		t.Fatalf("render: %q", d.edits[rec.MessageID])
	}
}

func TestFullNoticeCooldown(t *testing.T) {
	svc, st, d := newRosterRig(t, 2)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	rec, _ := st.Get("g1", "L")
	edits := len(d.edits)

	for _, u := range []string{"x", "y"} {
		if out := svc.OnReactionAdd(ctx, "g1", rec.MessageID, u, "🔥", time.Now()); out != roster.OutcomeFull {
			t.Fatalf("%s: %v", u, out)
		}
	}
	if n := d.countContaining("that team is full"); n != 1 {
		t.Fatalf("full notices = %d", n)
	}
	if len(d.edits) != edits {
		t.Fatal("denied reaction re-rendered")
	}
}

func TestUnreactLeaves(t *testing.T) {
	svc, st, d := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	rec, _ := st.Get("g1", "L")
	svc.OnReactionAdd(ctx, "g1", rec.MessageID, "a", "🔥", time.Now())
	if out := svc.OnReactionRemove(ctx, "g1", rec.MessageID, "a", "🔥"); out != roster.OutcomeLeft {
		t.Fatalf("remove: %v", out)
	}
	if strings.Contains(d.edits[rec.MessageID], "<@a>") {
		t.Fatalf("a still rendered: %q", d.edits[rec.MessageID])
	}
}

func TestUnlockReplaysReactionOrder(t *testing.T) {
	svc, st, d := newRosterRig(t, 2)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	rec, _ := st.Get("g1", "L")
	t0 := time.Now()
	// llena el equipo y queda bloqueado solo
	if out := svc.OnReactionAdd(ctx, "g1", rec.MessageID, "u1", "🔥", t0); out != roster.OutcomeJoinedAndLocked {
		t.Fatalf("u1: %v", out)
	}

	msg, err := svc.Unlock(ctx, "g1", roster.KindTeam, "L")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "Unlocked") {
		t.Fatalf("reply: %q", msg)
	}
	rec, _ = st.Get("g1", "L")
	if rec.Resetting || len(rec.Members) != 1 || rec.Members[0] != "u1" {
		t.Fatalf("after unlock: %+v", rec)
	}
	if d.countContaining("Please wait for the team to unlock") != 1 {
		t.Fatal("wait message not posted")
	}
	if len(d.deletes) == 0 {
		t.Fatal("wait message not deleted")
	}
}

func TestUnlockRequiresLock(t *testing.T) {
	svc, _, _ := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	msg, err := svc.Unlock(ctx, "g1", roster.KindTeam, "L")
	if err != nil || !strings.Contains(msg, "isn't locked") {
		t.Fatalf("got %q %v", msg, err)
	}
}

func TestCloseAndForceClose(t *testing.T) {
	svc, st, d := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateRun(ctx, "g1", "c1", "G", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if msg, _ := svc.Close(ctx, "g1", roster.KindRun, "G"); !strings.Contains(msg, "Lock it first with `/lockrun`") {
		t.Fatalf("close unlocked: %q", msg)
	}
	if _, err := svc.Lock(ctx, "g1", roster.KindRun, "G"); err != nil {
		t.Fatal(err)
	}
	rec, _ := st.Get("g1", "G")
	if msg, _ := svc.Close(ctx, "g1", roster.KindRun, "G"); !strings.Contains(msg, "closed") {
		t.Fatalf("close: %q", msg)
	}
	if d.deletes[len(d.deletes)-1] != rec.MessageID {
		t.Fatal("status message not deleted on close")
	}
	if msg := svc.ForceClose(ctx, "g1", "G"); !strings.Contains(msg, "already clean") {
		t.Fatalf("force close empty: %q", msg)
	}
}

func TestSplitPostsNewRoster(t *testing.T) {
	svc, st, _ := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateRun(ctx, "g1", "c1", "L", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	msg, err := svc.Split(ctx, "g1", roster.KindRun, "L", "N", []string{"b", "z"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "<@N> now leads 2") {
		t.Fatalf("reply: %q", msg)
	}
	to, err := st.Get("g1", "N")
	if err != nil || to.MessageID == "" {
		t.Fatalf("new roster: %+v %v", to, err)
	}
	from, _ := st.Get("g1", "L")
	if from.HasMember("b") {
		t.Fatal("b still in original roster")
	}
}

func TestConcurrentReactionsKeepCapacity(t *testing.T) {
	svc, st, _ := newRosterRig(t, 5)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	rec, _ := st.Get("g1", "L")

	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := string(rune('a' + i%26))
			svc.OnReactionAdd(ctx, "g1", rec.MessageID, u+u, "🔥", time.Now())
		}(i)
	}
	wg.Wait()

	rec, _ = st.Get("g1", "L")
	if rec.Headcount() > rec.MaxMembers {
		t.Fatalf("headcount %d > %d", rec.Headcount(), rec.MaxMembers)
	}
	if !rec.Locked {
		t.Fatal("full roster not locked")
	}
}

func TestListRosters(t *testing.T) {
	svc, _, _ := newRosterRig(t, 8)
	if msg := svc.List("g1"); !strings.Contains(msg, "No active") {
		t.Fatalf("empty list: %q", msg)
	}
	if _, err := svc.CreateRun(context.Background(), "g1", "c1", "G", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if msg := svc.List("g1"); !strings.Contains(msg, "run of <@G>: 2/4") {
		t.Fatalf("list: %q", msg)
	}
}

func TestSplitUndoneWhenNewRosterCannotPost(t *testing.T) {
	svc, st, d := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateRun(ctx, "g1", "c1", "L", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	before, _ := st.Get("g1", "L")
	d.failSendWith = "<@N>"

	if _, err := svc.Split(ctx, "g1", roster.KindRun, "L", "N", []string{"b", "z"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := st.Get("g1", "N"); err == nil {
		t.Fatal("split roster survived failed post")
	}
	from, _ := st.Get("g1", "L")
	if !from.HasMember("b") || len(from.Members) != 2 || from.MessageID != before.MessageID {
		t.Fatalf("original not restored: %+v", from)
	}

	// N puede crear su propio run después
	d.failSendWith = ""
	if msg, err := svc.CreateRun(ctx, "g1", "c1", "N", nil); err != nil || !strings.Contains(msg, "Run created") {
		t.Fatalf("create after failed split: %q %v", msg, err)
	}
}

func TestRosterCommandsCheckKind(t *testing.T) {
	svc, st, _ := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateTeam(ctx, "g1", "c1", "L", "🔥", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateRun(ctx, "g1", "c1", "G", nil); err != nil {
		t.Fatal(err)
	}

	if msg, _ := svc.Lock(ctx, "g1", roster.KindTeam, "G"); !strings.Contains(msg, "leads a run, not a team") {
		t.Fatalf("lockteam on a run: %q", msg)
	}
	if rec, _ := st.Get("g1", "G"); rec.Locked {
		t.Fatal("run locked by team command")
	}
	if msg, _ := svc.Close(ctx, "g1", roster.KindRun, "L"); !strings.Contains(msg, "leads a team, not a run") {
		t.Fatalf("closerun on a team: %q", msg)
	}
	if msg, _ := svc.AddMembers(ctx, "g1", roster.KindRun, "L", []string{"a"}); !strings.Contains(msg, "not a run") {
		t.Fatalf("addrunners on a team: %q", msg)
	}
	if msg, _ := svc.Split(ctx, "g1", roster.KindRun, "L", "N", nil); !strings.Contains(msg, "not a run") {
		t.Fatalf("splitrun on a team: %q", msg)
	}
	if _, err := st.Get("g1", "L"); err != nil {
		t.Fatal("team touched by run commands")
	}
	if msg, _ := svc.Unlock(ctx, "g1", roster.KindTeam, "G"); !strings.Contains(msg, "not a team") {
		t.Fatalf("unlockteam on a run: %q", msg)
	}
}

func TestUnlockRunKeepsRunners(t *testing.T) {
	svc, st, d := newRosterRig(t, 8)
	ctx := context.Background()
	if _, err := svc.CreateRun(ctx, "g1", "c1", "G", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddMembers(ctx, "g1", roster.KindRun, "G", []string{"c"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Lock(ctx, "g1", roster.KindRun, "G"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Unlock(ctx, "g1", roster.KindRun, "G"); err != nil {
		t.Fatal(err)
	}
	rec, _ := st.Get("g1", "G")
	if len(rec.Members) != 3 || rec.Locked {
		t.Fatalf("after unlock: %+v", rec)
	}
	if d.countContaining("Please wait for the run to unlock") != 1 {
		t.Fatal("wait message not posted")
	}
}
