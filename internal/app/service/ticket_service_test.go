package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

func ticketRig() (*TicketService, *fakeDiscord, *memTickets) {
	d := newFakeDiscord()
	d.ownerID = "owner"
	store := &memTickets{m: map[string]domain.OpenTicket{}}
	dir := dirWith(domain.GuildSettings{
		GuildID: "g1", SupportCategoryID: "cat", TicketLogChannelID: "log",
		KeeperRoleID: "keeper", GuardianRoleID: "guardian", OracleRoleID: "oracle",
	})
	s := NewTicketService(dir, store, d, quietLog())
	s.now = func() time.Time { return time.Unix(0, 1700000000123456789) }
	return s, d, store
}

func TestTicketChannelName(t *testing.T) {
	at := time.Unix(0, 1700000000123456789)
	if got := TicketChannelName("User-Report", "Some User.x", at); got != "User-Report-some-user-x-456789" {
		t.Fatalf("name = %q", got)
	}
	if got := TicketChannelName("Other", "!!", at); got != "Other-user-456789" {
		t.Fatalf("fallback name = %q", got)
	}
}

func TestTicketKinds(t *testing.T) {
	if len(domain.TicketKinds) != 6 {
		t.Fatalf("kinds = %d", len(domain.TicketKinds))
	}
	k, ok := domain.TicketKindByCode("03")
	if !ok || k.Prefix != "Bot-Issue" || k.Audience != domain.AudienceOracle {
		t.Fatalf("03 = %+v", k)
	}
	if _, ok := domain.TicketKindByCode("99"); ok {
		t.Fatal("unknown code resolved")
	}
}

func TestOpenTicket(t *testing.T) {
	s, d, store := ticketRig()
	ctx := context.Background()

	msg, err := s.Open(ctx, "g1", "u1", "alice", "03")
	if err != nil || !strings.Contains(msg, "ticket was created") {
		t.Fatalf("open: %q %v", msg, err)
	}
	if len(d.created) != 1 {
		t.Fatalf("channels created = %d", len(d.created))
	}
	data := d.created[0]
	if data.ParentID != "cat" || !strings.HasPrefix(data.Name, "Bot-Issue-alice-") {
		t.Fatalf("channel data: %+v", data)
	}
	var staffSeen bool
	for _, ow := range data.PermissionOverwrites {
		if ow.ID == "guardian" {
			t.Fatal("bot issue visible to guardians")
		}
		if ow.ID == "oracle" {
			staffSeen = true
		}
	}
	if !staffSeen {
		t.Fatal("oracle missing from overwrites")
	}
	if len(store.m) != 1 {
		t.Fatal("ticket not persisted")
	}
	if len(d.sentTo("dm-u1")) != 1 || len(d.sentTo("dm-owner")) != 1 {
		t.Fatal("dms not sent")
	}

	msg, _ = s.Open(ctx, "g1", "u1", "alice", "01")
	if !strings.Contains(msg, "already have an open ticket") {
		t.Fatalf("second open: %q", msg)
	}
}

func TestCustomRoleTicketAddsOwner(t *testing.T) {
	s, d, _ := ticketRig()
	if _, err := s.Open(context.Background(), "g1", "u1", "alice", "06"); err != nil {
		t.Fatal(err)
	}
	var owner, keeper bool
	for _, ow := range d.created[0].PermissionOverwrites {
		owner = owner || ow.ID == "owner"
		keeper = keeper || ow.ID == "keeper"
	}
	if !owner || !keeper {
		t.Fatalf("owner=%v keeper=%v", owner, keeper)
	}
}

func TestCloseTicketPostsTranscript(t *testing.T) {
	s, d, store := ticketRig()
	ctx := context.Background()
	if _, err := s.Open(ctx, "g1", "u1", "alice", "05"); err != nil {
		t.Fatal(err)
	}
	var ch string
	for id := range store.m {
		ch = id
	}
	d.history = []*discordgo.Message{
		{ID: "2", Content: "second", Author: &discordgo.User{Username: "bob"}, Timestamp: time.Unix(20, 0)},
		{ID: "1", Content: "first", Author: &discordgo.User{Username: "alice"}, Timestamp: time.Unix(10, 0)},
	}

	msg, err := s.Close(ctx, "g1", ch, false)
	if err != nil || !strings.Contains(msg, "closed") {
		t.Fatalf("close: %q %v", msg, err)
	}
	logs := d.sentTo("log")
	if len(logs) != 1 || len(logs[0].files) != 1 || !strings.HasSuffix(logs[0].files[0], ".txt") {
		t.Fatalf("log post: %+v", logs)
	}
	if _, ok := d.channels[ch]; ok {
		t.Fatal("channel not deleted")
	}
	if len(store.m) != 0 {
		t.Fatal("row not deleted")
	}
}

func TestCloseNonTicket(t *testing.T) {
	s, d, _ := ticketRig()
	d.channels["random"] = &discordgo.Channel{ID: "random", Name: "random"}
	msg, err := s.Close(context.Background(), "g1", "random", false)
	if err != nil || !strings.Contains(msg, "isn't an open ticket") {
		t.Fatalf("got %q %v", msg, err)
	}
	if _, ok := d.channels["random"]; !ok {
		t.Fatal("non-ticket channel deleted")
	}

	// force sigue sin fila
	if _, err := s.Close(context.Background(), "g1", "random", true); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.channels["random"]; ok {
		t.Fatal("force close kept channel")
	}
}

func TestHistoryPagesUpToLimit(t *testing.T) {
	s, d, _ := ticketRig()
	for i := range 650 {
		d.history = append(d.history, &discordgo.Message{ID: string(rune(0x1000 + i))})
	}
	msgs, err := s.history(context.Background(), "c")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != transcriptLimit {
		t.Fatalf("messages = %d", len(msgs))
	}
}
