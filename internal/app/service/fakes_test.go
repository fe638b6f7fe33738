package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
)

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func notFound() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
}

type sent struct {
	channel string
	content string
	files   []string
	custom  []string
}

type overwrite struct {
	channel, target string
	kind            discordgo.PermissionOverwriteType
	allow, deny     int64
}

// fakeDiscord cumple todos los puertos de sesión.
type fakeDiscord struct {
	mu        sync.Mutex
	seq       int
	sends     []sent
	edits     map[string]string // message -> content
	deletes   []string
	reactions []string
	overwrite []overwrite
	channels  map[string]*discordgo.Channel
	created   []discordgo.GuildChannelCreateData
	history   []*discordgo.Message
	roles     []*discordgo.Role
	roleCalls int
	ownerID   string

	sendErr      error
	failSendWith string // falla los envíos cuyo contenido lo contenga
	deleteErr    error
}

func newFakeDiscord() *fakeDiscord {
	return &fakeDiscord{edits: map[string]string{}, channels: map[string]*discordgo.Channel{}}
}

func (f *fakeDiscord) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeDiscord) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.failSendWith != "" && strings.Contains(data.Content, f.failSendWith) {
		return nil, errors.New("send failed")
	}
	s := sent{channel: channelID, content: data.Content}
	for _, file := range data.Files {
		s.files = append(s.files, file.Name)
	}
	for _, row := range data.Components {
		if r, ok := row.(discordgo.ActionsRow); ok {
			for _, c := range r.Components {
				if b, ok := c.(discordgo.Button); ok {
					s.custom = append(s.custom, b.CustomID)
				}
			}
		}
	}
	f.sends = append(f.sends, s)
	return &discordgo.Message{ID: f.nextID("m"), ChannelID: channelID, Content: data.Content}, nil
}

func (f *fakeDiscord) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content})
}

func (f *fakeDiscord) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[messageID] = content
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (f *fakeDiscord) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, messageID)
	return f.deleteErr
}

func (f *fakeDiscord) MessageReactionAdd(_, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, messageID+"="+emojiID)
	return nil
}

func (f *fakeDiscord) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleCalls++
	return f.roles, nil
}

func (f *fakeDiscord) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, OwnerID: f.ownerID}, nil
}

func (f *fakeDiscord) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.channels[channelID]; ok {
		return ch, nil
	}
	return nil, notFound()
}

func (f *fakeDiscord) ChannelPermissionSet(channelID, targetID string, kind discordgo.PermissionOverwriteType, allow, deny int64, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overwrite = append(f.overwrite, overwrite{channelID, targetID, kind, allow, deny})
	return nil
}

func (f *fakeDiscord) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, data)
	ch := &discordgo.Channel{ID: f.nextID("c"), GuildID: guildID, Name: data.Name, Type: data.Type}
	f.channels[ch.ID] = ch
	return ch, nil
}

func (f *fakeDiscord) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, notFound()
	}
	delete(f.channels, channelID)
	return ch, nil
}

// ChannelMessages pagina f.history (nuevo -> viejo) por beforeID.
func (f *fakeDiscord) ChannelMessages(_ string, limit int, beforeID, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if beforeID != "" {
		for i, m := range f.history {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.history))
	return f.history[start:end], nil
}

func (f *fakeDiscord) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeDiscord) sentTo(channel string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sends {
		if s.channel == channel {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeDiscord) countContaining(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sends {
		if strings.Contains(s.content, substr) {
			n++
		}
	}
	return n
}

// ---------- stores ----------

type memGuilds struct {
	mu sync.Mutex
	m  map[string]domain.GuildSettings
}

func (s *memGuilds) Get(_ context.Context, id string) (domain.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.m[id]
	if !ok {
		return domain.GuildSettings{}, storage.ErrNotFound
	}
	return g, nil
}

func (s *memGuilds) List(context.Context) ([]domain.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.GuildSettings, 0, len(s.m))
	for _, g := range s.m {
		out = append(out, g)
	}
	return out, nil
}

func (s *memGuilds) Update(_ context.Context, id string, p domain.GuildSettingsPatch) (domain.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]domain.GuildSettings{}
	}
	g := p.Apply(s.m[id])
	g.GuildID = id
	s.m[id] = g
	return g, nil
}

type memRules struct {
	gates    map[string]domain.RuleGate
	accepted map[string]bool
}

func newMemRules() *memRules {
	return &memRules{gates: map[string]domain.RuleGate{}, accepted: map[string]bool{}}
}

func (r *memRules) CreateGate(_ context.Context, g domain.RuleGate) (bool, error) {
	if _, ok := r.gates[g.ChannelID]; ok {
		return false, nil
	}
	r.gates[g.ChannelID] = g
	return true, nil
}

func (r *memRules) Gate(_ context.Context, ch string) (domain.RuleGate, error) {
	g, ok := r.gates[ch]
	if !ok {
		return domain.RuleGate{}, storage.ErrNotFound
	}
	return g, nil
}

func (r *memRules) DeleteGate(_ context.Context, ch string) (bool, error) {
	_, ok := r.gates[ch]
	delete(r.gates, ch)
	for k := range r.accepted {
		if strings.HasPrefix(k, ch+"/") {
			delete(r.accepted, k)
		}
	}
	return ok, nil
}

func (r *memRules) HasAccepted(_ context.Context, ch, user string) (bool, error) {
	return r.accepted[ch+"/"+user], nil
}

func (r *memRules) Accept(_ context.Context, ch, user string) error {
	r.accepted[ch+"/"+user] = true
	return nil
}

type memTickets struct{ m map[string]domain.OpenTicket }

func (t *memTickets) Create(_ context.Context, tk domain.OpenTicket) error {
	t.m[tk.ChannelID] = tk
	return nil
}

func (t *memTickets) ByChannel(_ context.Context, ch string) (domain.OpenTicket, error) {
	tk, ok := t.m[ch]
	if !ok {
		return domain.OpenTicket{}, storage.ErrNotFound
	}
	return tk, nil
}

func (t *memTickets) ByUser(_ context.Context, guild, user string) ([]domain.OpenTicket, error) {
	var out []domain.OpenTicket
	for _, tk := range t.m {
		if tk.GuildID == guild && tk.UserID == user {
			out = append(out, tk)
		}
	}
	return out, nil
}

func (t *memTickets) Delete(_ context.Context, ch string) (bool, error) {
	_, ok := t.m[ch]
	delete(t.m, ch)
	return ok, nil
}

func dirWith(gs ...domain.GuildSettings) *Directory {
	d := NewDirectory()
	for _, g := range gs {
		d.Put(g)
	}
	return d
}
