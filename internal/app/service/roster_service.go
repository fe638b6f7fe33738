package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/roster"
)

type RosterLimits struct {
	TeamMaxMembers int
	RunMaxMembers  int
	UnlockSettle   time.Duration
	FullCooldown   time.Duration
}

// RosterService coordina el Store en memoria con los mensajes de estado.
// Cada secuencia mutar -> red -> guardar message id corre bajo el lock del líder.
type RosterService struct {
	store *roster.Store
	msg   Messenger
	lim   RosterLimits
	log   *slog.Logger
	locks keyedMutex

	cdMu     sync.Mutex
	notified map[string]time.Time
	now      func() time.Time
}

func NewRosterService(store *roster.Store, msg Messenger, lim RosterLimits, log *slog.Logger) *RosterService {
	if lim.TeamMaxMembers <= 0 {
		lim.TeamMaxMembers = roster.DefaultMaxMembers
	}
	if lim.RunMaxMembers <= 0 {
		lim.RunMaxMembers = roster.DefaultMaxMembers
	}
	return &RosterService{
		store:    store,
		msg:      msg,
		lim:      lim,
		log:      log.With("component", "roster"),
		notified: make(map[string]time.Time),
		now:      time.Now,
	}
}

var userMentions = &discordgo.MessageAllowedMentions{
	Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
}

func mentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "<@" + id + ">"
	}
	return strings.Join(out, " ")
}

func kindName(k roster.Kind) string {
	if k == roster.KindRun {
		return "run"
	}
	return "team"
}

func lockCmd(k roster.Kind) string {
	if k == roster.KindRun {
		return "/lockrun"
	}
	return "/lockteam"
}

// rosterMsg traduce los errores del store a mensajes para el usuario.
func rosterMsg(err error, leader string, k roster.Kind) (string, bool) {
	switch {
	case errors.Is(err, roster.ErrExists):
		return fmt.Sprintf("⚠️ <@%s> already leads a roster. Close it first.", leader), true
	case errors.Is(err, roster.ErrNoRecord):
		return fmt.Sprintf("⚠️ <@%s> doesn't lead any %s.", leader, kindName(k)), true
	case errors.Is(err, roster.ErrGuildFull):
		return "⚠️ This server already has the maximum number of active rosters.", true
	case errors.Is(err, roster.ErrNotLocked):
		return fmt.Sprintf("🔓 That %s isn't locked. Lock it first with `%s`.", kindName(k), lockCmd(k)), true
	case errors.Is(err, roster.ErrAlreadyLocked):
		return fmt.Sprintf("ℹ️ That %s is already locked.", kindName(k)), true
	case errors.Is(err, roster.ErrLocked):
		return fmt.Sprintf("🔒 That %s is locked; unlock it before changing members.", kindName(k)), true
	case errors.Is(err, roster.ErrResetting):
		return fmt.Sprintf("⏳ That %s is being reset, try again in a moment.", kindName(k)), true
	case errors.Is(err, roster.ErrLeaderMember):
		return "⚠️ The new leader must be someone else.", true
	}
	return "", false
}

// wrongKind evita que un comando de runs toque un equipo y al revés.
// Se llama con el lock del líder tomado.
func (s *RosterService) wrongKind(guildID, leader string, k roster.Kind) (string, bool) {
	rec, err := s.store.Get(guildID, leader)
	if err != nil || rec.Kind == k {
		return "", false
	}
	return fmt.Sprintf("⚠️ <@%s> leads a %s, not a %s.", leader, kindName(rec.Kind), kindName(k)), true
}

func (s *RosterService) CreateTeam(ctx context.Context, guildID, channelID, leader, emoji string, members []string) (string, error) {
	if !roster.ValidEmoji(emoji) {
		return "⚠️ That doesn't look like an emoji.", nil
	}
	return s.create(ctx, guildID, roster.Spec{
		Kind: roster.KindTeam, LeaderID: leader, Members: members, ChannelID: channelID,
		Emoji: strings.TrimSpace(emoji), MaxMembers: s.lim.TeamMaxMembers,
	})
}

func (s *RosterService) CreateRun(ctx context.Context, guildID, channelID, guide string, members []string) (string, error) {
	return s.create(ctx, guildID, roster.Spec{
		Kind: roster.KindRun, LeaderID: guide, Members: members, ChannelID: channelID,
		MaxMembers: s.lim.RunMaxMembers,
	})
}

func (s *RosterService) create(ctx context.Context, guildID string, sp roster.Spec) (string, error) {
	defer s.locks.Lock(leaderKey(guildID, sp.LeaderID))()

	rec, skipped, err := s.store.Create(guildID, sp)
	if msg, ok := rosterMsg(err, sp.LeaderID, sp.Kind); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	if err := s.post(ctx, rec); err != nil {
		// sin mensaje no hay roster: se deshace
		s.store.ForceClose(guildID, rec.LeaderID)
		return "", fmt.Errorf("post status message: %w", err)
	}
	s.log.Info("roster created", "guild", guildID, "leader", rec.LeaderID, "kind", rec.Kind, "members", len(rec.Members))

	label := "Team"
	if rec.Kind == roster.KindRun {
		label = "Run"
	}
	out := fmt.Sprintf("✅ %s created for <@%s>.", label, rec.LeaderID)
	if len(skipped) > 0 {
		out += "\nSkipped: " + mentions(skipped)
	}
	return out, nil
}

func (s *RosterService) AddMembers(ctx context.Context, guildID string, kind roster.Kind, leader string, members []string) (string, error) {
	defer s.locks.Lock(leaderKey(guildID, leader))()
	if msg, ok := s.wrongKind(guildID, leader, kind); ok {
		return msg, nil
	}

	added, skipped, rec, err := s.store.AddMembers(guildID, leader, members)
	if msg, ok := rosterMsg(err, leader, kind); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	if len(added) > 0 {
		if err := s.repost(ctx, rec); err != nil {
			return "", err
		}
	}
	return report("Added", added, "Already in or no room", skipped), nil
}

func (s *RosterService) RemoveMembers(ctx context.Context, guildID string, kind roster.Kind, leader string, members []string) (string, error) {
	defer s.locks.Lock(leaderKey(guildID, leader))()
	if msg, ok := s.wrongKind(guildID, leader, kind); ok {
		return msg, nil
	}

	removed, missing, rec, err := s.store.RemoveMembers(guildID, leader, members)
	if msg, ok := rosterMsg(err, leader, kind); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	if len(removed) > 0 {
		if err := s.repost(ctx, rec); err != nil {
			return "", err
		}
	}
	return report("Removed", removed, "Not in the roster", missing), nil
}

func report(okLabel string, ok []string, skipLabel string, skipped []string) string {
	var b strings.Builder
	if len(ok) > 0 {
		fmt.Fprintf(&b, "✅ %s: %s", okLabel, mentions(ok))
	} else {
		b.WriteString("ℹ️ Nothing changed.")
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\n%s: %s", skipLabel, mentions(skipped))
	}
	return b.String()
}

func (s *RosterService) Split(ctx context.Context, guildID string, kind roster.Kind, current, newLeader string, members []string) (string, error) {
	defer s.locks.Lock(leaderKey(guildID, current), leaderKey(guildID, newLeader))()
	if msg, ok := s.wrongKind(guildID, current, kind); ok {
		return msg, nil
	}

	res, err := s.store.Split(guildID, current, newLeader, members)
	if errors.Is(err, roster.ErrExists) {
		return fmt.Sprintf("⚠️ <@%s> already leads a roster.", newLeader), nil
	}
	if msg, ok := rosterMsg(err, current, kind); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	// primero el roster nuevo: si no se puede publicar, el split se deshace
	if err := s.post(ctx, res.To); err != nil {
		if _, uerr := s.store.UndoSplit(guildID, res); uerr != nil {
			s.log.Error("split: undo", "guild", guildID, "leader", current, "err", uerr)
		}
		return "", fmt.Errorf("post split roster: %w", err)
	}
	if err := s.repost(ctx, res.From); err != nil {
		s.log.Warn("split: repost original", "guild", guildID, "leader", current, "err", err)
	}

	out := fmt.Sprintf("✅ Split done. <@%s> now leads %d member(s).", newLeader, len(res.To.Members))
	if len(res.Skipped) > 0 {
		out += "\nSkipped: " + mentions(res.Skipped)
	}
	return out, nil
}

func (s *RosterService) Close(ctx context.Context, guildID string, kind roster.Kind, leader string) (string, error) {
	defer s.locks.Lock(leaderKey(guildID, leader))()
	if msg, ok := s.wrongKind(guildID, leader, kind); ok {
		return msg, nil
	}

	rec, err := s.store.Close(guildID, leader)
	if msg, ok := rosterMsg(err, leader, kind); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	s.deleteMessage(ctx, rec)
	s.forgetCooldown(guildID, leader)
	return fmt.Sprintf("✅ The %s led by <@%s> was closed.", kindName(rec.Kind), leader), nil
}

// ForceClose no toca mensajes: es para estado trabado.
func (s *RosterService) ForceClose(_ context.Context, guildID, leader string) string {
	defer s.locks.Lock(leaderKey(guildID, leader))()

	s.forgetCooldown(guildID, leader)
	if _, ok := s.store.ForceClose(guildID, leader); !ok {
		return "ℹ️ Nothing to close; the state is already clean."
	}
	s.log.Warn("roster force-closed", "guild", guildID, "leader", leader)
	return fmt.Sprintf("✅ Roster of <@%s> force-closed.", leader)
}

func (s *RosterService) Lock(ctx context.Context, guildID string, kind roster.Kind, leader string) (string, error) {
	defer s.locks.Lock(leaderKey(guildID, leader))()
	if msg, ok := s.wrongKind(guildID, leader, kind); ok {
		return msg, nil
	}

	rec, err := s.store.Lock(guildID, leader)
	if msg, ok := rosterMsg(err, leader, kind); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	s.edit(ctx, rec, roster.Render(rec))
	return "🔒 Locked.", nil
}

// Unlock reproduce el orden de reacciones después de una espera fija.
func (s *RosterService) Unlock(ctx context.Context, guildID string, kind roster.Kind, leader string) (string, error) {
	defer s.locks.Lock(leaderKey(guildID, leader))()
	if msg, ok := s.wrongKind(guildID, leader, kind); ok {
		return msg, nil
	}

	rec, err := s.store.BeginUnlock(guildID, leader)
	if msg, ok := rosterMsg(err, leader, kind); ok {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	s.edit(ctx, rec, roster.Placeholder)

	var wait *discordgo.Message
	if rec.ChannelID != "" {
		wait, err = s.msg.ChannelMessageSendComplex(rec.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("Please wait for the %s to unlock...", kindName(rec.Kind)),
		}, discordgo.WithContext(ctx))
		if err != nil {
			s.log.Warn("unlock: wait message", "guild", guildID, "err", err)
		}
	}

	// si el ctx se cancela se deja de esperar, pero el unlock se completa igual
	t := time.NewTimer(s.lim.UnlockSettle)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
	}

	rec, err = s.store.CompleteUnlock(guildID, leader)
	if err != nil {
		return "", err
	}
	s.edit(context.Background(), rec, roster.Render(rec))
	if wait != nil {
		if err := s.msg.ChannelMessageDelete(rec.ChannelID, wait.ID); err != nil && !isNotFound(err) {
			s.log.Warn("unlock: delete wait message", "guild", guildID, "err", err)
		}
	}
	if rec.Locked {
		return fmt.Sprintf("🔓 Unlocked and replayed; the roster refilled to %d and stays locked.", rec.Headcount()-1), nil
	}
	return fmt.Sprintf("🔓 Unlocked. %d member(s) restored from reaction order.", len(rec.Members)), nil
}

// List resume los rosters vivos del guild.
func (s *RosterService) List(guildID string) string {
	recs := s.store.List(guildID)
	if len(recs) == 0 {
		return "ℹ️ No active teams or runs."
	}
	var b strings.Builder
	b.WriteString("**Active rosters**\n")
	for _, r := range recs {
		state := ""
		if r.Locked {
			state = " 🔒"
		}
		fmt.Fprintf(&b, "• %s of <@%s>: %d/%d%s\n", kindName(r.Kind), r.LeaderID, r.Headcount(), r.MaxMembers, state)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ---------- reacciones ----------

func (s *RosterService) OnReactionAdd(ctx context.Context, guildID, messageID, userID, emoji string, at time.Time) roster.Outcome {
	rec, ok := s.store.ByMessage(guildID, messageID)
	if !ok || rec.Locked || rec.Resetting {
		return roster.OutcomeIgnored
	}
	defer s.locks.Lock(leaderKey(guildID, rec.LeaderID))()

	out, rec := s.store.ReactionAdded(guildID, messageID, userID, emoji, at)
	switch out {
	case roster.OutcomeJoined:
		s.edit(ctx, rec, roster.Render(rec))
	case roster.OutcomeJoinedAndLocked:
		s.edit(ctx, rec, roster.Render(rec))
		s.say(ctx, rec.ChannelID, fmt.Sprintf("🔒 The team led by <@%s> is full and now locked!", rec.LeaderID))
	case roster.OutcomeFull:
		if s.shouldNotifyFull(guildID, rec.LeaderID) {
			s.say(ctx, rec.ChannelID, fmt.Sprintf("<@%s> that team is full, please join another one.", userID))
		}
	}
	s.log.Debug("reaction add", "guild", guildID, "leader", rec.LeaderID, "user", userID, "outcome", out.String())
	return out
}

func (s *RosterService) OnReactionRemove(ctx context.Context, guildID, messageID, userID, emoji string) roster.Outcome {
	rec, ok := s.store.ByMessage(guildID, messageID)
	if !ok || rec.Locked || rec.Resetting {
		return roster.OutcomeIgnored
	}
	defer s.locks.Lock(leaderKey(guildID, rec.LeaderID))()

	out, rec := s.store.ReactionRemoved(guildID, messageID, userID, emoji)
	if out.Rerender() {
		s.edit(ctx, rec, roster.Render(rec))
	}
	s.log.Debug("reaction remove", "guild", guildID, "leader", rec.LeaderID, "user", userID, "outcome", out.String())
	return out
}

func (s *RosterService) shouldNotifyFull(guildID, leader string) bool {
	key := leaderKey(guildID, leader)
	now := s.now()
	s.cdMu.Lock()
	defer s.cdMu.Unlock()
	if last, ok := s.notified[key]; ok && now.Sub(last) < s.lim.FullCooldown {
		return false
	}
	s.notified[key] = now
	return true
}

func (s *RosterService) forgetCooldown(guildID, leader string) {
	s.cdMu.Lock()
	delete(s.notified, leaderKey(guildID, leader))
	s.cdMu.Unlock()
}

// ---------- mensajes ----------

// post publica el mensaje de estado y lo asocia al roster.
func (s *RosterService) post(ctx context.Context, rec roster.Record) error {
	m, err := s.msg.ChannelMessageSendComplex(rec.ChannelID, &discordgo.MessageSend{
		Content:         roster.Render(rec),
		AllowedMentions: userMentions,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	if err := s.store.SetMessage(rec.GuildID, rec.LeaderID, m.ID); err != nil {
		return err
	}
	if rec.Emoji != "" {
		if err := s.msg.MessageReactionAdd(rec.ChannelID, m.ID, roster.EmojiAPIName(rec.Emoji)); err != nil {
			s.log.Warn("add own reaction", "guild", rec.GuildID, "leader", rec.LeaderID, "err", err)
		}
	}
	return nil
}

// repost borra el mensaje viejo (best-effort) y publica uno nuevo.
func (s *RosterService) repost(ctx context.Context, rec roster.Record) error {
	s.deleteMessage(ctx, rec)
	if err := s.post(ctx, rec); err != nil {
		return fmt.Errorf("repost status message: %w", err)
	}
	return nil
}

func (s *RosterService) deleteMessage(ctx context.Context, rec roster.Record) {
	if rec.MessageID == "" {
		return
	}
	err := s.msg.ChannelMessageDelete(rec.ChannelID, rec.MessageID, discordgo.WithContext(ctx))
	switch {
	case err == nil:
	case isNotFound(err):
		s.log.Info("status message already gone", "guild", rec.GuildID, "leader", rec.LeaderID)
	default:
		s.log.Warn("delete status message", "guild", rec.GuildID, "leader", rec.LeaderID, "err", err)
	}
}

func (s *RosterService) edit(ctx context.Context, rec roster.Record, content string) {
	if rec.MessageID == "" {
		return
	}
	if _, err := s.msg.ChannelMessageEdit(rec.ChannelID, rec.MessageID, content, discordgo.WithContext(ctx)); err != nil {
		s.log.Warn("edit status message", "guild", rec.GuildID, "leader", rec.LeaderID, "err", err)
	}
}

func (s *RosterService) say(ctx context.Context, channelID, content string) {
	if channelID == "" {
		return
	}
	_, err := s.msg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: userMentions,
	}, discordgo.WithContext(ctx))
	if err != nil {
		s.log.Warn("send notice", "channel", channelID, "err", err)
	}
}
