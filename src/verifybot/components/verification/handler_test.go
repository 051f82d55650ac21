package verification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

type sentNotice struct {
	channelID string
	content   string
}

// fakeSession records every platform mutation the pipeline issues. Safe for
// concurrent use so the interleaving test can share one instance.
type fakeSession struct {
	mu         sync.Mutex
	sent       []sentNotice
	deleted    []string
	roleGrants []string
	permSets   []string
	sendErr    error
	roleErr    error
	nextID     int
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sentNotice{channelID: channelID, content: content})
	return &discordgo.Message{ID: fmt.Sprintf("notice-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleErr != nil {
		return f.roleErr
	}
	f.roleGrants = append(f.roleGrants, guildID+"/"+userID+"/"+roleID)
	return nil
}

func (f *fakeSession) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permSets = append(f.permSets, channelID+"/"+targetID)
	return nil
}

func (f *fakeSession) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newMessage(id, userID string, atts ...*discordgo.MessageAttachment) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:          id,
		ChannelID:   "verify-channel",
		GuildID:     "guild",
		Author:      &discordgo.User{ID: userID, Username: "user-" + userID},
		Attachments: atts,
	}}
}

func newTestHandler(engine *fakeEngine) *Handler {
	return NewHandler(Config{
		ChannelID:               "verify-channel",
		RoleID:                  "verified-role",
		TargetHandle:            "Axis-Hub",
		Engine:                  engine,
		NoticeLifetime:          time.Millisecond,
		RejectionNoticeLifetime: time.Millisecond,
	})
}

func imageServer(t *testing.T, status int) (*httptest.Server, *int) {
	t.Helper()
	hits := new(int)
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*hits++
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("imagebytes"))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestProcessNoAttachment(t *testing.T) {
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{text: "irrelevant"})

	outcome := h.Process(context.Background(), s, newMessage("m1", "u1"))
	if outcome != OutcomeNoAttachment {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeNoAttachment)
	}

	deleted := s.deletedIDs()
	if len(deleted) != 2 || deleted[0] != "m1" {
		t.Fatalf("expected message and notice deleted, got %v", deleted)
	}
	if len(s.sent) != 1 || !strings.Contains(s.sent[0].content, "upload a screenshot") {
		t.Fatalf("expected instructional notice, got %+v", s.sent)
	}
	if len(s.roleGrants) != 0 {
		t.Fatalf("no role may be granted without an attachment")
	}
}

func TestProcessIneligibleAttachmentOnly(t *testing.T) {
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{text: "subscribed to axis-hub on youtube"})

	msg := newMessage("m1", "u1", &discordgo.MessageAttachment{Filename: "notes.txt", URL: "http://unused"})
	outcome := h.Process(context.Background(), s, msg)
	if outcome != OutcomeNoAttachment {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeNoAttachment)
	}
}

func TestProcessPromoted(t *testing.T) {
	srv, _ := imageServer(t, http.StatusOK)
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{text: "You are now subscribed to Axis-Hub on YouTube! 1,234 subscribers"})

	msg := newMessage("m1", "u1", &discordgo.MessageAttachment{Filename: "proof.png", URL: srv.URL})
	outcome := h.Process(context.Background(), s, msg)
	if outcome != OutcomePromoted {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomePromoted)
	}

	if len(s.roleGrants) != 1 || s.roleGrants[0] != "guild/u1/verified-role" {
		t.Fatalf("unexpected role grants: %v", s.roleGrants)
	}
	if len(s.permSets) != 1 || s.permSets[0] != "verify-channel/u1" {
		t.Fatalf("expected channel lockout for u1, got %v", s.permSets)
	}
	deleted := s.deletedIDs()
	if len(deleted) != 2 || deleted[0] != "m1" {
		t.Fatalf("expected message and success notice deleted, got %v", deleted)
	}
	if !strings.Contains(s.sent[0].content, "successfully verified") {
		t.Fatalf("unexpected success notice: %q", s.sent[0].content)
	}
}

func TestProcessRejectedOnFilenameFallback(t *testing.T) {
	srv, _ := imageServer(t, http.StatusOK)
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{err: errors.New("ocr down")})

	msg := newMessage("m1", "u1", &discordgo.MessageAttachment{Filename: "meme.png", URL: srv.URL})
	outcome := h.Process(context.Background(), s, msg)
	if outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeRejected)
	}

	if len(s.roleGrants) != 0 {
		t.Fatalf("rejected message must not grant a role")
	}
	if !strings.Contains(s.sent[0].content, "doesn't show a valid subscription") {
		t.Fatalf("unexpected rejection notice: %q", s.sent[0].content)
	}
}

func TestProcessSpoofedFilenamePromotes(t *testing.T) {
	// Documented bypass vector: OCR down plus a crafted filename passes.
	srv, _ := imageServer(t, http.StatusOK)
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{err: errors.New("ocr down")})

	msg := newMessage("m1", "u1", &discordgo.MessageAttachment{Filename: "subscribed-axis-hub-youtube.png", URL: srv.URL})
	if outcome := h.Process(context.Background(), s, msg); outcome != OutcomePromoted {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomePromoted)
	}
}

func TestProcessFetchFailure(t *testing.T) {
	srv, _ := imageServer(t, http.StatusInternalServerError)
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{text: "subscribed to axis-hub on youtube"})

	msg := newMessage("m1", "u1", &discordgo.MessageAttachment{Filename: "proof.png", URL: srv.URL})
	outcome := h.Process(context.Background(), s, msg)
	if outcome != OutcomeErrored {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeErrored)
	}

	if !strings.Contains(s.sent[0].content, "error processing your image") {
		t.Fatalf("unexpected error notice: %q", s.sent[0].content)
	}
	if len(s.roleGrants) != 0 {
		t.Fatalf("fetch failure must not grant a role")
	}
}

func TestProcessRoleGrantFailureIsSilent(t *testing.T) {
	srv, _ := imageServer(t, http.StatusOK)
	s := &fakeSession{roleErr: errors.New("missing permissions")}
	h := newTestHandler(&fakeEngine{text: "subscribed to axis-hub on youtube"})

	msg := newMessage("m1", "u1", &discordgo.MessageAttachment{Filename: "proof.png", URL: srv.URL})
	outcome := h.Process(context.Background(), s, msg)
	if outcome != OutcomeErrored {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeErrored)
	}

	// No user-facing notice on this path.
	if len(s.sent) != 0 {
		t.Fatalf("role grant failure must stay silent, got %+v", s.sent)
	}
	if len(s.permSets) != 0 {
		t.Fatalf("no lockout without a role grant")
	}
}

func TestProcessStopsAtFirstEligibleAttachment(t *testing.T) {
	srv, hits := imageServer(t, http.StatusOK)
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{err: errors.New("ocr down")})

	// First eligible attachment rejects; the later one would pass but is
	// never looked at.
	msg := newMessage("m1", "u1",
		&discordgo.MessageAttachment{Filename: "notes.txt", URL: srv.URL},
		&discordgo.MessageAttachment{Filename: "meme.png", URL: srv.URL},
		&discordgo.MessageAttachment{Filename: "subscribed-axis-hub-youtube.png", URL: srv.URL},
	)
	outcome := h.Process(context.Background(), s, msg)
	if outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want %v", outcome, OutcomeRejected)
	}
	if *hits != 1 {
		t.Fatalf("expected exactly one fetch, got %d", *hits)
	}
}

func TestProcessConcurrentUsersDoNotCross(t *testing.T) {
	srv, _ := imageServer(t, http.StatusOK)
	s := &fakeSession{}
	h := newTestHandler(&fakeEngine{text: "subscribed to axis-hub on youtube"})

	var wg sync.WaitGroup
	for _, user := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			msg := newMessage("msg-"+user, user, &discordgo.MessageAttachment{Filename: "proof.png", URL: srv.URL})
			if outcome := h.Process(context.Background(), s, msg); outcome != OutcomePromoted {
				t.Errorf("outcome for %s = %v, want %v", user, outcome, OutcomePromoted)
			}
		}(user)
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.roleGrants) != 2 {
		t.Fatalf("expected two role grants, got %v", s.roleGrants)
	}
	seen := map[string]int{}
	for _, g := range s.roleGrants {
		seen[g]++
	}
	if seen["guild/alice/verified-role"] != 1 || seen["guild/bob/verified-role"] != 1 {
		t.Fatalf("role grants crossed users: %v", s.roleGrants)
	}
}
