package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-duel-service/internal/app"
	"trivia-duel-service/internal/domain"
	"trivia-duel-service/internal/identity"
	"trivia-duel-service/internal/infra/memory"
)

type fixture struct {
	service  *app.RoomService
	registry *identity.Registry
	clock    *fakeClock
	host     domain.User
	guest    domain.User
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	registry := identity.NewRegistryWithClock(clock.Now)
	bank := memory.NewQuestionBank(memory.NewStaticPoolLoader(testPools()), time.Minute)
	service := app.NewRoomServiceWithClock(memory.NewRoomStore(), registry, bank, clock.Now)

	host, err := registry.Authenticate("", "Alice")
	if err != nil {
		t.Fatalf("authenticate host: %v", err)
	}
	guest, err := registry.Authenticate("", "Bobby")
	if err != nil {
		t.Fatalf("authenticate guest: %v", err)
	}
	return &fixture{service: service, registry: registry, clock: clock, host: host, guest: guest}
}

func testPools() map[string][]domain.Question {
	mcPool := make([]domain.Question, 0, app.DefaultMaxRounds)
	frPool := make([]domain.Question, 0, app.DefaultMaxRounds)
	for i := 0; i < app.DefaultMaxRounds; i++ {
		mcPool = append(mcPool, domain.Question{
			ID: "mc", Prompt: "pick A", Options: []string{"A", "B", "C"}, Answer: "A",
		})
		frPool = append(frPool, domain.Question{
			ID: "fr", Prompt: "capitals", Accepted: []string{"paris", "london", "rome", "berlin"},
		})
	}
	pools := map[string][]domain.Question{
		memory.PoolKey(domain.ModeMultipleChoice, domain.DifficultyEasy): mcPool,
		memory.PoolKey(domain.ModeFreeResponse, domain.DifficultyEasy):   frPool,
	}
	return pools
}

func (f *fixture) createStarted(t *testing.T, mode domain.Mode) domain.RoomSnapshot {
	t.Helper()
	ctx := context.Background()
	snap, err := f.service.Create(ctx, f.host.ID, mode, domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Join(ctx, f.guest.ID, snap.RoomID); err != nil {
		t.Fatalf("join: %v", err)
	}
	started, err := f.service.Start(f.host.ID, snap.RoomID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return started
}

func TestCreateRoomShape(t *testing.T) {
	f := newFixture(t)

	snap, err := f.service.Create(context.Background(), f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(snap.RoomID) != 6 {
		t.Fatalf("expected 6-character room code, got %q", snap.RoomID)
	}
	if snap.Status != domain.StatusWaiting || snap.HostID != f.host.ID {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Players) != 1 || snap.Players[0].ID != f.host.ID {
		t.Fatalf("expected host as sole player, got %+v", snap.Players)
	}
	if snap.MaxRounds != app.DefaultMaxRounds {
		t.Fatalf("expected %d rounds, got %d", app.DefaultMaxRounds, snap.MaxRounds)
	}
	if snap.CurrentQuestion != nil {
		t.Fatalf("question must not be exposed before the game starts")
	}
}

func TestJoinEnforcesCapacityAndState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, _ := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	if _, err := f.service.Join(ctx, f.guest.ID, snap.RoomID); err != nil {
		t.Fatalf("join: %v", err)
	}

	third, _ := f.registry.Authenticate("", "Carol")
	if _, err := f.service.Join(ctx, third.ID, snap.RoomID); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("expected room full, got %v", err)
	}

	if _, err := f.service.Start(f.host.ID, snap.RoomID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.Join(ctx, third.ID, snap.RoomID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after start, got %v", err)
	}

	if _, err := f.service.Join(ctx, f.guest.ID, "ZZZZZZ"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room not found, got %v", err)
	}
}

func TestJoinIsCaseInsensitiveOnRoomCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, _ := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	lower := " " + toLower(snap.RoomID) + " "
	if _, err := f.service.Join(ctx, f.guest.ID, lower); err != nil {
		t.Fatalf("expected case-insensitive join, got %v", err)
	}
}

func toLower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}

func TestStartRequiresHostAndTwoPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, _ := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)

	if _, err := f.service.Start(f.host.ID, snap.RoomID); !errors.Is(err, domain.ErrInsufficientPlayers) {
		t.Fatalf("expected insufficient players, got %v", err)
	}
	got, _ := f.service.Get(snap.RoomID)
	if got.Status != domain.StatusWaiting {
		t.Fatalf("failed start must leave status waiting, got %s", got.Status)
	}

	f.service.Join(ctx, f.guest.ID, snap.RoomID)
	if _, err := f.service.Start(f.guest.ID, snap.RoomID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected not host, got %v", err)
	}

	started, err := f.service.Start(f.host.ID, snap.RoomID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.StatusPlaying || started.CurrentRound != 0 {
		t.Fatalf("unexpected started snapshot: %+v", started)
	}
	if started.CurrentQuestion == nil || started.RoundStartTime == 0 {
		t.Fatalf("playing snapshot must carry question and round start")
	}
}

func TestSubmitScoresExactlyOncePerRound(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeFreeResponse)

	delta, total, _, err := f.service.Submit(f.host.ID, snap.RoomID, 0, []string{"Paris", "paris", "London", "Rome"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if delta != 3 || total != 3 {
		t.Fatalf("expected delta 3 total 3, got %d/%d", delta, total)
	}

	_, total, _, err = f.service.Submit(f.host.ID, snap.RoomID, 0, []string{"berlin"})
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if total != 3 {
		t.Fatalf("duplicate submit must not change score, got %d", total)
	}

	if _, _, _, err := f.service.Submit(f.guest.ID, snap.RoomID, 3, []string{"paris"}); !errors.Is(err, domain.ErrStaleRound) {
		t.Fatalf("expected stale round, got %v", err)
	}
}

func TestSubmitRejectedAfterDeadline(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeFreeResponse)

	f.clock.Advance(16 * time.Second)
	if _, _, _, err := f.service.Submit(f.host.ID, snap.RoomID, 0, []string{"paris"}); !errors.Is(err, domain.ErrRoundClosed) {
		t.Fatalf("expected round closed after 15s window, got %v", err)
	}
}

func TestMultipleChoiceRoundTiming(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeMultipleChoice)

	// The multiple-choice window is 60s; 16s in, submissions still count.
	f.clock.Advance(16 * time.Second)
	delta, _, _, err := f.service.Submit(f.host.ID, snap.RoomID, 0, []string{"A"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if delta != 1 {
		t.Fatalf("expected +1 for correct option, got %d", delta)
	}

	f.clock.Advance(50 * time.Second)
	if _, _, _, err := f.service.Submit(f.guest.ID, snap.RoomID, 0, []string{"A"}); !errors.Is(err, domain.ErrRoundClosed) {
		t.Fatalf("expected round closed after 60s, got %v", err)
	}
}

func TestAdvanceIsHostOnly(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeFreeResponse)

	if _, err := f.service.Advance(f.guest.ID, snap.RoomID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected not host, got %v", err)
	}
	next, err := f.service.Advance(f.host.ID, snap.RoomID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.CurrentRound != 1 {
		t.Fatalf("expected round 1, got %d", next.CurrentRound)
	}
	for _, p := range next.Players {
		if p.HasAnswered {
			t.Fatalf("answered flags must reset on advance")
		}
	}
}

func TestFullGameProducesWinner(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeFreeResponse)

	var final domain.RoomSnapshot
	for round := 0; round < app.DefaultMaxRounds; round++ {
		if _, _, _, err := f.service.Submit(f.host.ID, snap.RoomID, round, []string{"paris", "london"}); err != nil {
			t.Fatalf("host submit round %d: %v", round, err)
		}
		if _, _, _, err := f.service.Submit(f.guest.ID, snap.RoomID, round, []string{"paris"}); err != nil {
			t.Fatalf("guest submit round %d: %v", round, err)
		}
		next, err := f.service.Advance(f.host.ID, snap.RoomID)
		if err != nil {
			t.Fatalf("advance round %d: %v", round, err)
		}
		final = next
	}

	if final.Status != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", final.Status)
	}
	if final.Players[0].Score < final.Players[1].Score {
		t.Fatalf("final scores must be sorted descending: %+v", final.Players)
	}
	if final.Winner == nil || final.Winner.ID != f.host.ID || final.Tie {
		t.Fatalf("expected host to win, got winner=%+v tie=%v", final.Winner, final.Tie)
	}
	if final.Players[0].Score != 2*app.DefaultMaxRounds {
		t.Fatalf("unexpected winning score %d", final.Players[0].Score)
	}

	// Scoring is frozen after the game.
	if _, _, _, err := f.service.Submit(f.guest.ID, snap.RoomID, app.DefaultMaxRounds, []string{"rome"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after finish, got %v", err)
	}
}

func TestFullGameTie(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeFreeResponse)

	var final domain.RoomSnapshot
	for round := 0; round < app.DefaultMaxRounds; round++ {
		f.service.Submit(f.host.ID, snap.RoomID, round, []string{"paris"})
		f.service.Submit(f.guest.ID, snap.RoomID, round, []string{"london"})
		final, _ = f.service.Advance(f.host.ID, snap.RoomID)
	}

	if !final.Tie || final.Winner != nil {
		t.Fatalf("expected tie, got winner=%+v tie=%v", final.Winner, final.Tie)
	}
}

func TestLeaveTransfersHostThenDeletesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, _ := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	f.service.Join(ctx, f.guest.ID, snap.RoomID)

	deleted, err := f.service.Leave(f.host.ID, snap.RoomID)
	if err != nil || deleted {
		t.Fatalf("expected room kept after host leaves, got deleted=%v err=%v", deleted, err)
	}
	got, _ := f.service.Get(snap.RoomID)
	if got.HostID != f.guest.ID {
		t.Fatalf("expected host transfer to guest, got %s", got.HostID)
	}

	deleted, err = f.service.Leave(f.guest.ID, snap.RoomID)
	if err != nil || !deleted {
		t.Fatalf("expected deletion when last player leaves, got deleted=%v err=%v", deleted, err)
	}
	if _, err := f.service.Get(snap.RoomID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room not found after deletion, got %v", err)
	}
}

func TestLeaveMidRoundDoesNotBlockOpponent(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeFreeResponse)

	if _, err := f.service.Leave(f.guest.ID, snap.RoomID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	// The remaining player still scores and the host can still advance.
	if _, _, _, err := f.service.Submit(f.host.ID, snap.RoomID, 0, []string{"paris"}); err != nil {
		t.Fatalf("submit after opponent left: %v", err)
	}
	if _, err := f.service.Advance(f.host.ID, snap.RoomID); err != nil {
		t.Fatalf("advance after opponent left: %v", err)
	}
}

func TestSubscribeDeliversUpdatesAndDeletionNotice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, _ := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	events, cancel, err := f.service.Subscribe(snap.RoomID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := <-events
	if initial.Room == nil || initial.Room.Status != domain.StatusWaiting {
		t.Fatalf("expected initial snapshot, got %+v", initial)
	}

	f.service.Join(ctx, f.guest.ID, snap.RoomID)
	update := <-events
	if update.Room == nil || len(update.Room.Players) != 2 {
		t.Fatalf("expected join update, got %+v", update)
	}

	f.service.Leave(f.guest.ID, snap.RoomID)
	<-events // host-only snapshot after the guest leaves
	f.service.Leave(f.host.ID, snap.RoomID)

	notice, ok := <-events
	if !ok || !notice.Deleted || notice.Reason == "" {
		t.Fatalf("expected deletion notice, got %+v ok=%v", notice, ok)
	}
	if _, ok := <-events; ok {
		t.Fatalf("expected channel closed after deletion notice")
	}
}

func TestSubscribeNeverDeliversStaleSnapshotFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Subscribe while a join races it; the first event must be the snapshot
	// as of subscription, never one older than a later-delivered update.
	for i := 0; i < 25; i++ {
		snap, err := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}

		joined := make(chan struct{})
		go func() {
			defer close(joined)
			if _, err := f.service.Join(ctx, f.guest.ID, snap.RoomID); err != nil {
				t.Errorf("join: %v", err)
			}
		}()

		events, cancel, err := f.service.Subscribe(snap.RoomID)
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		<-joined

		seats := 0
	drain:
		for {
			select {
			case ev := <-events:
				if ev.Room == nil {
					continue
				}
				if len(ev.Room.Players) < seats {
					t.Fatalf("snapshot with %d players delivered after one with %d", len(ev.Room.Players), seats)
				}
				seats = len(ev.Room.Players)
			default:
				break drain
			}
		}
		cancel()

		f.service.Leave(f.guest.ID, snap.RoomID)
		f.service.Leave(f.host.ID, snap.RoomID)
	}
}

func TestSweepSparesFreshRoom(t *testing.T) {
	f := newFixture(t)

	snap, err := f.service.Create(context.Background(), f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("host must be seated by the time create returns, got %+v", snap.Players)
	}

	roomsDeleted, _ := f.service.Sweep(app.ReaperConfig{
		RoomTTL:    time.Hour,
		UserTTL:    time.Hour,
		RoundGrace: 30 * time.Second,
	})
	if roomsDeleted != 0 {
		t.Fatalf("sweep must not reap a freshly created room, got %d deletions", roomsDeleted)
	}
	if _, err := f.service.Get(snap.RoomID); err != nil {
		t.Fatalf("room gone after sweep: %v", err)
	}
}

func TestRenameReflectsInRoomSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, _ := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	if _, err := f.service.Rename(f.host.ID, "Alicia"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, _ := f.service.Get(snap.RoomID)
	if got.Players[0].Username != "Alicia" {
		t.Fatalf("expected renamed player in snapshot, got %q", got.Players[0].Username)
	}
}

func TestRoomCodesNeverCollideAmongLiveRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		user, _ := f.registry.Authenticate("", "Host"+string(rune('A'+i%26)))
		snap, err := f.service.Create(ctx, user.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[snap.RoomID] {
			t.Fatalf("duplicate live room code %s", snap.RoomID)
		}
		seen[snap.RoomID] = true
	}
}

func TestSweepForceAdvancesExpiredRounds(t *testing.T) {
	f := newFixture(t)
	snap := f.createStarted(t, domain.ModeFreeResponse)

	f.clock.Advance(15*time.Second + 31*time.Second)
	f.service.Sweep(app.ReaperConfig{
		RoomTTL:    time.Hour,
		UserTTL:    time.Hour,
		RoundGrace: 30 * time.Second,
	})

	got, _ := f.service.Get(snap.RoomID)
	if got.CurrentRound != 1 {
		t.Fatalf("expected sweep to advance stuck round, got round %d", got.CurrentRound)
	}
}

func TestSweepDeletesIdleRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, _ := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, domain.DifficultyEasy)
	f.clock.Advance(2 * time.Hour)
	roomsDeleted, _ := f.service.Sweep(app.ReaperConfig{
		RoomTTL:    30 * time.Minute,
		UserTTL:    12 * time.Hour,
		RoundGrace: 30 * time.Second,
	})
	if roomsDeleted != 1 {
		t.Fatalf("expected 1 room reaped, got %d", roomsDeleted)
	}
	if _, err := f.service.Get(snap.RoomID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room gone after sweep, got %v", err)
	}
}

func TestCreateValidatesModeAndDifficulty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Create(ctx, f.host.ID, "speed-run", domain.DifficultyEasy); !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("expected invalid mode, got %v", err)
	}
	if _, err := f.service.Create(ctx, f.host.ID, domain.ModeFreeResponse, "impossible"); !errors.Is(err, domain.ErrInvalidDifficulty) {
		t.Fatalf("expected invalid difficulty, got %v", err)
	}
	if _, err := f.service.Create(ctx, "ghost", domain.ModeFreeResponse, domain.DifficultyEasy); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}
